// Package models - các model thuộc domain submission.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmissionStatus các trạng thái của hồ sơ nộp thầu
const (
	SubmissionStatusDraft      = "draft"       // Mới tạo, chưa nộp
	SubmissionStatusInProgress = "in_progress" // Pipeline đang chạy
	SubmissionStatusSubmitted  = "submitted"   // Đã nộp thành công, có receipt
	SubmissionStatusFailed     = "failed"      // Nộp thất bại hoặc bị hủy
)

// Submission đại diện một lần nộp hồ sơ thầu: gắn proposal với opportunity
// và portal đích. Pipeline orchestrator cập nhật status và receiptData.
type Submission struct {
	_Relationships struct{}               `relationship:"collection:submission_pipelines,field:submissionId,message:Không thể xóa submission vì có %d pipeline đang tham chiếu. Vui lòng hủy pipeline trước."`
	ID             primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	OpportunityID  primitive.ObjectID     `json:"opportunityId" bson:"opportunityId" index:"single:1"`
	ProposalID     primitive.ObjectID     `json:"proposalId" bson:"proposalId" index:"single:1"`
	PortalID       primitive.ObjectID     `json:"portalId" bson:"portalId" index:"single:1"`
	Status         string                 `json:"status" bson:"status" index:"single:1" default:"draft"` // "draft", "in_progress", "submitted", "failed"
	Method         string                 `json:"method,omitempty" bson:"method,omitempty" default:"automated"` // "automated" (qua pipeline) hoặc "manual"
	ReceiptData    map[string]interface{} `json:"receiptData,omitempty" bson:"receiptData,omitempty"`           // Receipt từ phase verifying
	SubmittedAt    int64                  `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	Notes          string                 `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt      int64                  `json:"updatedAt" bson:"updatedAt"`
}
