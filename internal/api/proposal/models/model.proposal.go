// Package models - model Proposal thuộc domain proposal.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProposalStatus các trạng thái của tài liệu phản hồi
const (
	ProposalStatusDraft     = "draft"     // Đang soạn thảo
	ProposalStatusReady     = "ready"     // Hoàn chỉnh, sẵn sàng nộp
	ProposalStatusSubmitted = "submitted" // Đã nộp thành công qua pipeline
	ProposalStatusFailed    = "failed"    // Nộp thất bại
)

// ProposalSection là một phần nội dung của proposal (executive summary, technical approach, pricing...)
type ProposalSection struct {
	Name    string `json:"name" bson:"name"`
	Content string `json:"content" bson:"content"`
	Order   int    `json:"order" bson:"order"`
}

// ProposalFile là một tài liệu đính kèm của proposal, agent upload ở phase uploading.
type ProposalFile struct {
	Name        string `json:"name" bson:"name"`
	Path        string `json:"path" bson:"path"` // Đường dẫn lưu trữ file
	ContentType string `json:"contentType,omitempty" bson:"contentType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty" bson:"sizeBytes,omitempty"`
	Purpose     string `json:"purpose,omitempty" bson:"purpose,omitempty"` // "technical", "pricing", "compliance", ...
}

// Proposal đại diện tài liệu phản hồi cho một cơ hội thầu.
// ReceiptData được pipeline ghi vào khi phase verifying hoàn tất (Số tham chiếu, thời điểm nộp).
type Proposal struct {
	_Relationships struct{}               `relationship:"collection:submissions,field:proposalId,message:Không thể xóa proposal vì có %d submission đang tham chiếu. Vui lòng xóa các submission trước."`
	ID             primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	OpportunityID  primitive.ObjectID     `json:"opportunityId" bson:"opportunityId" index:"single:1"`
	Title          string                 `json:"title" bson:"title"`
	Sections       []ProposalSection      `json:"sections,omitempty" bson:"sections,omitempty"`
	Files          []ProposalFile         `json:"files,omitempty" bson:"files,omitempty"`
	Status         string                 `json:"status" bson:"status" index:"single:1" default:"draft"` // "draft", "ready", "submitted", "failed"
	ReceiptData    map[string]interface{} `json:"receiptData,omitempty" bson:"receiptData,omitempty"`
	SubmittedAt    int64                  `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	CreatedAt      int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt      int64                  `json:"updatedAt" bson:"updatedAt"`
}
