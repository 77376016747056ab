// Package models - model SubmissionPipeline (bản ghi durable của pipeline).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PipelineStatus các trạng thái của pipeline nộp thầu
const (
	PipelineStatusPending    = "pending"     // Vừa khởi tạo, chưa chạy phase nào
	PipelineStatusInProgress = "in_progress" // Đang thực thi các phase
	PipelineStatusSuspended  = "suspended"   // Ops tạm dừng, chờ resume
	PipelineStatusCompleted  = "completed"   // Hoàn tất, đã có receipt
	PipelineStatusFailed     = "failed"      // Thất bại vĩnh viễn hoặc bị hủy
)

// SubmissionPipeline là bản ghi durable của một pipeline nộp thầu.
// Bản in-memory trong registry là authoritative khi process đang chạy;
// bản ghi này được mirror mỗi lần mutation và tồn tại vĩnh viễn cho audit.
// PipelineID là uuid do orchestrator cấp, khác với _id của MongoDB.
type SubmissionPipeline struct {
	ID            primitive.ObjectID                `json:"id,omitempty" bson:"_id,omitempty"`
	PipelineID    string                            `json:"pipelineId" bson:"pipelineId" index:"unique"`
	SubmissionID  primitive.ObjectID                `json:"submissionId" bson:"submissionId" index:"single:1"`
	SessionID     string                            `json:"sessionId,omitempty" bson:"sessionId,omitempty"` // Session handle do caller cung cấp (opaque)
	OpportunityID primitive.ObjectID                `json:"opportunityId" bson:"opportunityId"`
	ProposalID    primitive.ObjectID                `json:"proposalId" bson:"proposalId"`
	PortalID      primitive.ObjectID                `json:"portalId" bson:"portalId"`
	CurrentPhase  string                            `json:"currentPhase" bson:"currentPhase" index:"single:1"`
	Status        string                            `json:"status" bson:"status" index:"single:1"` // "pending", "in_progress", "suspended", "completed", "failed"
	Progress      int                               `json:"progress" bson:"progress"`              // 0-100
	WorkItemIDs   []string                          `json:"workItemIds" bson:"workItemIds"`        // Append-only, tích lũy qua các phase
	Results       map[string]map[string]interface{} `json:"results,omitempty" bson:"results,omitempty"` // phase -> payload đã merge
	RetryCount    int                               `json:"retryCount" bson:"retryCount"`
	MaxRetries    int                               `json:"maxRetries" bson:"maxRetries"`
	ErrorData     map[string]interface{}            `json:"errorData,omitempty" bson:"errorData,omitempty"`
	Metadata      map[string]interface{}            `json:"metadata,omitempty" bson:"metadata,omitempty"` // priority, deadline, portalName, browserOptions...
	CreatedAt     int64                             `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt     int64                             `json:"updatedAt" bson:"updatedAt"`
}
