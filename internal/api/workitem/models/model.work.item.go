// Package models - model WorkItem thuộc domain workitem.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loại task của work item. Mỗi phase của pipeline phát đúng một loại task,
// agent claim theo capability khớp với taskType.
const (
	TaskTypePreflightCheck         = "preflight_check"
	TaskTypePortalAuthentication   = "portal_authentication"
	TaskTypeFormFilling            = "form_filling"
	TaskTypeDocumentUpload         = "document_upload"
	TaskTypeSubmissionExecution    = "submission_execution"
	TaskTypeSubmissionVerification = "submission_verification"
)

// Trạng thái của work item
const (
	WorkItemStatusPending    = "pending"
	WorkItemStatusInProgress = "in_progress"
	WorkItemStatusCompleted  = "completed"
	WorkItemStatusFailed     = "failed"
	WorkItemStatusCancelled  = "cancelled"
)

// WorkItem là một đơn vị công việc orchestrator giao cho automation agent
// (kiểm tra preflight, đăng nhập portal, điền form, upload tài liệu, ...).
// Agent claim atomic qua FindOneAndUpdate nên một item không bao giờ bị
// hai agent xử lý cùng lúc.
// Collection: work_items
type WorkItem struct {
	ID              primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	PipelineID      string                 `json:"pipelineId" bson:"pipelineId" index:"single:1"` // Reference to submission_pipelines.pipelineId (uuid) - id chung giữa các collection
	SubmissionID    primitive.ObjectID     `json:"submissionId" bson:"submissionId" index:"single:1"`
	Phase           string                 `json:"phase" bson:"phase"` // Phase phát sinh work item này
	TaskType        string                 `json:"taskType" bson:"taskType" index:"single:1"`
	InputPayload    map[string]interface{} `json:"inputPayload,omitempty" bson:"inputPayload,omitempty"`       // Dữ liệu agent cần để thực thi (portal URL, field mappings, đường dẫn file, ...)
	ExpectedOutputs []string               `json:"expectedOutputs,omitempty" bson:"expectedOutputs,omitempty"` // Các key agent phải trả về trong result
	Priority        int                    `json:"priority" bson:"priority"`                                   // Trọng số ưu tiên, claim sắp giảm dần
	Deadline        int64                  `json:"deadline,omitempty" bson:"deadline,omitempty"`               // Hạn chót thực thi (UnixMilli), 0 nếu không có
	Status          string                 `json:"status" bson:"status" index:"single:1" default:"pending"`    // "pending", "in_progress", "completed", "failed", "cancelled"
	AgentID         string                 `json:"agentId,omitempty" bson:"agentId,omitempty" index:"single:1"` // Reference to automation_agents.agentId (string), set khi claim
	Result          map[string]interface{} `json:"result,omitempty" bson:"result,omitempty"`
	Error           string                 `json:"error,omitempty" bson:"error,omitempty"`
	Progress        map[string]interface{} `json:"progress,omitempty" bson:"progress,omitempty"`                               // Tiến độ chi tiết agent báo về (ví dụ: {"step": "uploading", "percentage": 50})
	LastHeartbeatAt int64                  `json:"lastHeartbeatAt,omitempty" bson:"lastHeartbeatAt,omitempty" index:"single:1"` // Thời gian agent update tiến độ lần cuối (heartbeat)
	CreatedAt       int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	ExecutedAt      int64                  `json:"executedAt,omitempty" bson:"executedAt,omitempty"` // Thời điểm agent claim
	CompletedAt     int64                  `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	UpdatedAt       int64                  `json:"updatedAt" bson:"updatedAt"`
}
