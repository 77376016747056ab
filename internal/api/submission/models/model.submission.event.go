// Package models - model SubmissionEvent (event stream append-only của pipeline).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType các loại event của pipeline
const (
	EventPipelineStarted   = "pipeline_started"
	EventPhaseStarted      = "phase_started"
	EventPhaseCompleted    = "phase_completed"
	EventRetry             = "retry"
	EventError             = "error"
	EventPipelineCompleted = "pipeline_completed"
	EventPipelineFailed    = "pipeline_failed"
	EventPipelineCancelled = "pipeline_cancelled"
	EventPipelineSuspended = "pipeline_suspended"
	EventPipelineResumed   = "pipeline_resumed"
)

// EventLevel mức độ nghiêm trọng của event
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// SubmissionEvent là bản ghi bất biến của một chuyển trạng thái trong pipeline.
// Append-only: không bao giờ update/delete. Index compound (pipelineId, createdAt)
// phục vụ truy vấn timeline được tạo riêng trong database.CreatePipelineAdditionalIndexes.
type SubmissionEvent struct {
	ID           primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	PipelineID   string                 `json:"pipelineId" bson:"pipelineId" index:"single:1"`
	SubmissionID primitive.ObjectID     `json:"submissionId" bson:"submissionId" index:"single:1"`
	EventType    string                 `json:"eventType" bson:"eventType" index:"single:1"`
	Phase        string                 `json:"phase,omitempty" bson:"phase,omitempty"`
	Level        string                 `json:"level" bson:"level" default:"info"` // "info", "warning", "error"
	Message      string                 `json:"message" bson:"message"`
	Details      map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	AgentID      string                 `json:"agentId,omitempty" bson:"agentId,omitempty"` // Agent liên quan tới event (nếu có)
	CreatedAt    int64                  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    int64                  `json:"updatedAt" bson:"updatedAt"`
}
