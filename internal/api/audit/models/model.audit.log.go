// Package models - model AuditLog thuộc domain audit.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntityType các loại entity được ghi audit
const (
	AuditEntitySubmissionPipeline = "submission_pipeline"
	AuditEntitySubmission         = "submission"
	AuditEntityProposal           = "proposal"
	AuditEntityOpportunity        = "rfp_opportunity"
	AuditEntityPortal             = "portal"
	AuditEntityWorkItem           = "work_item"
)

// AuditLog lưu vết các hành động quan trọng phục vụ compliance review.
// Khác với SubmissionEvent (phục vụ debug vận hành theo pipeline), audit log
// có độ hạt thô hơn và xuyên suốt các entity.
type AuditLog struct {
	ID         primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	EntityType string                 `json:"entityType" bson:"entityType" index:"single:1"` // "submission_pipeline", "submission", ...
	EntityID   string                 `json:"entityId" bson:"entityId" index:"single:1"`     // Hex ObjectID hoặc pipeline uuid
	Action     string                 `json:"action" bson:"action" index:"single:1"`         // "pipeline_initiated", "pipeline_failed", ...
	Details    map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	Actor      string                 `json:"actor,omitempty" bson:"actor,omitempty"` // "orchestrator", "ops" hoặc agentId
	CreatedAt  int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt  int64                  `json:"updatedAt" bson:"updatedAt"`
}
