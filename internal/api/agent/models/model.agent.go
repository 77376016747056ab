// Package models - model AutomationAgent thuộc domain agent.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutomationAgent định nghĩa một automation agent chuyên biệt đã đăng ký với hệ thống.
// Agent nhận work items theo capability (portal_authentication, form_filling, document_upload, ...).
// Token chứa token xác thực mới nhất của agent (cấp lại mỗi lần register).
// Collection: automation_agents
type AutomationAgent struct {
	ID           primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	AgentID      string                 `json:"agentId" bson:"agentId" index:"unique"` // Mã định danh agent (ví dụ: "browser-bot-01") - id chung giữa các collection
	Name         string                 `json:"name" bson:"name"`
	Description  string                 `json:"description,omitempty" bson:"description,omitempty"`
	Capabilities []string               `json:"capabilities" bson:"capabilities"` // Các loại work item agent xử lý được
	AgentVersion string                 `json:"agentVersion,omitempty" bson:"agentVersion,omitempty"`
	Status       string                 `json:"status" bson:"status" index:"single:1" default:"offline"` // "online", "offline", "draining"
	HealthStatus string                 `json:"healthStatus,omitempty" bson:"healthStatus,omitempty"`    // "healthy", "degraded", "unhealthy"
	Token        string                 `json:"token" bson:"token"`
	IsBlock      bool                   `json:"-" bson:"isBlock"`
	BlockNote    string                 `json:"-" bson:"blockNote"`
	SystemInfo   map[string]interface{} `json:"systemInfo,omitempty" bson:"systemInfo,omitempty"`
	Metrics      map[string]interface{} `json:"metrics,omitempty" bson:"metrics,omitempty"`
	FirstSeenAt  int64                  `json:"firstSeenAt" bson:"firstSeenAt"`
	LastSeenAt   int64                  `json:"lastSeenAt" bson:"lastSeenAt" index:"single:1"`
	LastCheckInAt int64                 `json:"lastCheckInAt,omitempty" bson:"lastCheckInAt,omitempty"`
	CreatedAt    int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt    int64                  `json:"updatedAt" bson:"updatedAt"`
}
