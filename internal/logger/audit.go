package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// AuditAction log một hành động audit qua HTTP (bổ trợ cho audit_logs collection)
type AuditAction struct {
	Action     string                 `json:"action"`      // Tên hành động (ví dụ: "pipeline_initiate", "submission_cancel")
	UserID     string                 `json:"user_id"`     // ID người dùng/agent thực hiện
	EntityID   string                 `json:"entity_id"`   // ID entity bị ảnh hưởng
	EntityType string                 `json:"entity_type"` // Loại entity (ví dụ: "submission", "pipeline", "work_item")
	IP         string                 `json:"ip"`          // IP address
	UserAgent  string                 `json:"user_agent"`  // User agent
	Details    map[string]interface{} `json:"details"`     // Chi tiết bổ sung
	Timestamp  time.Time              `json:"timestamp"`   // Thời gian
}

// LogAction log một hành động audit
func LogAction(action string, c fiber.Ctx, details map[string]interface{}) {
	auditLogger := GetAuditLogger()

	if details == nil {
		details = make(map[string]interface{})
	}

	audit := AuditAction{
		Action:    action,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		Details:   details,
		Timestamp: time.Now(),
	}

	// Lấy actor ID từ context nếu có
	if actorID := c.Locals("user_id"); actorID != nil {
		if uid, ok := actorID.(string); ok {
			audit.UserID = uid
		}
	}
	if agentID := c.Locals("agent_id"); agentID != nil {
		if aid, ok := agentID.(string); ok && audit.UserID == "" {
			audit.UserID = aid
		}
	}

	// Lấy request ID
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		audit.Details["request_id"] = requestID
	}

	auditLogger.WithFields(logrus.Fields{
		"action":      audit.Action,
		"user_id":     audit.UserID,
		"entity_id":   audit.EntityID,
		"entity_type": audit.EntityType,
		"ip":          audit.IP,
		"user_agent":  audit.UserAgent,
		"details":     audit.Details,
		"timestamp":   audit.Timestamp,
	}).Info("Audit log")
}

// LogCRUD log các thao tác CRUD
func LogCRUD(operation string, entityType string, entityID string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["operation"] = operation
	details["entity_type"] = entityType
	details["entity_id"] = entityID

	LogAction("crud_"+operation, c, details)
}

// LogPipeline log các thao tác trên submission pipeline (initiate/cancel/force-advance)
func LogPipeline(action string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["pipeline_action"] = action

	LogAction("pipeline_"+action, c, details)
}
