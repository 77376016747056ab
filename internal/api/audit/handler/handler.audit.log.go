// Package audithdl chứa handler HTTP cho domain audit.
package audithdl

import (
	"fmt"

	auditdto "bid_flow/internal/api/audit/dto"
	auditmodels "bid_flow/internal/api/audit/models"
	auditsvc "bid_flow/internal/api/audit/service"
	basehdl "bid_flow/internal/api/base/handler"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// AuditLogHandler xử lý các route đọc audit log
type AuditLogHandler struct {
	*basehdl.BaseHandler[auditmodels.AuditLog, auditdto.AuditLogCreateInput, auditdto.AuditLogUpdateInput]
	AuditLogService *auditsvc.AuditLogService
}

// NewAuditLogHandler tạo mới AuditLogHandler
func NewAuditLogHandler() (*AuditLogHandler, error) {
	auditService, err := auditsvc.NewAuditLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log service: %w", err)
	}

	hdl := &AuditLogHandler{AuditLogService: auditService}
	hdl.BaseHandler = basehdl.NewBaseHandler[auditmodels.AuditLog, auditdto.AuditLogCreateInput, auditdto.AuditLogUpdateInput](auditService.BaseServiceMongoImpl)
	return hdl, nil
}

// HandleFindAllSortByTime tìm các audit entry với phân trang, sắp xếp mới nhất trước.
// Hỗ trợ lọc theo entityType và entityId qua query parameter.
func (h *AuditLogHandler) HandleFindAllSortByTime(c fiber.Ctx) error {
	page, limit := h.ParsePagination(c)

	filter := bson.M{}
	if entityType := c.Query("entityType"); entityType != "" {
		filter["entityType"] = entityType
	}
	if entityId := c.Query("entityId"); entityId != "" {
		filter["entityId"] = entityId
	}

	result, err := h.AuditLogService.FindAllSortByTime(c.Context(), page, limit, filter)
	h.HandleResponse(c, result, err)
	return nil
}
