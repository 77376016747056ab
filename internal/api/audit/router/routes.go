// Package router đăng ký các route thuộc domain Audit (read-only).
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	audithdl "bid_flow/internal/api/audit/handler"
	"bid_flow/internal/api/middleware"
	apirouter "bid_flow/internal/api/router"
)

// Register đăng ký các route đọc audit log lên v1.
// Audit log là append-only: không có route ghi/xóa qua API.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	auditHandler, err := audithdl.NewAuditLogHandler()
	if err != nil {
		return fmt.Errorf("create audit log handler: %w", err)
	}

	auditReadMiddleware := middleware.AuthMiddleware("AuditLog.Read")
	apirouter.RegisterRouteWithMiddleware(v1, "/audit-logs", "GET", "/sort-by-time", []fiber.Handler{auditReadMiddleware}, auditHandler.HandleFindAllSortByTime)
	r.RegisterCRUDRoutes(v1, "/audit-logs", auditHandler, apirouter.ReadOnlyConfig, "AuditLog")

	return nil
}
