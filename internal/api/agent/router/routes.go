// Package router đăng ký các route thuộc domain Agent: Register, Check-in, Registry CRUD.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	agenthdl "bid_flow/internal/api/agent/handler"
	"bid_flow/internal/api/middleware"
	apirouter "bid_flow/internal/api/router"
)

// Register đăng ký tất cả route automation agent lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	agentHandler, err := agenthdl.NewAutomationAgentHandler()
	if err != nil {
		return fmt.Errorf("create automation agent handler: %w", err)
	}

	// Registry CRUD (ops quản lý danh sách agent)
	r.RegisterCRUDRoutes(v1, "/agents", agentHandler, apirouter.ReadWriteConfig, "AutomationAgent")

	// Register: ops provision agent và nhận token để cấp cho bot
	registerMiddleware := middleware.AuthMiddleware("AutomationAgent.Register")
	apirouter.RegisterRouteWithMiddleware(v1, "/agents", "POST", "/register", []fiber.Handler{registerMiddleware}, agentHandler.HandleRegister)

	// Check-in: agent tự báo cáo status/health/metrics định kỳ
	checkInMiddleware := middleware.AuthMiddleware("AutomationAgent.CheckIn")
	apirouter.RegisterRouteWithMiddleware(v1, "/agents", "POST", "/check-in", []fiber.Handler{checkInMiddleware}, agentHandler.HandleCheckIn)

	return nil
}
