// Package router đăng ký các route thuộc domain WorkItem: CRUD, Claim, Report, Heartbeat.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"bid_flow/internal/api/middleware"
	apirouter "bid_flow/internal/api/router"
	workitemhdl "bid_flow/internal/api/workitem/handler"
)

// Register đăng ký tất cả route work item lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	workItemHandler, err := workitemhdl.NewWorkItemHandler()
	if err != nil {
		return fmt.Errorf("create work item handler: %w", err)
	}

	// CRUD (ops quản lý, agent được đọc qua allow-set WorkItem.Read)
	r.RegisterCRUDRoutes(v1, "/work-items", workItemHandler, apirouter.ReadWriteConfig, "WorkItem")

	// Claim: agent nhận việc theo capability, atomic để không trùng lặp
	claimMiddleware := middleware.AuthMiddleware("WorkItem.Update")
	apirouter.RegisterRouteWithMiddleware(v1, "/work-items", "POST", "/claim", []fiber.Handler{claimMiddleware}, workItemHandler.ClaimPending)

	// Report: agent báo cáo kết quả (completed/failed) cho work item đã claim
	reportMiddleware := middleware.AuthMiddleware("WorkItem.Update")
	apirouter.RegisterRouteWithMiddleware(v1, "/work-items", "POST", "/:workItemId/report", []fiber.Handler{reportMiddleware}, workItemHandler.ReportResult)

	// Heartbeat: agent cập nhật tiến độ để không bị release-stuck thu hồi
	heartbeatMiddleware := middleware.AuthMiddleware("WorkItem.Update")
	apirouter.RegisterRouteWithMiddleware(v1, "/work-items", "POST", "/:workItemId/heartbeat", []fiber.Handler{heartbeatMiddleware}, workItemHandler.UpdateHeartbeat)

	// Release stuck: chỉ ops (permission không nằm trong allow-set của agent)
	releaseStuckMiddleware := middleware.AuthMiddleware("WorkItem.ReleaseStuck")
	apirouter.RegisterRouteWithMiddleware(v1, "/work-items", "POST", "/release-stuck", []fiber.Handler{releaseStuckMiddleware}, workItemHandler.ReleaseStuck)

	return nil
}
