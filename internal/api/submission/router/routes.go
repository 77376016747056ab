// Package router đăng ký các route thuộc domain Submission: CRUD submission
// và các endpoint điều khiển pipeline nộp thầu.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"bid_flow/internal/api/middleware"
	apirouter "bid_flow/internal/api/router"
	submissionhdl "bid_flow/internal/api/submission/handler"
)

// Register đăng ký tất cả route submission + pipeline lên v1.
// Lưu ý: route tĩnh (/active) phải đăng ký TRƯỚC route có param (/:pipelineId/...)
// để Fiber không match nhầm "active" thành pipelineId.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	submissionHandler, err := submissionhdl.NewSubmissionHandler()
	if err != nil {
		return fmt.Errorf("create submission handler: %w", err)
	}
	pipelineHandler, err := submissionhdl.NewSubmissionPipelineHandler()
	if err != nil {
		return fmt.Errorf("create submission pipeline handler: %w", err)
	}

	// CRUD submission record
	r.RegisterCRUDRoutes(v1, "/submissions", submissionHandler, apirouter.ReadWriteConfig, "Submission")

	// Bản mirror của pipeline: chỉ đọc (find/find-one/count/exists), mọi mutation qua orchestrator
	r.RegisterCRUDRoutes(v1, "/submission-pipelines", pipelineHandler, apirouter.ReadOnlyConfig, "SubmissionPipeline")

	opsMiddleware := middleware.AuthMiddleware("SubmissionPipeline.Execute")
	readMiddleware := middleware.AuthMiddleware("SubmissionPipeline.Read")

	// Khởi động pipeline cho một submission
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "POST", "/initiate", []fiber.Handler{opsMiddleware}, pipelineHandler.Initiate)

	// Danh sách pipeline đang chạy trong registry in-memory
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "GET", "/active", []fiber.Handler{readMiddleware}, pipelineHandler.ListActive)

	// Trạng thái + timeline của một pipeline
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "GET", "/:pipelineId/status", []fiber.Handler{readMiddleware}, pipelineHandler.GetStatus)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "GET", "/:pipelineId/timeline", []fiber.Handler{readMiddleware}, pipelineHandler.GetTimeline)

	// Điều khiển vòng đời: cancel/suspend/resume
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "POST", "/:pipelineId/cancel", []fiber.Handler{opsMiddleware}, pipelineHandler.Cancel)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "POST", "/:pipelineId/suspend", []fiber.Handler{opsMiddleware}, pipelineHandler.Suspend)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "POST", "/:pipelineId/resume", []fiber.Handler{opsMiddleware}, pipelineHandler.Resume)

	// Force-advance: ops can thiệp khi phase bị kẹt
	apirouter.RegisterRouteWithMiddleware(v1, "/submission-pipelines", "POST", "/:pipelineId/force-advance", []fiber.Handler{opsMiddleware}, pipelineHandler.ForceAdvance)

	return nil
}
