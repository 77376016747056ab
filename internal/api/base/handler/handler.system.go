package basehdl

import (
	"context"
	"time"

	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"github.com/gofiber/fiber/v3"
)

// SystemHandler phục vụ các endpoint vận hành, trước hết là health check.
type SystemHandler struct {
	*BaseHandler[interface{}, interface{}, interface{}]
}

// NewSystemHandler tạo handler hệ thống, không gắn với collection nào.
func NewSystemHandler() (*SystemHandler, error) {
	baseHandler := &BaseHandler[interface{}, interface{}, interface{}]{}
	handler := &SystemHandler{
		BaseHandler: baseHandler,
	}
	return handler, nil
}

// HandleHealth trả về tình trạng của API và kết nối database.
// @Summary Tình trạng hệ thống
// @Description API còn sống không và MongoDB còn ping được không
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Các service đều ổn"
// @Failure 503 {object} map[string]interface{} "Database mất kết nối"
// @Router /system/health [get]
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	// Ping database có deadline riêng, không ăn theo request
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthData := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services": fiber.Map{
			"api": "ok",
		},
	}

	// Session Mongo có thể chưa init khi chạy test hoặc tool
	if global.MongoDB_Session != nil {
		err := global.MongoDB_Session.Ping(ctx, nil)
		if err != nil {
			healthData["status"] = "degraded"
			healthData["services"].(fiber.Map)["database"] = "error"
			healthData["database_error"] = err.Error()
			// Database hỏng: 503 nhưng vẫn kèm chi tiết từng service
			return c.Status(common.StatusServiceUnavailable).JSON(fiber.Map{
				"code":    common.StatusServiceUnavailable,
				"message": "Hệ thống đang gặp sự cố",
				"data":    healthData,
				"status":  "error",
			})
		}
		healthData["services"].(fiber.Map)["database"] = "ok"
	} else {
		healthData["status"] = "degraded"
		healthData["services"].(fiber.Map)["database"] = "not_initialized"
	}

	// Mọi thứ ổn: envelope chung như các endpoint khác
	return c.Status(common.StatusOK).JSON(fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    healthData,
		"status":  "success",
	})
}

