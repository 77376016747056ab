package middleware

import (
	"errors"

	"bid_flow/internal/common"

	"github.com/gofiber/fiber/v3"
)

// JSONResponse gói c.JSON kèm Content-Type application/json; charset=utf-8,
// cùng hành vi với bản bên basehdl nhưng nằm ở đây cho middleware dùng.
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	// Header phải set trước khi ghi body
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// HandleErrorResponse dựng body lỗi cho middleware.
// Không gọi sang basehdl được vì sẽ tạo import cycle.
func HandleErrorResponse(c fiber.Ctx, err error) {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		JSONResponse(c, customErr.StatusCode, fiber.Map{
			"code":    customErr.Code.Code,
			"message": customErr.Message,
			"details": customErr.Details,
			"status":  "error",
		})
		return
	}
	// Lỗi trần quy hết về 500
	JSONResponse(c, common.StatusInternalServerError, fiber.Map{
		"code":    common.ErrCodeDatabase.Code,
		"message": err.Error(),
		"status":  "error",
	})
}
