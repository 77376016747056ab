package basehdl

import (
	"errors"
	"fmt"
	"runtime/debug"

	"bid_flow/internal/common"

	"github.com/gofiber/fiber/v3"
)

// JSONResponse gói c.JSON kèm Content-Type application/json; charset=utf-8.
// Thiếu charset thì tiếng Việt trong message dễ vỡ ở một số client.
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	// Header phải set trước khi ghi body
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// SafeHandler chạy handler trong recover: handler panic thì client vẫn nhận
// được body lỗi 500 thay vì bị đứt kết nối.
//
// Parameters:
// - c: Fiber context
// - handler: Phần xử lý chính của endpoint
func (h *BaseHandler[T, CreateInput, UpdateInput]) SafeHandler(c fiber.Ctx, handler func() error) error {
	defer func() {
		if r := recover(); r != nil {
			// In stack để còn truy ngược chỗ panic
			debug.PrintStack()

			// Client vẫn nhận body lỗi chuẩn
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return handler()
}

// SafeHandlerWrapper là biến thể hàm rời cho domain handler không embed BaseHandler.
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	return nil
}

// HandleResponse dựng body trả về theo envelope chung: success bọc data,
// error lấy code/message/details từ common.Error.
//
// Parameters:
// - c: Fiber context
// - data: Payload khi thành công, nil nếu chỉ báo lỗi
// - err: Lỗi của thao tác, nil khi thành công
func (h *BaseHandler[T, CreateInput, UpdateInput]) HandleResponse(c fiber.Ctx, data interface{}, err error) {
	if err != nil {
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
		// Lỗi trần (không phải common.Error): quy hết về 500
		JSONResponse(c, common.StatusInternalServerError, fiber.Map{
			"code":    common.ErrCodeDatabase.Code,
			"message": err.Error(),
			"status":  "error",
		})
		return
	}

	// Thành công: bọc data theo envelope chung
	JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}
