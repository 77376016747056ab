package main

import (
	"fmt"
	"strings"
	"time"

	agentrouter "bid_flow/internal/api/agent/router"
	auditrouter "bid_flow/internal/api/audit/router"
	portalrouter "bid_flow/internal/api/portal/router"
	proposalrouter "bid_flow/internal/api/proposal/router"
	rfprouter "bid_flow/internal/api/rfp/router"
	apirouter "bid_flow/internal/api/router"
	submissionrouter "bid_flow/internal/api/submission/router"
	workitemrouter "bid_flow/internal/api/workitem/router"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// InitFiberApp dựng app Fiber: config server, error handler và chuỗi middleware dùng chung.
func InitFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		// =========================================
		// 1. CẤU HÌNH CƠ BẢN
		// =========================================
		AppName:       "BidFlow API", // Tên hiện trong banner và log
		ServerHeader:  "BidFlow API", // Header Server trả về client
		StrictRouting: true,          // Phân biệt /foo với /foo/
		CaseSensitive: true,          // Phân biệt hoa thường trong path
		UnescapePath:  true,          // Decode sẵn path bị URL-encode
		Immutable:     false,         // Không copy buffer của ctx, giữ mặc định cho nhanh

		// =========================================
		// 2. CẤU HÌNH PERFORMANCE
		// =========================================
		BodyLimit:       10 * 1024 * 1024, // Trần body 10MB, đủ cho payload tài liệu thầu
		Concurrency:     256 * 1024,       // Trần kết nối xử lý đồng thời
		ReadBufferSize:  4096,             // Buffer đọc request
		WriteBufferSize: 4096,             // Buffer ghi response

		// =========================================
		// 3. CẤU HÌNH TIMEOUT
		// =========================================
		ReadTimeout:  15 * time.Second,  // Quá 15s chưa đọc xong request là cắt
		WriteTimeout: 30 * time.Second,  // Trần thời gian ghi response
		IdleTimeout:  120 * time.Second, // Kết nối keep-alive rảnh quá 2 phút thì đóng

		// =========================================
		// 4. CẤU HÌNH ERROR HANDLING
		// =========================================
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"
			errorCode := common.ErrCodeInternalServer.Code

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
				// Đổi HTTP status về mã lỗi nội bộ
				switch code {
				case fiber.StatusBadRequest:
					errorCode = common.ErrCodeValidationInput.Code
				case fiber.StatusUnauthorized:
					errorCode = common.ErrCodeAuthToken.Code
				case fiber.StatusForbidden:
					errorCode = common.ErrCodeAuthAgent.Code
				case fiber.StatusNotFound:
					errorCode = common.ErrCodeDatabaseQuery.Code
				case fiber.StatusConflict:
					errorCode = common.ErrCodeDatabaseQuery.Code
				}
			}

			// Client gọi https:// vào server HTTP: fasthttp đọc phải record TLS
			// và báo method lạ. ClientHello mở đầu bằng 0x16 0x03 0x01.
			errMsg := err.Error()
			isTLSHandshake := strings.Contains(errMsg, "unsupported http request method") &&
				(strings.Contains(errMsg, "\\x16\\x03\\x01") ||
					strings.Contains(errMsg, "\x16\x03\x01") ||
					strings.Contains(errMsg, "error when reading request headers"))

			// Nhánh này không coi là lỗi hệ thống
			if isTLSHandshake {
				// Không ghi log: client cấu hình nhầm URL là chuyện thường gặp

				// Báo 400 kèm hướng dẫn đổi sang http://
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"code":    common.ErrCodeValidationInput.Code,
					"message": "Server chỉ hỗ trợ HTTP. Vui lòng sử dụng http:// thay vì https://",
					"status":  "error",
					"details": fiber.Map{
						"protocol":   "HTTP only",
						"suggestion": "Sử dụng URL: http://localhost:" + global.MongoDB_ServerConfig.Address,
					},
				})
			}

			// Các lỗi còn lại ghi log đầy đủ
			logger.WithRequest(c).WithFields(map[string]interface{}{
				"code":      code,
				"errorCode": errorCode,
				"message":   message,
			}).Error("Request error")

			// Body lỗi theo format chung của API
			return c.Status(code).JSON(fiber.Map{
				"code":    errorCode,
				"message": message,
				"status":  "error",
			})
		},
	})

	// =========================================
	// MIDDLEWARE STACK
	// =========================================

	// 1. Request ID Middleware - mỗi request một mã để lần theo log
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return fmt.Sprintf("%d", time.Now().UnixNano())
		},
	}))

	// 2. CORS Middleware - PHẢI ĐẶT Ở ĐẦU để xử lý preflight requests trước các middleware khác
	corsOrigins := global.MongoDB_ServerConfig.CORS_Origins
	var allowOrigins []string
	if corsOrigins == "*" {
		// "*" dành cho môi trường dev, mở hết
		allowOrigins = []string{"*"}
	} else {
		// Production liệt kê origin cụ thể, cách nhau dấu phẩy
		allowOrigins = strings.Split(corsOrigins, ",")
		// Người cấu hình hay để khoảng trắng sau dấu phẩy
		for i, origin := range allowOrigins {
			allowOrigins[i] = strings.TrimSpace(origin)
		}
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
			"X-Requested-With",
		},
		AllowCredentials: global.MongoDB_ServerConfig.CORS_AllowCredentials,
		ExposeHeaders:    []string{"Content-Length", "Content-Range", "X-Request-ID"},
		MaxAge:           24 * 60 * 60, // Browser cache kết quả preflight 24 giờ
		// OPTIONS được Fiber v3 tự trả 204, không cần handler riêng
	}))

	// 3. Security Headers Middleware - Thêm các security headers
	app.Use(func(c fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// HSTS chỉ bật khi chạy sau TLS termination
		// c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		return c.Next()
	})

	// 4. Rate Limiting Middleware - tùy chọn, bật qua config và Max phải dương
	if global.MongoDB_ServerConfig.RateLimit_Enabled && global.MongoDB_ServerConfig.RateLimit_Max > 0 {
		rateLimitMax := global.MongoDB_ServerConfig.RateLimit_Max
		rateLimitWindow := time.Duration(global.MongoDB_ServerConfig.RateLimit_Window) * time.Second
		app.Use(limiter.New(limiter.Config{
			Max:        rateLimitMax,
			Expiration: rateLimitWindow,
			KeyGenerator: func(c fiber.Ctx) string {
				return c.IP() // Đếm quota theo IP nguồn
			},
			LimitReached: func(c fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"code":    common.ErrCodeBusinessOperation.Code,
					"message": "Quá nhiều yêu cầu, vui lòng thử lại sau",
					"status":  "error",
				})
			},
			SkipFailedRequests:     false,
			SkipSuccessfulRequests: false,
			Next: func(c fiber.Ctx) bool {
				// Health check và preflight không tính vào quota
				return c.Path() == "/health" ||
					c.Path() == "/api/v1/system/health" ||
					c.Method() == "OPTIONS"
			},
		}))
		log := logger.GetAppLogger()
		log.Infof("Rate limiting enabled: %d requests per %d seconds", rateLimitMax, global.MongoDB_ServerConfig.RateLimit_Window)
	} else {
		log := logger.GetAppLogger()
		log.Info("Rate limiting disabled")
	}

	// 5. Recover Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Panic ghi đủ ngữ cảnh request để dựng lại được lỗi
			logger.WithRequest(c).WithFields(map[string]interface{}{
				"panic":   e,
				"headers": c.GetReqHeaders(),
				"body":    string(c.Body()),
			}).Error("Panic recovered")

			// Response 500 theo format chung
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"code":    fiber.StatusInternalServerError,
				"message": "Internal Server Error",
				"error":   fmt.Sprintf("%v", e),
				"time":    time.Now().Format(time.RFC3339),
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Bỏ qua health check
			return c.Path() == "/health" ||
				c.Path() == "/api/v1/system/health"
		},
	}))

	// 6. Logger middleware của Fiber: không bật. Log mỗi request một dòng chỉ
	// gây nhiễu, lỗi đã có error handler ghi, truy vết thì bám theo X-Request-ID.

	// Khởi tạo routes: truyền Register của từng domain để tránh import cycle
	if err := apirouter.SetupRoutes(app,
		agentrouter.Register,
		auditrouter.Register,
		portalrouter.Register,
		proposalrouter.Register,
		rfprouter.Register,
		submissionrouter.Register,
		workitemrouter.Register,
	); err != nil {
		logger.GetAppLogger().Fatalf("Failed to setup routes: %v", err)
	}

	return app
}
