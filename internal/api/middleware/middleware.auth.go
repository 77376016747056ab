package middleware

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	agentmodels "bid_flow/internal/api/agent/models"
	agentsvc "bid_flow/internal/api/agent/service"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"
	"bid_flow/internal/utility"
)

// AuthManager quản lý xác thực và phân quyền cho API.
// Hai loại caller: ops (token tĩnh, toàn quyền) và agent (JWT, quyền giới hạn).
type AuthManager struct {
	AgentCRUD *agentsvc.AutomationAgentService
	Cache     *utility.Cache
}

var (
	authManagerInstance *AuthManager
	authManagerOnce     sync.Once
)

// GetAuthManager trả về instance duy nhất của AuthManager (singleton pattern)
func GetAuthManager() *AuthManager {
	authManagerOnce.Do(func() {
		var err error
		authManagerInstance, err = newAuthManager()
		if err != nil {
			panic(err)
		}
	})
	return authManagerInstance
}

// newAuthManager khởi tạo một instance mới của AuthManager (private constructor)
func newAuthManager() (*AuthManager, error) {
	newManager := new(AuthManager)

	agentService, err := agentsvc.NewAutomationAgentService()
	if err != nil {
		return nil, fmt.Errorf("failed to create automation agent service: %v", err)
	}
	newManager.AgentCRUD = agentService

	// Khởi tạo cache với thời gian sống 5 phút và thời gian dọn dẹp 10 phút
	newManager.Cache = utility.NewCache(5*time.Minute, 10*time.Minute)

	return newManager, nil
}

// agentPermissions là allow-set cố định cho agent.
// Agent chỉ được claim/báo cáo work item và tự quản lý check-in của mình;
// mọi endpoint khác yêu cầu ops token.
var agentPermissions = map[string]bool{
	"WorkItem.Read":           true,
	"WorkItem.Update":         true,
	"AutomationAgent.Read":    true,
	"AutomationAgent.CheckIn": true,
}

// AuthMiddleware middleware xác thực cho Fiber.
// requirePermission rỗng nghĩa là endpoint chỉ cần xác thực, không cần quyền cụ thể.
func AuthMiddleware(requirePermission string) fiber.Handler {
	// Sử dụng singleton instance của AuthManager
	authManager := GetAuthManager()

	return func(c fiber.Ctx) error {
		// Lấy token từ header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			// Chỉ log khi thiếu token (lỗi quan trọng)
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Missing Authorization header")
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		// Kiểm tra định dạng token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		token := parts[1]

		// Ops token tĩnh: toàn quyền API, không cần tra cứu database
		if opsToken := global.MongoDB_ServerConfig.OpsToken; opsToken != "" && token == opsToken {
			c.Locals("caller_type", agentsvc.CallerTypeOps)
			if requirePermission != "" {
				c.Locals("permission_name", requirePermission)
			}
			return c.Next()
		}

		// Agent token: kiểm tra chữ ký JWT trước khi tra cứu database
		if _, err := utility.ParseToken(global.MongoDB_ServerConfig.JwtSecret, token); err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path": c.Path(),
			}).Warn("❌ [AUTH] Invalid token signature")
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		// Tra cứu agent theo token (field "token" được cập nhật mỗi lần register)
		// Cache 5 phút để giảm tải database cho các agent heartbeat liên tục
		cacheKey := "agent_token:" + token
		var agent agentmodels.AutomationAgent
		if cached, found := authManager.Cache.Get(cacheKey); found {
			agent = cached.(agentmodels.AutomationAgent)
		} else {
			var err error
			agent, err = authManager.AgentCRUD.FindOne(context.Background(), bson.M{"token": token}, nil)
			if err != nil {
				// Chỉ log khi không tìm thấy token (lỗi quan trọng)
				logger.GetAppLogger().WithFields(logrus.Fields{
					"path":  c.Path(),
					"error": err.Error(),
				}).Warn("❌ [AUTH] Token not found in database")
				HandleErrorResponse(c, common.ErrTokenInvalid)
				return nil
			}
			authManager.Cache.Set(cacheKey, agent)
		}

		// Kiểm tra agent có bị khóa không
		if agent.IsBlock {
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeAuthAgent,
				"Agent đã bị khóa: "+agent.BlockNote,
				common.StatusForbidden,
				nil,
			))
			return nil
		}

		// Lưu thông tin agent vào context
		c.Locals("caller_type", agentsvc.CallerTypeAgent)
		c.Locals("agent_id", agent.ID.Hex())
		c.Locals("agent", agent)

		// Nếu không yêu cầu permission cụ thể, cho phép truy cập NGAY
		// Đây là endpoint đặc biệt như /system/health - chỉ cần xác thực, không cần permission
		if requirePermission == "" {
			return c.Next()
		}

		// Agent chỉ được truy cập các endpoint trong allow-set
		if !agentPermissions[requirePermission] {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"agent_id":            agent.ID.Hex(),
				"agent_code":          agent.AgentID,
				"required_permission": requirePermission,
				"path":                c.Path(),
			}).Warn("❌ [AUTH] Agent does not have required permission")
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeAuthAgent,
				"Agent không có quyền truy cập endpoint này. Thao tác quản trị yêu cầu ops token.",
				common.StatusForbidden,
				nil,
			))
			return nil
		}

		// Lưu permission name vào context để handler sử dụng
		c.Locals("permission_name", requirePermission)
		return c.Next()
	}
}
