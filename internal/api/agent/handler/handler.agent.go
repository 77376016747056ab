package agenthdl

import (
	"fmt"

	agentdto "bid_flow/internal/api/agent/dto"
	agentmodels "bid_flow/internal/api/agent/models"
	agentsvc "bid_flow/internal/api/agent/service"
	basehdl "bid_flow/internal/api/base/handler"
	"bid_flow/internal/common"
	"bid_flow/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// AutomationAgentHandler xử lý các route CRUD và nghiệp vụ cho automation agent
type AutomationAgentHandler struct {
	*basehdl.BaseHandler[agentmodels.AutomationAgent, agentdto.AgentCreateInput, agentdto.AgentUpdateInput]
	agentService *agentsvc.AutomationAgentService
}

// NewAutomationAgentHandler tạo mới AutomationAgentHandler
func NewAutomationAgentHandler() (*AutomationAgentHandler, error) {
	agentService, err := agentsvc.NewAutomationAgentService()
	if err != nil {
		return nil, fmt.Errorf("failed to create automation agent service: %w", err)
	}
	return &AutomationAgentHandler{
		BaseHandler:  basehdl.NewBaseHandler[agentmodels.AutomationAgent, agentdto.AgentCreateInput, agentdto.AgentUpdateInput](agentService.BaseServiceMongoImpl),
		agentService: agentService,
	}, nil
}

// HandleRegister xử lý đăng ký agent và cấp JWT token.
// Chỉ ops được gọi endpoint này - token trả về được cấp cho bot khi provision.
func (h *AutomationAgentHandler) HandleRegister(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input agentdto.AgentRegisterInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		log := logger.GetAppLogger()
		log.WithFields(map[string]interface{}{
			"agentId": input.AgentID,
		}).Info("🤖 [AGENT] Nhận đăng ký agent")

		agent, err := h.agentService.Register(c.Context(), &input)
		if err != nil {
			log.WithError(err).WithField("agentId", input.AgentID).Error("🤖 [AGENT] Lỗi khi đăng ký agent")
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, agent, nil)
		return nil
	})
}

// HandleCheckIn xử lý check-in định kỳ từ agent (status, health, metrics)
func (h *AutomationAgentHandler) HandleCheckIn(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var checkInData map[string]interface{}
		if err := c.Bind().Body(&checkInData); err != nil {
			c.Status(common.StatusBadRequest).JSON(fiber.Map{
				"code":    common.ErrCodeValidationFormat.Code,
				"message": "Dữ liệu gửi lên không đúng định dạng JSON",
				"status":  "error",
			})
			return nil
		}

		agentId, ok := checkInData["agentId"].(string)
		if !ok || agentId == "" {
			c.Status(common.StatusBadRequest).JSON(fiber.Map{
				"code":    common.ErrCodeValidationInput.Code,
				"message": "agentId là bắt buộc và phải là string",
				"status":  "error",
			})
			return nil
		}

		log := logger.GetAppLogger()
		log.WithFields(map[string]interface{}{
			"agentId": agentId,
		}).Info("🤖 [AGENT] Nhận check-in từ agent")

		response, err := h.agentService.HandleCheckIn(c.Context(), agentId, checkInData)
		if err != nil {
			log.WithError(err).WithField("agentId", agentId).Error("🤖 [AGENT] Lỗi khi xử lý check-in")
			c.Status(common.StatusInternalServerError).JSON(fiber.Map{
				"code":    common.ErrCodeBusinessOperation.Code,
				"message": fmt.Sprintf("Không thể xử lý check-in: %v", err),
				"status":  "error",
			})
			return nil
		}

		c.Status(common.StatusOK).JSON(fiber.Map{
			"code":    common.StatusOK,
			"message": "Check-in thành công",
			"data":    response,
			"status":  "success",
		})
		return nil
	})
}
