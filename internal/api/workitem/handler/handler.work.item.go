package workitemhdl

import (
	"fmt"

	basehdl "bid_flow/internal/api/base/handler"
	workitemdto "bid_flow/internal/api/workitem/dto"
	workitemmodels "bid_flow/internal/api/workitem/models"
	workitemsvc "bid_flow/internal/api/workitem/service"
	"bid_flow/internal/common"
	"bid_flow/internal/logger"
	"bid_flow/internal/secure"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkItemHandler xử lý các route CRUD và agent-facing cho work item
type WorkItemHandler struct {
	*basehdl.BaseHandler[workitemmodels.WorkItem, workitemdto.WorkItemCreateInput, workitemdto.WorkItemUpdateInput]
	WorkItemService *workitemsvc.WorkItemService
}

// NewWorkItemHandler tạo mới WorkItemHandler
func NewWorkItemHandler() (*WorkItemHandler, error) {
	workItemService, err := workitemsvc.NewWorkItemService()
	if err != nil {
		return nil, fmt.Errorf("failed to create work item service: %w", err)
	}
	hdl := &WorkItemHandler{WorkItemService: workItemService}
	hdl.BaseHandler = basehdl.NewBaseHandler[workitemmodels.WorkItem, workitemdto.WorkItemCreateInput, workitemdto.WorkItemUpdateInput](workItemService.BaseServiceMongoImpl)
	return hdl, nil
}

// ClaimPending claim các work items đang chờ (pending) với atomic operation
func (h *WorkItemHandler) ClaimPending(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input workitemdto.WorkItemClaimInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		claimed, err := h.WorkItemService.ClaimPending(c.Context(), input.AgentID, input.TaskTypes, input.Limit)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi khi claim work items: %v", err),
				common.StatusInternalServerError,
				err,
			))
			return nil
		}

		// Credentials chỉ plaintext trong response claim; database giữ blob mã hóa
		for i := range claimed {
			if claimed[i].InputPayload != nil {
				claimed[i].InputPayload = secure.RevealInPayload(claimed[i].InputPayload)
			}
		}

		if len(claimed) > 0 {
			logger.GetAppLogger().WithFields(map[string]interface{}{
				"agentId": input.AgentID,
				"claimed": len(claimed),
			}).Info("🧰 [WORKITEM] Agent đã claim work items")
		}

		h.HandleResponse(c, claimed, nil)
		return nil
	})
}

// ReportResult nhận báo cáo kết quả thực thi work item từ agent
func (h *WorkItemHandler) ReportResult(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params workitemdto.WorkItemIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			params.WorkItemID = ""
		}

		var input workitemdto.WorkItemReportInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var workItemID primitive.ObjectID
		if params.WorkItemID != "" {
			workItemID, _ = primitive.ObjectIDFromHex(params.WorkItemID)
		} else if input.WorkItemID != "" {
			workItemID, _ = primitive.ObjectIDFromHex(input.WorkItemID)
		}

		if workItemID.IsZero() {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				"workItemId là bắt buộc (có thể truyền qua URL params :workItemId hoặc body JSON {\"workItemId\": \"...\"})",
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		logger.GetAppLogger().WithFields(map[string]interface{}{
			"workItemId": workItemID.Hex(),
			"agentId":    input.AgentID,
			"status":     input.Status,
		}).Info("🧰 [WORKITEM] Nhận báo cáo kết quả từ agent")

		updated, err := h.WorkItemService.ReportResult(c.Context(), workItemID, input.AgentID, input.Status, input.Result, input.Error)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeBusinessOperation,
				fmt.Sprintf("Lỗi khi báo cáo kết quả work item: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		h.HandleResponse(c, updated, nil)
		return nil
	})
}

// UpdateHeartbeat cập nhật heartbeat và progress của work item
func (h *WorkItemHandler) UpdateHeartbeat(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params workitemdto.WorkItemIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			params.WorkItemID = ""
		}

		var input workitemdto.WorkItemHeartbeatInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var workItemID primitive.ObjectID
		if params.WorkItemID != "" {
			workItemID, _ = primitive.ObjectIDFromHex(params.WorkItemID)
		} else if input.WorkItemID != "" {
			workItemID, _ = primitive.ObjectIDFromHex(input.WorkItemID)
		}

		if workItemID.IsZero() {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				"workItemId là bắt buộc (có thể truyền qua URL params :workItemId hoặc body JSON {\"workItemId\": \"...\"})",
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		agentId := c.Query("agentId", "")
		if agentId == "" {
			agentId = c.Get("X-Agent-ID", "")
		}
		if agentId == "" {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				"agentId là bắt buộc (có thể truyền qua query parameter ?agentId=... hoặc header X-Agent-ID)",
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		updated, err := h.WorkItemService.UpdateHeartbeat(c.Context(), workItemID, agentId, input.Progress)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeBusinessOperation,
				fmt.Sprintf("Lỗi khi update heartbeat: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		h.HandleResponse(c, updated, nil)
		return nil
	})
}

// ReleaseStuck giải phóng các work items bị kẹt (ops gọi thủ công,
// worker nền cũng chạy định kỳ cùng logic)
func (h *WorkItemHandler) ReleaseStuck(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var query workitemdto.ReleaseStuckQuery
		if err := h.ParseQueryParams(c, &query); err != nil {
			query.TimeoutSeconds = 300
		}

		timeoutSeconds := query.TimeoutSeconds
		if timeoutSeconds < 60 {
			timeoutSeconds = 300
		}

		releasedCount, err := h.WorkItemService.ReleaseStuck(c.Context(), timeoutSeconds)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi khi release stuck work items: %v", err),
				common.StatusInternalServerError,
				err,
			))
			return nil
		}

		h.HandleResponse(c, map[string]interface{}{
			"releasedCount":  releasedCount,
			"timeoutSeconds": timeoutSeconds,
			"message":        fmt.Sprintf("Đã giải phóng %d work items bị kẹt", releasedCount),
		}, nil)
		return nil
	})
}
