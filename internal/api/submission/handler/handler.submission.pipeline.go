package submissionhdl

import (
	"fmt"

	basehdl "bid_flow/internal/api/base/handler"
	submissiondto "bid_flow/internal/api/submission/dto"
	submissionmodels "bid_flow/internal/api/submission/models"
	submissionsvc "bid_flow/internal/api/submission/service"
	"bid_flow/internal/common"
	"bid_flow/internal/logger"
	"bid_flow/internal/pipeline"

	"github.com/gofiber/fiber/v3"
)

// SubmissionPipelineHandler xử lý các endpoint điều khiển pipeline nộp thầu.
// Mọi thao tác ghi đi qua orchestrator; base handler chỉ phục vụ route đọc
// trên bản mirror MongoDB của pipeline (lịch sử, filter, pagination).
type SubmissionPipelineHandler struct {
	*basehdl.BaseHandler[submissionmodels.SubmissionPipeline, submissiondto.PipelineRecordCreateInput, submissiondto.PipelineRecordUpdateInput]
	orchestrator *pipeline.Orchestrator
	eventService *submissionsvc.SubmissionEventService
}

// NewSubmissionPipelineHandler tạo mới SubmissionPipelineHandler
func NewSubmissionPipelineHandler() (*SubmissionPipelineHandler, error) {
	orchestrator, err := pipeline.GetOrchestrator()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline orchestrator: %w", err)
	}
	pipelineService, err := submissionsvc.NewSubmissionPipelineService()
	if err != nil {
		return nil, fmt.Errorf("failed to create submission pipeline service: %w", err)
	}
	eventService, err := submissionsvc.NewSubmissionEventService()
	if err != nil {
		return nil, fmt.Errorf("failed to create submission event service: %w", err)
	}
	return &SubmissionPipelineHandler{
		BaseHandler:  basehdl.NewBaseHandler[submissionmodels.SubmissionPipeline, submissiondto.PipelineRecordCreateInput, submissiondto.PipelineRecordUpdateInput](pipelineService.BaseServiceMongoImpl),
		orchestrator: orchestrator,
		eventService: eventService,
	}, nil
}

// Initiate khởi động pipeline nộp thầu cho một submission
func (h *SubmissionPipelineHandler) Initiate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input submissiondto.PipelineInitiateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.orchestrator.Initiate(c.Context(), &input)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, result, nil)
		return nil
	})
}

// GetStatus trả về trạng thái hiện tại của pipeline (in-memory nếu đang chạy,
// bản mirror MongoDB với pipeline lịch sử)
func (h *SubmissionPipelineHandler) GetStatus(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params submissiondto.PipelineIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		snapshot, err := h.orchestrator.GetStatus(c.Context(), params.PipelineID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, snapshot, nil)
		return nil
	})
}

// GetTimeline trả về event stream của pipeline theo thứ tự thời gian
func (h *SubmissionPipelineHandler) GetTimeline(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params submissiondto.PipelineIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Xác nhận pipeline tồn tại để trả 404 thay vì timeline rỗng
		if _, err := h.orchestrator.GetStatus(c.Context(), params.PipelineID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		events, err := h.eventService.FindTimelineByPipelineID(c.Context(), params.PipelineID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, events, nil)
		return nil
	})
}

// ListActive trả về snapshot của tất cả pipeline đang chạy trong registry
func (h *SubmissionPipelineHandler) ListActive(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		h.HandleResponse(c, h.orchestrator.ActiveList(), nil)
		return nil
	})
}

// Cancel hủy pipeline đang chạy. Idempotent: pipeline đã kết thúc trả về
// cancelled=false thay vì lỗi.
func (h *SubmissionPipelineHandler) Cancel(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params submissiondto.PipelineIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Body là optional: cancel không cần reason
		var input submissiondto.PipelineCancelInput
		if len(c.Body()) > 0 {
			if err := h.ParseRequestBody(c, &input); err != nil {
				h.HandleResponse(c, nil, err)
				return nil
			}
		}

		cancelled, err := h.orchestrator.Cancel(c.Context(), params.PipelineID, input.Reason)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.GetAppLogger().WithFields(map[string]interface{}{
			"pipelineId": params.PipelineID,
			"cancelled":  cancelled,
		}).Info("🚀 [PIPELINE] Nhận yêu cầu hủy pipeline")

		h.HandleResponse(c, fiber.Map{
			"pipelineId": params.PipelineID,
			"cancelled":  cancelled,
		}, nil)
		return nil
	})
}

// Suspend tạm dừng pipeline đang chạy
func (h *SubmissionPipelineHandler) Suspend(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params submissiondto.PipelineIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := h.orchestrator.Suspend(c.Context(), params.PipelineID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		snapshot, err := h.orchestrator.GetStatus(c.Context(), params.PipelineID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, snapshot, nil)
		return nil
	})
}

// Resume tiếp tục pipeline đã tạm dừng
func (h *SubmissionPipelineHandler) Resume(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params submissiondto.PipelineIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := h.orchestrator.Resume(c.Context(), params.PipelineID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		snapshot, err := h.orchestrator.GetStatus(c.Context(), params.PipelineID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, snapshot, nil)
		return nil
	})
}

// ForceAdvance chốt các work item của phase hiện tại và đẩy pipeline sang
// phase kế tiếp. Thao tác ops can thiệp khi phase bị kẹt; nextPhase bắt buộc
// là phase kế tiếp trong thứ tự chuẩn.
func (h *SubmissionPipelineHandler) ForceAdvance(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var params submissiondto.PipelineIDParams
		if err := h.ParseRequestParams(c, &params); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input submissiondto.PipelineForceAdvanceInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.GetAppLogger().WithFields(map[string]interface{}{
			"pipelineId": params.PipelineID,
			"nextPhase":  input.NextPhase,
			"workItems":  len(input.WorkItemIDs),
		}).Warn("🚀 [PIPELINE] Ops force-advance pipeline")

		if err := h.orchestrator.HandlePhaseCompletion(c.Context(), params.PipelineID, input.WorkItemIDs, input.NextPhase); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		snapshot, err := h.orchestrator.GetStatus(c.Context(), params.PipelineID)
		if err != nil {
			// Force-advance qua phase cuối có thể hoàn tất pipeline và gỡ khỏi
			// registry; bản mirror vẫn phải tồn tại nên lỗi ở đây là bất thường
			if err == common.ErrPipelineNotFound {
				h.HandleResponse(c, fiber.Map{
					"pipelineId": params.PipelineID,
					"advanced":   true,
				}, nil)
				return nil
			}
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, snapshot, nil)
		return nil
	})
}
