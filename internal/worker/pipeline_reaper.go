package worker

import (
	"context"
	"time"

	"bid_flow/internal/logger"
	"bid_flow/internal/pipeline"
)

// PipelineReaperWorker dọn các pipeline mồ côi: bản durable trong MongoDB còn
// ở trạng thái chạy dở nhưng process hiện tại không quản lý (server restart
// giữa chừng). Registry in-memory là nguồn thẩm quyền nên các pipeline này
// không thể tiếp tục - reaper đánh dấu failed rõ ràng để ops khởi động lại.
type PipelineReaperWorker struct {
	orchestrator *pipeline.Orchestrator
	interval     time.Duration
}

// NewPipelineReaperWorker tạo mới PipelineReaperWorker
func NewPipelineReaperWorker(interval time.Duration) (*PipelineReaperWorker, error) {
	orchestrator, err := pipeline.GetOrchestrator()
	if err != nil {
		return nil, err
	}

	if interval < 30*time.Second {
		interval = 5 * time.Minute
	}

	return &PipelineReaperWorker{
		orchestrator: orchestrator,
		interval:     interval,
	}, nil
}

// Start chạy reaper định kỳ cho đến khi ctx bị hủy. Lần quét đầu chạy ngay
// khi khởi động để dọn hậu quả của lần restart vừa rồi.
func (w *PipelineReaperWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🔄 [PIPELINE_REAPER] Starting Pipeline Reaper Worker...")

	w.reap(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("🔄 [PIPELINE_REAPER] Pipeline Reaper Worker stopped")
			return
		case <-ticker.C:
			w.reap(ctx)
		}
	}
}

// reap một lượt quét, panic được recover để worker sống qua lỗi bất ngờ
func (w *PipelineReaperWorker) reap(ctx context.Context) {
	log := logger.GetAppLogger()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("🔄 [PIPELINE_REAPER] Panic khi reap pipeline mồ côi, sẽ tiếp tục ở lần chạy tiếp theo")
		}
	}()

	reaped, err := w.orchestrator.ReapOrphaned(ctx)
	if err != nil {
		log.WithError(err).Error("🔄 [PIPELINE_REAPER] Failed to reap orphaned pipelines")
		return
	}
	if reaped > 0 {
		log.WithFields(map[string]interface{}{
			"reapedCount": reaped,
		}).Warn("🔄 [PIPELINE_REAPER] Đã dọn pipeline mồ côi")
	}
}
