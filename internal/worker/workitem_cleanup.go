package worker

import (
	"context"
	"time"

	workitemsvc "bid_flow/internal/api/workitem/service"
	"bid_flow/internal/logger"
)

// WorkItemCleanupWorker tự động giải phóng các work item bị stuck: agent đã
// claim nhưng chết giữa chừng (mất heartbeat quá lâu). Item được trả về
// pending để agent khác claim lại.
type WorkItemCleanupWorker struct {
	workItemService *workitemsvc.WorkItemService
	interval        time.Duration // Khoảng thời gian giữa các lần chạy
	timeoutSeconds  int64         // Timeout để coi work item là stuck (giây)
}

// NewWorkItemCleanupWorker tạo mới WorkItemCleanupWorker
func NewWorkItemCleanupWorker(interval time.Duration, timeoutSeconds int64) (*WorkItemCleanupWorker, error) {
	workItemService, err := workitemsvc.NewWorkItemService()
	if err != nil {
		return nil, err
	}

	if interval < 30*time.Second {
		interval = 1 * time.Minute
	}
	if timeoutSeconds < 60 {
		timeoutSeconds = 300
	}

	return &WorkItemCleanupWorker{
		workItemService: workItemService,
		interval:        interval,
		timeoutSeconds:  timeoutSeconds,
	}, nil
}

// Start chạy worker định kỳ cho đến khi ctx bị hủy
func (w *WorkItemCleanupWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":       w.interval.String(),
		"timeoutSeconds": w.timeoutSeconds,
	}).Info("🔄 [WORKITEM_CLEANUP] Starting Work Item Cleanup Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔄 [WORKITEM_CLEANUP] Work Item Cleanup Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔄 [WORKITEM_CLEANUP] Panic khi release stuck work items, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				releasedCount, err := w.workItemService.ReleaseStuck(ctx, w.timeoutSeconds)
				if err != nil {
					log.WithError(err).Error("🔄 [WORKITEM_CLEANUP] Failed to release stuck work items")
					return
				}

				if releasedCount > 0 {
					log.WithFields(map[string]interface{}{
						"releasedCount":  releasedCount,
						"timeoutSeconds": w.timeoutSeconds,
					}).Info("🔄 [WORKITEM_CLEANUP] Released stuck work items")
				}
				// releasedCount = 0 thì không log (giảm log noise)
			}()
		}
	}
}
