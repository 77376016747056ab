package notification

import (
	"context"
	"fmt"
	"math"
	"time"

	"bid_flow/config"
	notifmodels "bid_flow/internal/api/notification/models"
	notificationsvc "bid_flow/internal/api/notification/service"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"
	"bid_flow/internal/notification/channels"
)

// Processor là background worker gửi các thông báo trong queue.
// Chỉ lo việc gửi (như "bưu điện"): nội dung đã được Notifier render sẵn.
type Processor struct {
	queue     *notificationsvc.NotificationQueueService
	interval  time.Duration
	batchSize int64
}

// NewProcessor tạo mới Processor với interval/batch size từ server config
func NewProcessor() (*Processor, error) {
	queueService, err := notificationsvc.NewNotificationQueueService()
	if err != nil {
		return nil, fmt.Errorf("failed to create notification queue service: %w", err)
	}

	interval := 5 * time.Second
	batchSize := int64(10)
	if cfg := global.MongoDB_ServerConfig; cfg != nil {
		if cfg.Notify_IntervalSec > 0 {
			interval = time.Duration(cfg.Notify_IntervalSec) * time.Second
		}
		if cfg.Notify_BatchSize > 0 {
			batchSize = int64(cfg.Notify_BatchSize)
		}
	}

	return &Processor{
		queue:     queueService,
		interval:  interval,
		batchSize: batchSize,
	}, nil
}

// Start chạy vòng lặp xử lý queue cho đến khi ctx bị hủy. Panic trong vòng
// lặp được recover và worker tự khởi động lại sau delay tăng dần.
func (p *Processor) Start(ctx context.Context) {
	maxRetryDelay := 60 * time.Second
	retryDelay := 5 * time.Second

	p.startCleanupJob(ctx)

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.GetAppLogger().WithFields(map[string]interface{}{
						"panic": r,
					}).Error("🔔 [NOTIFY] Processor panic, sẽ tự khởi động lại sau khi delay")
					time.Sleep(retryDelay)
					retryDelay *= 2
					if retryDelay > maxRetryDelay {
						retryDelay = maxRetryDelay
					}
				} else {
					retryDelay = 5 * time.Second
				}
			}()

			ticker := time.NewTicker(p.interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.processBatch(ctx)
				}
			}
		}()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// processBatch lấy một batch item đến hạn và gửi từng item
func (p *Processor) processBatch(ctx context.Context) {
	log := logger.GetAppLogger()

	items, err := p.queue.FindDue(ctx, p.batchSize)
	if err != nil {
		log.WithError(err).Error("🔔 [NOTIFY] Không đọc được notification queue")
		return
	}
	if len(items) == 0 {
		return
	}

	for i := range items {
		item := &items[i]
		if err := p.queue.MarkSending(ctx, item.ID); err != nil {
			log.WithError(err).WithField("queueItemId", item.ID.Hex()).Error("🔔 [NOTIFY] Không chuyển được item sang sending")
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(map[string]interface{}{
						"panic":       r,
						"queueItemId": item.ID.Hex(),
					}).Error("🔔 [NOTIFY] Panic khi gửi notification, item sẽ được retry")
					p.handleRetryOrFail(ctx, item, fmt.Errorf("panic: %v", r))
				}
			}()

			if sendErr := p.send(ctx, item); sendErr != nil {
				p.handleRetryOrFail(ctx, item, sendErr)
				return
			}
			if err := p.queue.MarkSent(ctx, item.ID); err != nil {
				log.WithError(err).WithField("queueItemId", item.ID.Hex()).Warn("🔔 [NOTIFY] Đã gửi nhưng không đánh dấu được sent")
			}
		}()
	}
}

// handleRetryOrFail: chưa hết retry budget thì schedule retry với backoff lũy
// thừa (2^retryCount giây), hết thì đánh dấu failed vĩnh viễn.
func (p *Processor) handleRetryOrFail(ctx context.Context, item *notifmodels.NotificationQueueItem, sendErr error) {
	log := logger.GetAppLogger()
	item.RetryCount++

	if item.RetryCount < item.MaxRetries {
		backoffSeconds := int64(math.Pow(2, float64(item.RetryCount)))
		nextRetryAt := time.Now().UnixMilli() + backoffSeconds*1000
		if err := p.queue.ScheduleRetry(ctx, item.ID, item.RetryCount, nextRetryAt, sendErr.Error()); err != nil {
			log.WithError(err).WithField("queueItemId", item.ID.Hex()).Error("🔔 [NOTIFY] Không schedule được retry cho item")
		}
		return
	}

	if err := p.queue.MarkFailed(ctx, item.ID, sendErr.Error()); err != nil {
		log.WithError(err).WithField("queueItemId", item.ID.Hex()).Error("🔔 [NOTIFY] Không đánh dấu được item failed")
		return
	}
	log.WithFields(map[string]interface{}{
		"queueItemId": item.ID.Hex(),
		"pipelineId":  item.PipelineID,
		"channelType": item.ChannelType,
		"retryCount":  item.RetryCount,
		"error":       sendErr.Error(),
	}).Error("🔔 [NOTIFY] Notification thất bại vĩnh viễn sau khi hết retry")
}

// send gửi một item qua kênh tương ứng
func (p *Processor) send(ctx context.Context, item *notifmodels.NotificationQueueItem) error {
	cfg := global.MongoDB_ServerConfig
	msg := &channels.Message{
		Subject: item.Subject,
		Content: item.Content,
		Actions: dashboardActions(cfg, item.PipelineID),
	}

	switch item.ChannelType {
	case notifmodels.ChannelEmail:
		return channels.SendEmail(ctx, cfg, item.Recipient, msg)
	case notifmodels.ChannelTelegram:
		botToken := ""
		if cfg != nil {
			botToken = cfg.TelegramBotToken
		}
		return channels.SendTelegram(ctx, botToken, item.Recipient, msg)
	case notifmodels.ChannelWebhook:
		return channels.SendWebhook(ctx, item.Recipient, msg, item.Details)
	default:
		return fmt.Errorf("unsupported channel type: %s", item.ChannelType)
	}
}

// dashboardActions dựng link mở trang pipeline trên dashboard (nếu cấu hình)
func dashboardActions(cfg *config.Configuration, pipelineID string) []channels.Action {
	if cfg == nil || cfg.DashboardURL == "" {
		return nil
	}
	return []channels.Action{
		{
			Label: "Xem pipeline",
			URL:   fmt.Sprintf("%s/pipelines/%s", cfg.DashboardURL, pipelineID),
		},
	}
}

// startCleanupJob chạy job dọn dẹp định kỳ: trả item kẹt ở sending về pending
// và xóa item sent/failed cũ
func (p *Processor) startCleanupJob(ctx context.Context) {
	cleanupInterval := 1 * time.Minute
	stuckSeconds := 300
	retentionDays := 7

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log := logger.GetAppLogger()

				reclaimed, err := p.queue.ReclaimStuck(ctx, stuckSeconds)
				if err != nil {
					log.WithError(err).Error("🔔 [NOTIFY] Không reclaim được item kẹt ở sending")
				} else if reclaimed > 0 {
					log.WithField("reclaimed", reclaimed).Warn("🔔 [NOTIFY] Đã trả item kẹt ở sending về pending")
				}

				if _, err := p.queue.CleanupOld(ctx, retentionDays); err != nil {
					log.WithError(err).Error("🔔 [NOTIFY] Không cleanup được item cũ trong queue")
				}
			}
		}
	}()
}
