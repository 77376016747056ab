package notification

import (
	"context"
	"fmt"
	"strings"

	notifmodels "bid_flow/internal/api/notification/models"
	notificationsvc "bid_flow/internal/api/notification/service"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"
)

// PipelineOutcome là kết quả cuối cùng của một pipeline cần thông báo cho ops
type PipelineOutcome struct {
	PipelineID   string
	SubmissionID string
	Status       string // "completed", "failed", "cancelled"
	Phase        string // Phase cuối cùng lúc kết thúc
	Progress     int
	Reason       string // Lý do thất bại/hủy (rỗng khi completed)
	Details      map[string]interface{}
}

// Notifier enqueue thông báo kết quả pipeline vào notification queue.
// Fire-and-forget: lỗi enqueue chỉ được log, không bao giờ chặn orchestrator.
type Notifier struct {
	queue *notificationsvc.NotificationQueueService
}

// NewNotifier tạo mới Notifier
func NewNotifier() (*Notifier, error) {
	queueService, err := notificationsvc.NewNotificationQueueService()
	if err != nil {
		return nil, fmt.Errorf("failed to create notification queue service: %w", err)
	}
	return &Notifier{queue: queueService}, nil
}

// NotifyPipelineOutcome fan-out thông báo tới mọi kênh đã cấu hình.
// Không kênh nào được cấu hình thì bỏ qua trong im lặng.
func (n *Notifier) NotifyPipelineOutcome(ctx context.Context, outcome PipelineOutcome) {
	cfg := global.MongoDB_ServerConfig
	if cfg == nil {
		return
	}
	log := logger.GetAppLogger()

	severity := severityForStatus(outcome.Status)
	subject, content := renderOutcome(outcome)
	eventType := "pipeline_" + outcome.Status
	maxRetries := cfg.Notify_MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	base := notifmodels.NotificationQueueItem{
		EventType:    eventType,
		PipelineID:   outcome.PipelineID,
		SubmissionID: outcome.SubmissionID,
		Subject:      subject,
		Content:      content,
		Severity:     severity,
		Details:      outcome.Details,
		MaxRetries:   maxRetries,
	}

	items := make([]notifmodels.NotificationQueueItem, 0, 4)
	channelCounts := make(map[string]int)

	if cfg.SMTP_Host != "" && cfg.NotifyEmails != "" {
		for _, recipient := range splitList(cfg.NotifyEmails) {
			item := base
			item.ChannelType = notifmodels.ChannelEmail
			item.Recipient = recipient
			items = append(items, item)
			channelCounts[notifmodels.ChannelEmail]++
		}
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatIDs != "" {
		for _, chatID := range splitList(cfg.TelegramChatIDs) {
			item := base
			item.ChannelType = notifmodels.ChannelTelegram
			item.Recipient = chatID
			items = append(items, item)
			channelCounts[notifmodels.ChannelTelegram]++
		}
	}
	if cfg.NotifyWebhookURL != "" {
		item := base
		item.ChannelType = notifmodels.ChannelWebhook
		item.Recipient = cfg.NotifyWebhookURL
		items = append(items, item)
		channelCounts[notifmodels.ChannelWebhook]++
	}

	if len(items) == 0 {
		return
	}

	if _, err := n.queue.Enqueue(ctx, items); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"pipelineId": outcome.PipelineID,
			"eventType":  eventType,
			"totalItems": len(items),
		}).Error("🔔 [NOTIFY] Lỗi khi enqueue thông báo kết quả pipeline")
		return
	}

	log.WithFields(map[string]interface{}{
		"pipelineId": outcome.PipelineID,
		"eventType":  eventType,
		"severity":   severity,
		"totalItems": len(items),
		"channels":   channelCounts,
	}).Info("🔔 [NOTIFY] Đã enqueue thông báo kết quả pipeline")
}

// renderOutcome dựng subject + nội dung thông báo bằng tiếng Việt
func renderOutcome(outcome PipelineOutcome) (string, string) {
	prefix := severityPrefix(severityForStatus(outcome.Status))
	title := metadataDetail(outcome.Details, "opportunityTitle")
	if title == "" {
		title = outcome.PipelineID
	}
	portal := metadataDetail(outcome.Details, "portalName")

	var subject string
	var body strings.Builder
	switch outcome.Status {
	case "completed":
		subject = fmt.Sprintf("%s Nộp thầu hoàn tất: %s", prefix, title)
		body.WriteString(fmt.Sprintf("Pipeline %s đã nộp thầu thành công.\n", outcome.PipelineID))
		if receipt := metadataDetail(outcome.Details, "receiptNumber"); receipt != "" {
			body.WriteString(fmt.Sprintf("Số biên nhận: %s\n", receipt))
		}
	case "cancelled":
		subject = fmt.Sprintf("%s Nộp thầu bị hủy: %s", prefix, title)
		body.WriteString(fmt.Sprintf("Pipeline %s đã bị hủy ở phase %s (progress %d%%).\n",
			outcome.PipelineID, outcome.Phase, outcome.Progress))
		if outcome.Reason != "" {
			body.WriteString(fmt.Sprintf("Lý do: %s\n", outcome.Reason))
		}
	default: // failed
		subject = fmt.Sprintf("%s Nộp thầu thất bại: %s", prefix, title)
		body.WriteString(fmt.Sprintf("Pipeline %s thất bại ở phase %s (progress %d%%).\n",
			outcome.PipelineID, outcome.Phase, outcome.Progress))
		if outcome.Reason != "" {
			body.WriteString(fmt.Sprintf("Lý do: %s\n", outcome.Reason))
		}
	}
	if portal != "" {
		body.WriteString(fmt.Sprintf("Portal: %s\n", portal))
	}
	body.WriteString(fmt.Sprintf("Submission: %s\n", outcome.SubmissionID))
	return subject, body.String()
}

// metadataDetail đọc một giá trị từ details, chuyển về string hiển thị được
func metadataDetail(details map[string]interface{}, key string) string {
	if details == nil {
		return ""
	}
	v, ok := details[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// splitList tách danh sách phân cách bằng dấu phẩy, bỏ khoảng trắng và phần tử rỗng
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
