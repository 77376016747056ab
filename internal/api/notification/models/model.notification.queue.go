// Package models - model NotificationQueueItem (hàng đợi gửi thông báo kết quả pipeline).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái vòng đời của một item trong notification queue
const (
	QueueStatusPending = "pending" // Chờ gửi (mới enqueue hoặc chờ tới nextRetryAt)
	QueueStatusSending = "sending" // Processor đang gửi
	QueueStatusSent    = "sent"    // Gửi thành công
	QueueStatusFailed  = "failed"  // Hết retry budget, bỏ cuộc
)

// Kênh gửi thông báo. Cấu hình kênh lấy từ server config, không quản lý sender riêng.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
)

// NotificationQueueItem là một thông báo chờ gửi. Notifier enqueue khi pipeline
// kết thúc (completed/failed/cancelled), Processor dequeue theo batch và gửi với
// retry backoff lũy thừa. Item sent/failed được giữ lại một thời gian để tra cứu
// rồi bị cleanup job xóa.
type NotificationQueueItem struct {
	ID           primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	EventType    string                 `json:"eventType" bson:"eventType"` // "pipeline_completed", "pipeline_failed", "pipeline_cancelled"
	PipelineID   string                 `json:"pipelineId" bson:"pipelineId" index:"single:1"`
	SubmissionID string                 `json:"submissionId,omitempty" bson:"submissionId,omitempty"`
	ChannelType  string                 `json:"channelType" bson:"channelType"` // "email", "telegram", "webhook"
	Recipient    string                 `json:"recipient" bson:"recipient"`     // Địa chỉ email / chat ID / webhook URL
	Subject      string                 `json:"subject,omitempty" bson:"subject,omitempty"`
	Content      string                 `json:"content" bson:"content"`
	Severity     string                 `json:"severity" bson:"severity" default:"info"` // "info", "warning", "critical"
	Details      map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	Status       string                 `json:"status" bson:"status" index:"single:1" default:"pending"`
	RetryCount   int                    `json:"retryCount" bson:"retryCount"`
	MaxRetries   int                    `json:"maxRetries" bson:"maxRetries" default:"3"`
	NextRetryAt  int64                  `json:"nextRetryAt,omitempty" bson:"nextRetryAt,omitempty"` // UnixMilli, 0 = gửi ngay
	Error        string                 `json:"error,omitempty" bson:"error,omitempty"`             // Lỗi lần gửi gần nhất
	SentAt       int64                  `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	CreatedAt    int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt    int64                  `json:"updatedAt" bson:"updatedAt"`
}
