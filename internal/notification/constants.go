// Package notification gửi thông báo kết quả pipeline qua email, Telegram và
// webhook. Notifier enqueue vào notification_queue, Processor gửi theo batch
// với retry backoff lũy thừa. Kênh nào được cấu hình trong server config thì
// kênh đó nhận thông báo; không cấu hình kênh nào thì notification tắt hẳn.
package notification

// Severity constants - mức độ nghiêm trọng của thông báo
const (
	SeverityCritical = "critical" // Pipeline thất bại - cần ops xem ngay
	SeverityWarning  = "warning"  // Pipeline bị hủy - xem khi có thời gian
	SeverityInfo     = "info"     // Pipeline hoàn tất - chỉ ghi nhận
)

// severityForStatus ánh xạ trạng thái kết thúc của pipeline sang severity
func severityForStatus(status string) string {
	switch status {
	case "failed":
		return SeverityCritical
	case "cancelled":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// severityPrefix là emoji đặt đầu subject/message theo severity
func severityPrefix(severity string) string {
	switch severity {
	case SeverityCritical:
		return "❌"
	case SeverityWarning:
		return "⚠️"
	default:
		return "✅"
	}
}
