package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Bao gồm cấu hình server, MongoDB, và các tham số vận hành của
// submission pipeline.
type Configuration struct {
	InitMode              bool   `env:"INITMODE" envDefault:"false"`               // Chế độ khởi tạo (seed dữ liệu mặc định)
	Address               string `env:"ADDRESS" envDefault:"8080"`                 // Port server
	JwtSecret             string `env:"JWT_SECRET,required"`                       // Bí mật JWT (ký token cho automation agent + derive khóa mã hóa credentials)
	OpsToken              string `env:"OPS_TOKEN,required"`                        // Token tĩnh cho operator (toàn quyền API)
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu chính
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// TLS/HTTPS Configuration
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"` // Bật HTTPS
	TLSCertFile string `env:"TLS_CERT_FILE"`                 // Đường dẫn đến file certificate (.crt hoặc .pem)
	TLSKeyFile  string `env:"TLS_KEY_FILE"`                  // Đường dẫn đến file private key (.key)

	// Pipeline Orchestrator Configuration
	Pipeline_DefaultMaxRetries  int `env:"PIPELINE_DEFAULT_MAX_RETRIES" envDefault:"3"`   // Retry budget mặc định cho mỗi phase
	Pipeline_RetryBackoffSec    int `env:"PIPELINE_RETRY_BACKOFF_SEC" envDefault:"30"`    // Backoff cố định trước khi retry phase (giây)
	Pipeline_PollIntervalSec    int `env:"PIPELINE_POLL_INTERVAL_SEC" envDefault:"5"`     // Chu kỳ reconciliation sweep của completion monitor (giây)
	Pipeline_ReaperIntervalSec  int `env:"PIPELINE_REAPER_INTERVAL_SEC" envDefault:"300"` // Chu kỳ quét pipeline mồ côi sau restart (giây)
	WorkItem_StuckTimeoutSec    int `env:"WORKITEM_STUCK_TIMEOUT_SEC" envDefault:"300"`   // Timeout coi work item in_progress là stuck (giây)
	WorkItem_CleanupIntervalSec int `env:"WORKITEM_CLEANUP_INTERVAL_SEC" envDefault:"60"` // Chu kỳ chạy worker giải phóng work item stuck (giây)

	// Notification Configuration (kênh gửi thông báo kết quả pipeline)
	SMTP_Host           string `env:"SMTP_HOST"`                                     // SMTP host cho email notification (optional)
	SMTP_Port           int    `env:"SMTP_PORT" envDefault:"587"`                    // SMTP port
	SMTP_Username       string `env:"SMTP_USERNAME"`                                 // SMTP username
	SMTP_Password       string `env:"SMTP_PASSWORD"`                                 // SMTP password
	SMTP_FromName       string `env:"SMTP_FROM_NAME" envDefault:"BidFlow Pipeline"`  // Tên người gửi
	SMTP_FromEmail      string `env:"SMTP_FROM_EMAIL"`                               // Email người gửi
	NotifyEmails        string `env:"NOTIFY_EMAILS"`                                 // Danh sách email nhận thông báo, phân cách dấu phẩy (optional)
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`                            // Bot token cho Telegram notification (optional)
	TelegramChatIDs     string `env:"TELEGRAM_CHAT_IDS"`                             // Danh sách chat IDs phân cách bằng dấu phẩy (optional)
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL"`                            // Webhook URL nhận thông báo (optional)
	Notify_MaxRetries   int    `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`             // Số lần retry tối đa khi gửi notification thất bại
	Notify_IntervalSec  int    `env:"NOTIFY_INTERVAL_SEC" envDefault:"5"`            // Chu kỳ xử lý notification queue (giây)
	Notify_BatchSize    int    `env:"NOTIFY_BATCH_SIZE" envDefault:"10"`             // Số item xử lý mỗi batch

	DashboardURL string `env:"DASHBOARD_URL" envDefault:"http://localhost:5173"` // URL dashboard (gắn link trong notification)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			// Tìm thấy thư mục config/env
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		// Đi lên thư mục cha
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
