package global

import (
	"bid_flow/config"
	"bid_flow/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	RfpOpportunities    string // Tên collection cho cơ hội thầu (RFP)
	Proposals           string // Tên collection cho tài liệu phản hồi (proposal)
	Portals             string // Tên collection cho cổng nộp thầu
	Submissions         string // Tên collection cho hồ sơ nộp thầu
	SubmissionPipelines string // Tên collection cho pipeline nộp thầu (bản ghi durable)
	SubmissionEvents    string // Tên collection cho event stream của pipeline (append-only)
	WorkItems           string // Tên collection cho work items giao cho automation agents
	AutomationAgents    string // Tên collection cho automation agents đã đăng ký
	AuditLogs           string // Tên collection cho audit logs (compliance)
	NotificationQueue   string // Tên collection cho hàng đợi thông báo
}

// Các biến toàn cục
var Validate *validator.Validate               // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client              // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration // Cấu hình của server
var MongoDB_ColNames MongoDB_CollectionName    // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
