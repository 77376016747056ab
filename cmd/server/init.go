package main

import (
	"context"

	"bid_flow/config"
	agentmodels "bid_flow/internal/api/agent/models"
	auditmodels "bid_flow/internal/api/audit/models"
	notifmodels "bid_flow/internal/api/notification/models"
	portalmodels "bid_flow/internal/api/portal/models"
	proposalmodels "bid_flow/internal/api/proposal/models"
	rfpmodels "bid_flow/internal/api/rfp/models"
	submissionmodels "bid_flow/internal/api/submission/models"
	workitemmodels "bid_flow/internal/api/workitem/models"
	"bid_flow/internal/database"
	"bid_flow/internal/global"

	"github.com/sirupsen/logrus"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	// Procurement Collections (cơ hội thầu, proposal, portal)
	global.MongoDB_ColNames.RfpOpportunities = "rfp_opportunities"
	global.MongoDB_ColNames.Proposals = "proposals"
	global.MongoDB_ColNames.Portals = "portals"

	// Submission Pipeline Collections (hồ sơ nộp + pipeline + event stream)
	global.MongoDB_ColNames.Submissions = "submissions"
	global.MongoDB_ColNames.SubmissionPipelines = "submission_pipelines"
	global.MongoDB_ColNames.SubmissionEvents = "submission_events"

	// Agent Execution Collections (work item giao cho automation agent)
	global.MongoDB_ColNames.WorkItems = "work_items"
	global.MongoDB_ColNames.AutomationAgents = "automation_agents"

	// Compliance / Notification Collections
	global.MongoDB_ColNames.AuditLogs = "audit_logs"
	global.MongoDB_ColNames.NotificationQueue = "notification_queue"

	logrus.Info("Initialized collection names") // Ghi log thông báo đã khởi tạo tên các collection
}

// Hàm khởi tạo validator (dùng global.InitValidator để đăng ký custom validators: no_xss, exists, ...)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator") // Ghi log thông báo đã khởi tạo validator
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil") // Ghi log lỗi nếu khởi tạo cấu hình thất bại
	}
	logrus.Info("Initialized server config") // Ghi log thông báo đã khởi tạo cấu hình server
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err) // Ghi log lỗi nếu kết nối database thất bại
	}
	logrus.Info("Connected to MongoDB") // Ghi log thông báo đã kết nối database thành công

	// Khởi tạo các db và collections nếu chưa có
	database.EnsureDatabaseAndCollections(global.MongoDB_Session)
	logrus.Info("Ensured database and collections") // Ghi log thông báo đã đảm bảo database và các collection

	// Khơi tạo các index cho các collection
	dbName := global.MongoDB_ServerConfig.MongoDB_DBName

	// Procurement Indexes
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.RfpOpportunities), rfpmodels.RfpOpportunity{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.Proposals), proposalmodels.Proposal{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.Portals), portalmodels.Portal{})

	// Submission Pipeline Indexes
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.Submissions), submissionmodels.Submission{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.SubmissionPipelines), submissionmodels.SubmissionPipeline{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.SubmissionEvents), submissionmodels.SubmissionEvent{})

	// Agent Execution Indexes
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.WorkItems), workitemmodels.WorkItem{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.AutomationAgents), agentmodels.AutomationAgent{})

	// Compliance / Notification Indexes
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.AuditLogs), auditmodels.AuditLog{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.NotificationQueue), notifmodels.NotificationQueueItem{})

	// Index compound bổ sung cho các query nóng của pipeline (claim scan, timeline)
	if err := database.CreatePipelineAdditionalIndexes(context.TODO(), global.MongoDB_Session.Database(dbName)); err != nil {
		logrus.Errorf("Failed to create pipeline additional indexes: %v", err)
	}
}
