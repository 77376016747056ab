package main

import (
	"bid_flow/config"
	"bid_flow/internal/global"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func InitRegistry() {

	logrus.Info("Initialized registry") // Đánh dấu mốc boot trong log

	// Kéo toàn bộ collection của hệ thống vào registry dùng chung
	err := InitCollections(global.MongoDB_Session, global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// InitCollections mở từng collection theo tên và đăng ký vào RegistryCollections.
// Danh sách ở đây phải khớp với global.MongoDB_ColNames.
func InitCollections(client *mongo.Client, cfg *config.Configuration) error {
	db := client.Database(cfg.MongoDB_DBName)
	colNames := []string{"rfp_opportunities", "proposals", "portals",
		"submissions", "submission_pipelines", "submission_events",
		"work_items", "automation_agents",
		"audit_logs", "notification_queue"}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}

		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Errorf("Collection %s already registered", name)
		}

	}

	return nil
}
