package main

import (
	"bid_flow/internal/api/initsvc"
	"bid_flow/internal/logger"
)

func InitDefaultData() {
	log := logger.GetAppLogger()
	log.Info("🔄 [INIT] Starting InitDefaultData...")

	initService, err := initsvc.NewInitService()
	if err != nil {
		log.Fatalf("Failed to initialize init service: %v", err)
	}

	// 1. Seed các portal hệ thống (SAM.gov, ...) nếu chưa có
	// Portal hệ thống là dữ liệu IsSystem: API không cho sửa/xóa, chỉ seed lúc khởi động
	log.Info("🔄 [INIT] Step 1: Seeding system portals...")
	created, err := initService.InitDefaultPortals()
	if err != nil {
		log.WithError(err).Error("❌ [INIT] Step 1: Failed to seed system portals")
		log.Warnf("Failed to seed system portals: %v", err)
	} else if created > 0 {
		log.Infof("✅ [INIT] Step 1: Seeded %d system portals", created)
	} else {
		log.Info("✅ [INIT] Step 1: System portals already present")
	}

	log.Info("✅ [INIT] InitDefaultData completed successfully")
}
