// Package auditsvc chứa service data access cho domain audit.
package auditsvc

import (
	"context"
	"fmt"

	auditmodels "bid_flow/internal/api/audit/models"
	basemodels "bid_flow/internal/api/base/models"
	basesvc "bid_flow/internal/api/base/service"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLogService là service ghi và đọc audit log.
// Audit log là append-only: API chỉ expose thao tác đọc, ghi do hệ thống thực hiện.
type AuditLogService struct {
	*basesvc.BaseServiceMongoImpl[auditmodels.AuditLog]
}

// NewAuditLogService tạo mới AuditLogService
func NewAuditLogService() (*AuditLogService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.AuditLogs)
	if !exist {
		return nil, fmt.Errorf("failed to get audit_logs collection: %v", common.ErrNotFound)
	}

	return &AuditLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[auditmodels.AuditLog](collection),
	}, nil
}

// RecordAction ghi một audit entry. Best-effort: lỗi ghi chỉ được log,
// không trả về để không chặn luồng nghiệp vụ đang gọi.
func (s *AuditLogService) RecordAction(ctx context.Context, entityType, entityID, action string, details map[string]interface{}, actor string) {
	entry := auditmodels.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		Actor:      actor,
	}
	if _, err := s.BaseServiceMongoImpl.InsertOne(ctx, entry); err != nil {
		logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
			"entityType": entityType,
			"entityId":   entityID,
			"action":     action,
		}).Error("📋 [AUDIT] Không thể ghi audit log")
	}
}

// FindAllSortByTime tìm các audit entry với phân trang, sắp xếp mới nhất trước
func (s *AuditLogService) FindAllSortByTime(ctx context.Context, page int64, limit int64, filter bson.M) (*basemodels.PaginateResult[auditmodels.AuditLog], error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.BaseServiceMongoImpl.FindWithPagination(ctx, filter, page, limit, opts)
}
