// Package submissionsvc - service cho event timeline của pipeline.
package submissionsvc

import (
	"context"
	"fmt"
	"time"

	basesvc "bid_flow/internal/api/base/service"
	submissionmodels "bid_flow/internal/api/submission/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionEventService là service cho collection submission_events.
// Timeline là append-only: event đã ghi không bao giờ bị sửa hay xóa.
type SubmissionEventService struct {
	*basesvc.BaseServiceMongoImpl[submissionmodels.SubmissionEvent]
}

// NewSubmissionEventService tạo mới SubmissionEventService
func NewSubmissionEventService() (*SubmissionEventService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SubmissionEvents)
	if !exist {
		return nil, fmt.Errorf("failed to get submission_events collection: %v", common.ErrNotFound)
	}

	return &SubmissionEventService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[submissionmodels.SubmissionEvent](collection),
	}, nil
}

// RecordEvent ghi một event vào timeline của pipeline. Ghi event là
// best-effort: lỗi persistence chỉ được log, không làm gián đoạn pipeline.
func (s *SubmissionEventService) RecordEvent(ctx context.Context, event submissionmodels.SubmissionEvent) {
	if event.Level == "" {
		event.Level = submissionmodels.EventLevelInfo
	}

	_, err := s.BaseServiceMongoImpl.InsertOne(ctx, event)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"pipelineId": event.PipelineID,
			"eventType":  event.EventType,
			"phase":      event.Phase,
			"error":      err.Error(),
		}).Error("🧾 [EVENT] Không thể ghi submission event")
	}
}

// FindTimelineByPipelineID trả về toàn bộ event của một pipeline theo
// thứ tự thời gian tăng dần.
func (s *SubmissionEventService) FindTimelineByPipelineID(ctx context.Context, pipelineID string) ([]submissionmodels.SubmissionEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.BaseServiceMongoImpl.Find(ctx, bson.M{"pipelineId": pipelineID}, opts)
}

// FindRecentBySubmission trả về các event gần nhất của một submission,
// phục vụ màn hình chi tiết submission trên dashboard.
func (s *SubmissionEventService) FindRecentBySubmission(ctx context.Context, submissionID primitive.ObjectID, limit int64) ([]submissionmodels.SubmissionEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	return s.BaseServiceMongoImpl.Find(ctx, bson.M{"submissionId": submissionID}, opts)
}

// CountErrorsSince đếm số event mức error phát sinh từ mốc thời gian cho
// trước, dùng cho health check của orchestrator.
func (s *SubmissionEventService) CountErrorsSince(ctx context.Context, since time.Time) (int64, error) {
	filter := bson.M{
		"level":     submissionmodels.EventLevelError,
		"createdAt": bson.M{"$gte": since.UnixMilli()},
	}
	return s.BaseServiceMongoImpl.CountDocuments(ctx, filter)
}
