// Package notificationsvc xử lý hàng đợi gửi thông báo kết quả pipeline.
package notificationsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "bid_flow/internal/api/base/service"
	notifmodels "bid_flow/internal/api/notification/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
)

// NotificationQueueService xử lý logic cho notification queue
type NotificationQueueService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.NotificationQueueItem]
}

// NewNotificationQueueService tạo mới NotificationQueueService
func NewNotificationQueueService() (*NotificationQueueService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.NotificationQueue)
	if !exist {
		return nil, fmt.Errorf("failed to get notification_queue collection: %v", common.ErrNotFound)
	}
	return &NotificationQueueService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.NotificationQueueItem](collection),
	}, nil
}

// Enqueue thêm một lô thông báo vào queue ở trạng thái pending
func (s *NotificationQueueService) Enqueue(ctx context.Context, items []notifmodels.NotificationQueueItem) ([]notifmodels.NotificationQueueItem, error) {
	for i := range items {
		items[i].Status = notifmodels.QueueStatusPending
		items[i].RetryCount = 0
	}
	inserted, err := s.BaseServiceMongoImpl.InsertMany(ctx, items)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return inserted, nil
}

// FindDue tìm các item đến hạn gửi: pending và nextRetryAt đã qua (hoặc chưa đặt).
// Cũ nhất trước để giữ thứ tự gửi gần với thứ tự enqueue.
func (s *NotificationQueueService) FindDue(ctx context.Context, limit int64) ([]notifmodels.NotificationQueueItem, error) {
	if limit < 1 {
		limit = 10
	}
	now := time.Now().UnixMilli()
	filter := bson.M{
		"status": notifmodels.QueueStatusPending,
		"$or": []bson.M{
			{"nextRetryAt": bson.M{"$exists": false}},
			{"nextRetryAt": bson.M{"$lte": now}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)
	return s.BaseServiceMongoImpl.Find(ctx, filter, opts)
}

// MarkSending chuyển item sang trạng thái sending trước khi gửi
func (s *NotificationQueueService) MarkSending(ctx context.Context, id interface{}) error {
	update := bson.M{"$set": bson.M{
		"status":    notifmodels.QueueStatusSending,
		"updatedAt": time.Now().UnixMilli(),
	}}
	_, err := s.Collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	return common.ConvertMongoError(err)
}

// MarkSent đánh dấu item đã gửi thành công
func (s *NotificationQueueService) MarkSent(ctx context.Context, id interface{}) error {
	now := time.Now().UnixMilli()
	update := bson.M{"$set": bson.M{
		"status":    notifmodels.QueueStatusSent,
		"sentAt":    now,
		"updatedAt": now,
	}}
	_, err := s.Collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	return common.ConvertMongoError(err)
}

// ScheduleRetry đưa item về pending với nextRetryAt trong tương lai và lưu lỗi lần gửi này
func (s *NotificationQueueService) ScheduleRetry(ctx context.Context, id interface{}, retryCount int, nextRetryAt int64, errMsg string) error {
	update := bson.M{"$set": bson.M{
		"status":      notifmodels.QueueStatusPending,
		"retryCount":  retryCount,
		"nextRetryAt": nextRetryAt,
		"error":       errMsg,
		"updatedAt":   time.Now().UnixMilli(),
	}}
	_, err := s.Collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	return common.ConvertMongoError(err)
}

// MarkFailed đánh dấu item thất bại vĩnh viễn (hết retry budget)
func (s *NotificationQueueService) MarkFailed(ctx context.Context, id interface{}, errMsg string) error {
	update := bson.M{"$set": bson.M{
		"status":    notifmodels.QueueStatusFailed,
		"error":     errMsg,
		"updatedAt": time.Now().UnixMilli(),
	}}
	_, err := s.Collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	return common.ConvertMongoError(err)
}

// ReclaimStuck trả các item kẹt ở sending quá lâu (process chết giữa chừng) về pending
func (s *NotificationQueueService) ReclaimStuck(ctx context.Context, stuckSeconds int) (int64, error) {
	if stuckSeconds <= 0 {
		stuckSeconds = 300
	}
	threshold := time.Now().UnixMilli() - int64(stuckSeconds)*1000
	filter := bson.M{
		"status":    notifmodels.QueueStatusSending,
		"updatedAt": bson.M{"$lt": threshold},
	}
	update := bson.M{"$set": bson.M{
		"status":    notifmodels.QueueStatusPending,
		"updatedAt": time.Now().UnixMilli(),
	}}
	count, err := s.BaseServiceMongoImpl.UpdateMany(ctx, filter, update, nil)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// CleanupOld xóa các item sent/failed cũ hơn olderThanDays để queue không phình vô hạn
func (s *NotificationQueueService) CleanupOld(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = 7
	}
	threshold := time.Now().AddDate(0, 0, -olderThanDays).UnixMilli()
	filter := bson.M{
		"status":    bson.M{"$in": []string{notifmodels.QueueStatusSent, notifmodels.QueueStatusFailed}},
		"updatedAt": bson.M{"$lt": threshold},
	}
	return s.BaseServiceMongoImpl.DeleteMany(ctx, filter)
}
