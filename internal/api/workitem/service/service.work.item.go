// Package workitemsvc xử lý logic cho work items giao cho automation agents.
package workitemsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "bid_flow/internal/api/base/service"
	workitemmodels "bid_flow/internal/api/workitem/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
)

// WorkItemService xử lý logic cho work items
type WorkItemService struct {
	*basesvc.BaseServiceMongoImpl[workitemmodels.WorkItem]
}

// NewWorkItemService tạo mới WorkItemService
func NewWorkItemService() (*WorkItemService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WorkItems)
	if !exist {
		return nil, fmt.Errorf("failed to get work_items collection: %v", common.ErrNotFound)
	}
	return &WorkItemService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[workitemmodels.WorkItem](collection),
	}, nil
}

// CreateWorkItem tạo work item mới cho một phase của pipeline
func (s *WorkItemService) CreateWorkItem(ctx context.Context, item workitemmodels.WorkItem) (*workitemmodels.WorkItem, error) {
	if item.Status == "" {
		item.Status = workitemmodels.WorkItemStatusPending
	}
	inserted, err := s.BaseServiceMongoImpl.InsertOne(ctx, item)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return &inserted, nil
}

// ClaimPending claim các work items đang chờ (pending) với atomic operation.
// Agent truyền taskTypes theo capabilities của mình; rỗng nghĩa là nhận mọi loại.
// Sắp xếp theo priority giảm dần rồi createdAt tăng dần (FIFO trong cùng mức ưu tiên).
func (s *WorkItemService) ClaimPending(ctx context.Context, agentId string, taskTypes []string, limit int) ([]workitemmodels.WorkItem, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if agentId == "" {
		return nil, fmt.Errorf("agentId không được để trống")
	}

	now := time.Now().UnixMilli()
	filter := bson.M{"status": workitemmodels.WorkItemStatusPending}
	if len(taskTypes) > 0 {
		filter["taskType"] = bson.M{"$in": taskTypes}
	}
	update := bson.M{"$set": bson.M{
		"status":          workitemmodels.WorkItemStatusInProgress,
		"agentId":         agentId,
		"executedAt":      now,
		"lastHeartbeatAt": now,
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	coll := s.Collection()
	var claimed []workitemmodels.WorkItem
	for i := 0; i < limit; i++ {
		var item workitemmodels.WorkItem
		err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || err == common.ErrNotFound {
				break
			}
			return nil, fmt.Errorf("failed to claim work item: %w", err)
		}
		claimed = append(claimed, item)
	}
	return claimed, nil
}

// ReportResult báo cáo kết quả thực thi work item. Chỉ agent đã claim mới
// được báo cáo, và chỉ khi item còn in_progress. Đi qua base service để
// completion monitor nhận được data change event và đẩy pipeline đi tiếp.
func (s *WorkItemService) ReportResult(ctx context.Context, workItemID primitive.ObjectID, agentId string, status string, result map[string]interface{}, errorMsg string) (workitemmodels.WorkItem, error) {
	var zero workitemmodels.WorkItem
	if agentId == "" {
		return zero, fmt.Errorf("agentId không được để trống")
	}
	if status != workitemmodels.WorkItemStatusCompleted && status != workitemmodels.WorkItemStatusFailed {
		return zero, fmt.Errorf("status báo cáo phải là completed hoặc failed, nhận được: %s", status)
	}

	filter := bson.M{
		"_id":     workItemID,
		"agentId": agentId,
		"status":  workitemmodels.WorkItemStatusInProgress,
	}
	setFields := bson.M{
		"status":      status,
		"completedAt": time.Now().UnixMilli(),
	}
	if result != nil {
		setFields["result"] = result
	}
	if errorMsg != "" {
		setFields["error"] = errorMsg
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	updated, err := s.BaseServiceMongoImpl.FindOneAndUpdate(ctx, filter, bson.M{"$set": setFields}, opts)
	if err != nil {
		if err == common.ErrNotFound || errors.Is(err, mongo.ErrNoDocuments) {
			return zero, fmt.Errorf("work item không tồn tại, không thuộc về agent này, hoặc đã kết thúc")
		}
		return zero, fmt.Errorf("failed to report work item result: %w", err)
	}
	return updated, nil
}

// UpdateHeartbeat cập nhật heartbeat và progress của work item
func (s *WorkItemService) UpdateHeartbeat(ctx context.Context, workItemID primitive.ObjectID, agentId string, progress map[string]interface{}) (*workitemmodels.WorkItem, error) {
	if agentId == "" {
		return nil, fmt.Errorf("agentId không được để trống")
	}
	now := time.Now().UnixMilli()
	filter := bson.M{"_id": workItemID, "agentId": agentId, "status": workitemmodels.WorkItemStatusInProgress}
	update := bson.M{"$set": bson.M{"lastHeartbeatAt": now}}
	if progress != nil {
		update["$set"].(bson.M)["progress"] = progress
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var item workitemmodels.WorkItem
	err := s.Collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || err == common.ErrNotFound {
			return nil, fmt.Errorf("work item không tồn tại, không thuộc về agent này, hoặc đã kết thúc")
		}
		return nil, fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return &item, nil
}

// ReleaseStuck giải phóng các work items bị kẹt ở in_progress quá lâu
// (agent chết giữa chừng). Item quay về pending và bỏ gán agent để
// agent khác claim lại.
func (s *WorkItemService) ReleaseStuck(ctx context.Context, timeoutSeconds int64) (int64, error) {
	if timeoutSeconds < 60 {
		timeoutSeconds = 300
	}
	now := time.Now().UnixMilli()
	timeoutThreshold := now - timeoutSeconds*1000
	filter := bson.M{
		"status": workitemmodels.WorkItemStatusInProgress,
		"$or": []bson.M{
			{"lastHeartbeatAt": bson.M{"$exists": true, "$lt": timeoutThreshold}},
			{"lastHeartbeatAt": bson.M{"$exists": false}, "executedAt": bson.M{"$exists": true, "$lt": timeoutThreshold}},
		},
	}
	update := bson.M{
		"$set":   bson.M{"status": workitemmodels.WorkItemStatusPending, "executedAt": 0, "lastHeartbeatAt": 0},
		"$unset": bson.M{"progress": "", "agentId": ""},
	}
	result, err := s.Collection().UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to release stuck work items: %w", err)
	}
	return result.ModifiedCount, nil
}

// CancelPendingByPipeline hủy các work items còn pending của một pipeline.
// Gọi khi pipeline bị cancel hoặc fail vĩnh viễn; item đang in_progress
// được giữ nguyên để agent báo cáo nốt, kết quả sẽ bị bỏ qua.
func (s *WorkItemService) CancelPendingByPipeline(ctx context.Context, pipelineID string) (int64, error) {
	filter := bson.M{
		"pipelineId": pipelineID,
		"status":     workitemmodels.WorkItemStatusPending,
	}
	update := bson.M{"$set": bson.M{
		"status":      workitemmodels.WorkItemStatusCancelled,
		"completedAt": time.Now().UnixMilli(),
	}}
	count, err := s.BaseServiceMongoImpl.UpdateMany(ctx, filter, update, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending work items: %w", err)
	}
	return count, nil
}

// CompleteByIDs đánh dấu các work items chưa kết thúc là completed.
// Dùng khi ops force-advance pipeline: các item của phase hiện tại được
// chốt sổ để không còn agent nào claim hay báo cáo đè lên.
func (s *WorkItemService) CompleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"_id": bson.M{"$in": ids},
		"status": bson.M{"$in": []string{
			workitemmodels.WorkItemStatusPending,
			workitemmodels.WorkItemStatusInProgress,
		}},
	}
	update := bson.M{"$set": bson.M{
		"status":      workitemmodels.WorkItemStatusCompleted,
		"completedAt": time.Now().UnixMilli(),
	}}
	count, err := s.BaseServiceMongoImpl.UpdateMany(ctx, filter, update, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to complete work items: %w", err)
	}
	return count, nil
}

// FindByPipelineID trả về toàn bộ work items của một pipeline theo thứ tự tạo
func (s *WorkItemService) FindByPipelineID(ctx context.Context, pipelineID string) ([]workitemmodels.WorkItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.BaseServiceMongoImpl.Find(ctx, bson.M{"pipelineId": pipelineID}, opts)
}

// FindByIDs trả về các work items theo danh sách id.
// Completion monitor dùng để đọc lại trạng thái các item của phase đang chạy.
func (s *WorkItemService) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]workitemmodels.WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.BaseServiceMongoImpl.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// CountOpenByPhase đếm số work items chưa kết thúc của một phase.
// Phase chỉ được coi là hoàn thành khi số này về 0.
func (s *WorkItemService) CountOpenByPhase(ctx context.Context, pipelineID string, phase string) (int64, error) {
	filter := bson.M{
		"pipelineId": pipelineID,
		"phase":      phase,
		"status": bson.M{"$in": []string{
			workitemmodels.WorkItemStatusPending,
			workitemmodels.WorkItemStatusInProgress,
		}},
	}
	return s.BaseServiceMongoImpl.CountDocuments(ctx, filter)
}
