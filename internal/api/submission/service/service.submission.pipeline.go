// Package submissionsvc - service cho bản ghi durable của pipeline.
package submissionsvc

import (
	"context"
	"fmt"

	basesvc "bid_flow/internal/api/base/service"
	submissionmodels "bid_flow/internal/api/submission/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionPipelineService là service cho collection submission_pipelines.
// Orchestrator mirror mọi mutation của bản in-memory xuống đây; bản ghi
// durable không bao giờ bị xóa khi pipeline kết thúc.
type SubmissionPipelineService struct {
	*basesvc.BaseServiceMongoImpl[submissionmodels.SubmissionPipeline]
}

// NewSubmissionPipelineService tạo mới SubmissionPipelineService
func NewSubmissionPipelineService() (*SubmissionPipelineService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SubmissionPipelines)
	if !exist {
		return nil, fmt.Errorf("failed to get submission_pipelines collection: %v", common.ErrNotFound)
	}

	return &SubmissionPipelineService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[submissionmodels.SubmissionPipeline](collection),
	}, nil
}

// UpsertSnapshot mirror bản in-memory của pipeline xuống durable record.
// Upsert theo pipelineId (uuid); _id do MongoDB quản lý nên bị loại khỏi $set.
func (s *SubmissionPipelineService) UpsertSnapshot(ctx context.Context, pipeline submissionmodels.SubmissionPipeline) (submissionmodels.SubmissionPipeline, error) {
	var zero submissionmodels.SubmissionPipeline

	dataMap, err := utility.ToMap(pipeline)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}
	delete(dataMap, "_id")

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	return s.BaseServiceMongoImpl.FindOneAndUpdate(ctx, bson.M{"pipelineId": pipeline.PipelineID}, bson.M{"$set": dataMap}, opts)
}

// FindByPipelineID tìm bản ghi durable theo pipeline uuid.
// Dùng cho getStatus fallback khi pipeline không còn trong memory.
func (s *SubmissionPipelineService) FindByPipelineID(ctx context.Context, pipelineID string) (submissionmodels.SubmissionPipeline, error) {
	return s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"pipelineId": pipelineID}, nil)
}

// HasActiveForSubmission kiểm tra submission đã có pipeline chưa kết thúc chưa.
// Bất biến: mỗi submission chỉ có tối đa một pipeline active.
func (s *SubmissionPipelineService) HasActiveForSubmission(ctx context.Context, submissionID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"submissionId": submissionID,
		"status": bson.M{"$in": []string{
			submissionmodels.PipelineStatusPending,
			submissionmodels.PipelineStatusInProgress,
			submissionmodels.PipelineStatusSuspended,
		}},
	}
	return s.BaseServiceMongoImpl.DocumentExists(ctx, filter)
}

// FindOrphanedInProgress tìm các pipeline durable còn ở trạng thái chạy dở
// nhưng không nằm trong danh sách pipeline đang được process hiện tại quản lý.
// Pipeline reaper dùng để dọn các pipeline mồ côi sau khi orchestrator restart.
func (s *SubmissionPipelineService) FindOrphanedInProgress(ctx context.Context, activePipelineIDs []string) ([]submissionmodels.SubmissionPipeline, error) {
	filter := bson.M{
		"status": bson.M{"$in": []string{
			submissionmodels.PipelineStatusPending,
			submissionmodels.PipelineStatusInProgress,
			submissionmodels.PipelineStatusSuspended,
		}},
	}
	if len(activePipelineIDs) > 0 {
		filter["pipelineId"] = bson.M{"$nin": activePipelineIDs}
	}
	return s.BaseServiceMongoImpl.Find(ctx, filter, nil)
}
