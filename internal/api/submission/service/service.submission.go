// Package submissionsvc chứa service data access cho domain submission.
package submissionsvc

import (
	"context"
	"fmt"
	"time"

	basesvc "bid_flow/internal/api/base/service"
	submissionmodels "bid_flow/internal/api/submission/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmissionService là service quản lý hồ sơ nộp thầu (CRUD).
type SubmissionService struct {
	*basesvc.BaseServiceMongoImpl[submissionmodels.Submission]
}

// NewSubmissionService tạo mới SubmissionService
func NewSubmissionService() (*SubmissionService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Submissions)
	if !exist {
		return nil, fmt.Errorf("failed to get submissions collection: %v", common.ErrNotFound)
	}

	return &SubmissionService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[submissionmodels.Submission](collection),
	}, nil
}

// MarkInProgress chuyển submission sang trạng thái đang nộp (pipeline bắt đầu chạy)
func (s *SubmissionService) MarkInProgress(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status": submissionmodels.SubmissionStatusInProgress,
		},
	}
	return s.BaseServiceMongoImpl.UpdateById(ctx, id, updateData)
}

// MarkSubmitted ghi nhận submission đã nộp thành công kèm receipt từ phase verifying
func (s *SubmissionService) MarkSubmitted(ctx context.Context, id primitive.ObjectID, receiptData map[string]interface{}) (submissionmodels.Submission, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":      submissionmodels.SubmissionStatusSubmitted,
			"submittedAt": time.Now().UnixMilli(),
		},
	}
	if len(receiptData) > 0 {
		updateData.Set["receiptData"] = receiptData
	}
	return s.BaseServiceMongoImpl.UpdateById(ctx, id, updateData)
}

// MarkFailed ghi nhận submission nộp thất bại (pipeline failed vĩnh viễn hoặc bị hủy)
func (s *SubmissionService) MarkFailed(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status": submissionmodels.SubmissionStatusFailed,
		},
	}
	return s.BaseServiceMongoImpl.UpdateById(ctx, id, updateData)
}
