// Package proposalsvc chứa service data access cho domain proposal.
package proposalsvc

import (
	"context"
	"fmt"
	"time"

	basesvc "bid_flow/internal/api/base/service"
	proposalmodels "bid_flow/internal/api/proposal/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProposalService là service quản lý tài liệu phản hồi (CRUD).
type ProposalService struct {
	*basesvc.BaseServiceMongoImpl[proposalmodels.Proposal]
}

// NewProposalService tạo mới ProposalService
func NewProposalService() (*ProposalService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Proposals)
	if !exist {
		return nil, fmt.Errorf("failed to get proposals collection: %v", common.ErrNotFound)
	}

	return &ProposalService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[proposalmodels.Proposal](collection),
	}, nil
}

// MarkSubmitted ghi nhận proposal đã được nộp thành công kèm receipt từ phase verifying.
// Pipeline gọi hàm này khi pipeline hoàn tất (Scenario: receipt gắn vào cả submission lẫn proposal).
func (s *ProposalService) MarkSubmitted(ctx context.Context, id primitive.ObjectID, receiptData map[string]interface{}) (proposalmodels.Proposal, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":      proposalmodels.ProposalStatusSubmitted,
			"submittedAt": time.Now().UnixMilli(),
		},
	}
	if len(receiptData) > 0 {
		updateData.Set["receiptData"] = receiptData
	}
	return s.BaseServiceMongoImpl.UpdateById(ctx, id, updateData)
}

// MarkFailed ghi nhận proposal nộp thất bại (pipeline failed vĩnh viễn).
func (s *ProposalService) MarkFailed(ctx context.Context, id primitive.ObjectID) (proposalmodels.Proposal, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status": proposalmodels.ProposalStatusFailed,
		},
	}
	return s.BaseServiceMongoImpl.UpdateById(ctx, id, updateData)
}
