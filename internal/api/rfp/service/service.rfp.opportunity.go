// Package rfpsvc chứa service data access cho domain rfp.
package rfpsvc

import (
	"context"
	"fmt"
	"time"

	basesvc "bid_flow/internal/api/base/service"
	rfpmodels "bid_flow/internal/api/rfp/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"go.mongodb.org/mongo-driver/bson"
)

// RfpOpportunityService là service quản lý cơ hội thầu (CRUD).
type RfpOpportunityService struct {
	*basesvc.BaseServiceMongoImpl[rfpmodels.RfpOpportunity]
}

// NewRfpOpportunityService tạo mới RfpOpportunityService
func NewRfpOpportunityService() (*RfpOpportunityService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.RfpOpportunities)
	if !exist {
		return nil, fmt.Errorf("failed to get rfp_opportunities collection: %v", common.ErrNotFound)
	}

	return &RfpOpportunityService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[rfpmodels.RfpOpportunity](collection),
	}, nil
}

// CountOpenDueSoon đếm số opportunity đang mở có hạn nộp trong vòng days ngày tới.
// Dùng cho dashboard thống kê.
func (s *RfpOpportunityService) CountOpenDueSoon(ctx context.Context, days int) (int64, error) {
	now := time.Now().UnixMilli()
	until := time.Now().AddDate(0, 0, days).UnixMilli()
	filter := bson.M{
		"status":  rfpmodels.RfpStatusOpen,
		"dueDate": bson.M{"$gte": now, "$lte": until},
	}
	return s.BaseServiceMongoImpl.CountDocuments(ctx, filter)
}
