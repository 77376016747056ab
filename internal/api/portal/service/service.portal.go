// Package portalsvc chứa service data access cho domain portal.
package portalsvc

import (
	"context"
	"fmt"

	basesvc "bid_flow/internal/api/base/service"
	portalmodels "bid_flow/internal/api/portal/models"
	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"go.mongodb.org/mongo-driver/bson"
)

// PortalService là service quản lý cổng nộp thầu (CRUD).
type PortalService struct {
	*basesvc.BaseServiceMongoImpl[portalmodels.Portal]
}

// NewPortalService tạo mới PortalService
func NewPortalService() (*PortalService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Portals)
	if !exist {
		return nil, fmt.Errorf("failed to get portals collection: %v", common.ErrNotFound)
	}

	return &PortalService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[portalmodels.Portal](collection),
	}, nil
}

// FindActiveByCode tìm portal đang active theo mã (dùng khi seed và validate initiate)
func (s *PortalService) FindActiveByCode(ctx context.Context, code string) (portalmodels.Portal, error) {
	return s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"code": code, "isActive": true}, nil)
}
