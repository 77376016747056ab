// Package portalhdl chứa handler HTTP cho domain portal.
package portalhdl

import (
	"fmt"

	basehdl "bid_flow/internal/api/base/handler"
	portaldto "bid_flow/internal/api/portal/dto"
	portalmodels "bid_flow/internal/api/portal/models"
	portalsvc "bid_flow/internal/api/portal/service"
)

// PortalHandler xử lý các route CRUD cho Portal
type PortalHandler struct {
	*basehdl.BaseHandler[portalmodels.Portal, portaldto.PortalCreateInput, portaldto.PortalUpdateInput]
	portalService *portalsvc.PortalService
}

// NewPortalHandler tạo mới PortalHandler
func NewPortalHandler() (*PortalHandler, error) {
	portalService, err := portalsvc.NewPortalService()
	if err != nil {
		return nil, fmt.Errorf("failed to create portal service: %w", err)
	}
	return &PortalHandler{
		BaseHandler:   basehdl.NewBaseHandler[portalmodels.Portal, portaldto.PortalCreateInput, portaldto.PortalUpdateInput](portalService.BaseServiceMongoImpl),
		portalService: portalService,
	}, nil
}
