// Package rfphdl chứa handler HTTP cho domain rfp.
package rfphdl

import (
	"fmt"

	basehdl "bid_flow/internal/api/base/handler"
	rfpdto "bid_flow/internal/api/rfp/dto"
	rfpmodels "bid_flow/internal/api/rfp/models"
	rfpsvc "bid_flow/internal/api/rfp/service"
)

// RfpOpportunityHandler xử lý các route CRUD cho RfpOpportunity
type RfpOpportunityHandler struct {
	*basehdl.BaseHandler[rfpmodels.RfpOpportunity, rfpdto.RfpOpportunityCreateInput, rfpdto.RfpOpportunityUpdateInput]
	rfpService *rfpsvc.RfpOpportunityService
}

// NewRfpOpportunityHandler tạo mới RfpOpportunityHandler
func NewRfpOpportunityHandler() (*RfpOpportunityHandler, error) {
	rfpService, err := rfpsvc.NewRfpOpportunityService()
	if err != nil {
		return nil, fmt.Errorf("failed to create rfp opportunity service: %w", err)
	}
	return &RfpOpportunityHandler{
		BaseHandler: basehdl.NewBaseHandler[rfpmodels.RfpOpportunity, rfpdto.RfpOpportunityCreateInput, rfpdto.RfpOpportunityUpdateInput](rfpService.BaseServiceMongoImpl),
		rfpService:  rfpService,
	}, nil
}
