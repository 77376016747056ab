// Package proposalhdl chứa handler HTTP cho domain proposal.
package proposalhdl

import (
	"fmt"

	basehdl "bid_flow/internal/api/base/handler"
	proposaldto "bid_flow/internal/api/proposal/dto"
	proposalmodels "bid_flow/internal/api/proposal/models"
	proposalsvc "bid_flow/internal/api/proposal/service"
)

// ProposalHandler xử lý các route CRUD cho Proposal
type ProposalHandler struct {
	*basehdl.BaseHandler[proposalmodels.Proposal, proposaldto.ProposalCreateInput, proposaldto.ProposalUpdateInput]
	proposalService *proposalsvc.ProposalService
}

// NewProposalHandler tạo mới ProposalHandler
func NewProposalHandler() (*ProposalHandler, error) {
	proposalService, err := proposalsvc.NewProposalService()
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal service: %w", err)
	}
	return &ProposalHandler{
		BaseHandler:     basehdl.NewBaseHandler[proposalmodels.Proposal, proposaldto.ProposalCreateInput, proposaldto.ProposalUpdateInput](proposalService.BaseServiceMongoImpl),
		proposalService: proposalService,
	}, nil
}
