// Package proposaldto chứa DTO cho domain proposal.
package proposaldto

import (
	proposalmodels "bid_flow/internal/api/proposal/models"
)

// ProposalCreateInput là input để tạo Proposal
type ProposalCreateInput struct {
	OpportunityID string                           `json:"opportunityId" validate:"required" transform:"str_objectid"`
	Title         string                           `json:"title" validate:"required"`
	Sections      []proposalmodels.ProposalSection `json:"sections,omitempty"`
	Files         []proposalmodels.ProposalFile    `json:"files,omitempty"`
	Status        string                           `json:"status,omitempty" validate:"omitempty,oneof=draft ready" transform:"string,default=draft"`
}

// ProposalUpdateInput là input để cập nhật Proposal.
// Status chỉ cho phép chuyển giữa draft/ready qua API; "submitted"/"failed" do pipeline ghi.
type ProposalUpdateInput struct {
	Title    *string                           `json:"title,omitempty"`
	Sections *[]proposalmodels.ProposalSection `json:"sections,omitempty"`
	Files    *[]proposalmodels.ProposalFile    `json:"files,omitempty"`
	Status   *string                           `json:"status,omitempty" validate:"omitempty,oneof=draft ready"`
}
