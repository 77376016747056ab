// Package submissiondto chứa DTO cho domain submission.
package submissiondto

// SubmissionCreateInput là input để tạo Submission
type SubmissionCreateInput struct {
	OpportunityID string `json:"opportunityId" validate:"required" transform:"str_objectid"`
	ProposalID    string `json:"proposalId" validate:"required" transform:"str_objectid"`
	PortalID      string `json:"portalId" validate:"required" transform:"str_objectid"`
	Method        string `json:"method,omitempty" validate:"omitempty,oneof=automated manual" transform:"string,default=automated"`
	Notes         string `json:"notes,omitempty"`
}

// SubmissionUpdateInput là input để cập nhật Submission.
// Status/receiptData do pipeline orchestrator ghi, không sửa qua API.
type SubmissionUpdateInput struct {
	Method *string `json:"method,omitempty" validate:"omitempty,oneof=automated manual"`
	Notes  *string `json:"notes,omitempty"`
}
