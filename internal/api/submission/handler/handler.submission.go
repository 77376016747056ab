// Package submissionhdl chứa handler HTTP cho domain submission:
// CRUD submission record và các endpoint điều khiển pipeline nộp thầu.
package submissionhdl

import (
	"fmt"

	basehdl "bid_flow/internal/api/base/handler"
	submissiondto "bid_flow/internal/api/submission/dto"
	submissionmodels "bid_flow/internal/api/submission/models"
	submissionsvc "bid_flow/internal/api/submission/service"
)

// SubmissionHandler xử lý các route CRUD cho Submission
type SubmissionHandler struct {
	*basehdl.BaseHandler[submissionmodels.Submission, submissiondto.SubmissionCreateInput, submissiondto.SubmissionUpdateInput]
	submissionService *submissionsvc.SubmissionService
}

// NewSubmissionHandler tạo mới SubmissionHandler
func NewSubmissionHandler() (*SubmissionHandler, error) {
	submissionService, err := submissionsvc.NewSubmissionService()
	if err != nil {
		return nil, fmt.Errorf("failed to create submission service: %w", err)
	}
	return &SubmissionHandler{
		BaseHandler:       basehdl.NewBaseHandler[submissionmodels.Submission, submissiondto.SubmissionCreateInput, submissiondto.SubmissionUpdateInput](submissionService.BaseServiceMongoImpl),
		submissionService: submissionService,
	}, nil
}
