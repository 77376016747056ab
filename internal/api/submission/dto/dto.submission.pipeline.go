// Package submissiondto - DTO cho các endpoint pipeline nộp thầu.
package submissiondto

// PortalCredentialsInput là thông tin đăng nhập portal caller cung cấp khi initiate.
// Được mã hóa AES-GCM trước khi lưu vào metadata của pipeline, không bao giờ
// lưu plaintext.
type PortalCredentialsInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode,omitempty"` // Mã MFA cho portal yêu cầu multi-factor
	APIKey   string `json:"apiKey,omitempty"`  // API key (một số portal dùng thay password)
}

// RetryOptionsInput cho phép caller điều chỉnh retry budget của pipeline
type RetryOptionsInput struct {
	MaxRetries *int `json:"maxRetries,omitempty" validate:"omitempty,min=0,max=10"`
}

// PipelineInitiateInput là input để khởi động pipeline nộp thầu cho một submission
type PipelineInitiateInput struct {
	SubmissionID   string                  `json:"submissionId" validate:"required" transform:"str_objectid"`
	SessionID      string                  `json:"sessionId,omitempty"` // Session handle của caller (opaque với orchestrator)
	Credentials    *PortalCredentialsInput `json:"credentials,omitempty"`
	Priority       string                  `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Deadline       int64                   `json:"deadline,omitempty"` // Hạn chót nộp (epoch millis, 0 = không có)
	RetryOptions   *RetryOptionsInput      `json:"retryOptions,omitempty"`
	BrowserOptions map[string]interface{}  `json:"browserOptions,omitempty"` // headless, viewport... chuyển nguyên vẹn cho agent
	Metadata       map[string]interface{}  `json:"metadata,omitempty"`
}

// PipelineIDParams là params lấy pipelineId từ URL
type PipelineIDParams struct {
	PipelineID string `uri:"pipelineId" validate:"required"`
}

// PipelineCancelInput là input khi ops hủy pipeline
type PipelineCancelInput struct {
	Reason string `json:"reason,omitempty"` // Lý do hủy, lưu vào errorData và event
}

// PipelineRecordCreateInput - pipeline chỉ được tạo qua /initiate; type này tồn tại
// để thỏa generic của BaseHandler, router không đăng ký route ghi
type PipelineRecordCreateInput struct {
}

// PipelineRecordUpdateInput - mọi mutation đi qua orchestrator, không qua CRUD
type PipelineRecordUpdateInput struct {
}

// PipelineForceAdvanceInput là input cho thao tác ops force-advance một phase bị kẹt.
// WorkItemIDs là các work item được coi như đã hoàn tất; NextPhase là phase đích
// (phải là phase kế tiếp trong thứ tự chuẩn).
type PipelineForceAdvanceInput struct {
	WorkItemIDs []string `json:"workItemIds,omitempty"`
	NextPhase   string   `json:"nextPhase" validate:"required,phase"`
}
