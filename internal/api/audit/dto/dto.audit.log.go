// Package auditdto chứa DTO cho domain audit.
// Router chỉ expose thao tác đọc; CreateInput/UpdateInput tồn tại để
// thỏa generic của BaseHandler, không được đăng ký route ghi.
package auditdto

// AuditLogCreateInput là input để tạo AuditLog (chỉ hệ thống dùng nội bộ)
type AuditLogCreateInput struct {
	EntityType string                 `json:"entityType" validate:"required"`
	EntityID   string                 `json:"entityId" validate:"required"`
	Action     string                 `json:"action" validate:"required"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Actor      string                 `json:"actor,omitempty"`
}

// AuditLogUpdateInput - audit log là append-only, không hỗ trợ cập nhật
type AuditLogUpdateInput struct {
}
