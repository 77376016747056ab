// Package portaldto chứa DTO cho domain portal.
package portaldto

// PortalCreateInput là input để tạo Portal
type PortalCreateInput struct {
	Name          string                 `json:"name" validate:"required"`
	Code          string                 `json:"code" validate:"required"` // Mã portal (unique)
	BaseURL       string                 `json:"baseUrl" validate:"required,url"`
	AuthType      string                 `json:"authType,omitempty" validate:"omitempty,oneof=basic mfa sso" transform:"string,default=basic"`
	RequiresMFA   bool                   `json:"requiresMfa"`
	FieldMappings map[string]string      `json:"fieldMappings,omitempty"`
	UploadConfig  map[string]interface{} `json:"uploadConfig,omitempty"`
	Instructions  string                 `json:"instructions,omitempty"`
	IsActive      bool                   `json:"isActive"`
}

// PortalUpdateInput là input để cập nhật Portal
type PortalUpdateInput struct {
	Name          *string                 `json:"name,omitempty"`
	BaseURL       *string                 `json:"baseUrl,omitempty" validate:"omitempty,url"`
	AuthType      *string                 `json:"authType,omitempty" validate:"omitempty,oneof=basic mfa sso"`
	RequiresMFA   *bool                   `json:"requiresMfa,omitempty"`
	FieldMappings *map[string]string      `json:"fieldMappings,omitempty"`
	UploadConfig  *map[string]interface{} `json:"uploadConfig,omitempty"`
	Instructions  *string                 `json:"instructions,omitempty"`
	IsActive      *bool                   `json:"isActive,omitempty"`
}
