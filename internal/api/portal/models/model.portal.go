// Package models - model Portal thuộc domain portal.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PortalAuthType các kiểu xác thực của cổng nộp thầu
const (
	PortalAuthTypeBasic = "basic" // Username/password đơn giản
	PortalAuthTypeMFA   = "mfa"   // Username/password kèm mã MFA
	PortalAuthTypeSSO   = "sso"   // Đăng nhập qua hệ thống SSO của agency
)

// Portal đại diện một cổng nộp thầu của chính phủ (SAM.gov, BeaconBid, ...).
// FieldMappings ánh xạ field chuẩn của proposal sang selector trên form của portal,
// agent dùng map này ở phase filling. UploadConfig mô tả giới hạn file đính kèm.
type Portal struct {
	_Relationships struct{}               `relationship:"collection:rfp_opportunities,field:portalId,message:Không thể xóa portal vì có %d opportunity đang tham chiếu tới portal này. Vui lòng xóa hoặc chuyển các opportunity trước.|collection:submissions,field:portalId,message:Không thể xóa portal vì có %d submission đang sử dụng portal này. Vui lòng xóa các submission trước."`
	ID             primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string                 `json:"name" bson:"name" index:"single:1"`
	Code           string                 `json:"code" bson:"code" index:"unique"` // Mã portal (ví dụ: "sam_gov", "beaconbid")
	BaseURL        string                 `json:"baseUrl" bson:"baseUrl"`
	AuthType       string                 `json:"authType" bson:"authType" default:"basic"` // "basic", "mfa", "sso"
	RequiresMFA    bool                   `json:"requiresMfa" bson:"requiresMfa"`
	FieldMappings  map[string]string      `json:"fieldMappings,omitempty" bson:"fieldMappings,omitempty"`
	UploadConfig   map[string]interface{} `json:"uploadConfig,omitempty" bson:"uploadConfig,omitempty"` // Định dạng cho phép, dung lượng tối đa...
	Instructions   string                 `json:"instructions,omitempty" bson:"instructions,omitempty"` // Hướng dẫn nộp thầu riêng của portal
	IsActive       bool                   `json:"isActive" bson:"isActive" index:"single:1" default:"true"`
	IsSystem       bool                   `json:"-" bson:"isSystem" index:"single:1"`
	CreatedAt      int64                  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      int64                  `json:"updatedAt" bson:"updatedAt"`
}
