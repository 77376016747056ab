// Package models - model RfpOpportunity thuộc domain rfp.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RfpOpportunityStatus các trạng thái của cơ hội thầu
const (
	RfpStatusOpen     = "open"     // Đang mở nhận hồ sơ
	RfpStatusClosed   = "closed"   // Đã hết hạn nộp
	RfpStatusAwarded  = "awarded"  // Đã trao thầu
	RfpStatusArchived = "archived" // Lưu trữ, không theo dõi nữa
)

// RfpOpportunity đại diện một cơ hội thầu (RFP/solicitation) được theo dõi.
// Có thể được tạo thủ công từ URL solicitation hoặc do quá trình quét portal phát hiện.
type RfpOpportunity struct {
	_Relationships     struct{}               `relationship:"collection:proposals,field:opportunityId,message:Không thể xóa opportunity vì có %d proposal đang tham chiếu. Vui lòng xóa các proposal trước.|collection:submissions,field:opportunityId,message:Không thể xóa opportunity vì có %d submission đang tham chiếu. Vui lòng xóa các submission trước."`
	ID                 primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	Title              string                 `json:"title" bson:"title" index:"text"`
	SolicitationNumber string                 `json:"solicitationNumber,omitempty" bson:"solicitationNumber,omitempty" index:"unique,sparse"` // Mã solicitation do portal cấp
	Agency             string                 `json:"agency" bson:"agency" index:"single:1"`
	Description        string                 `json:"description,omitempty" bson:"description,omitempty"`
	PortalID           primitive.ObjectID     `json:"portalId" bson:"portalId" index:"single:1"` // Portal nơi nộp hồ sơ
	SourceURL          string                 `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"`
	NaicsCode          string                 `json:"naicsCode,omitempty" bson:"naicsCode,omitempty" index:"single:1"`
	EstimatedValue     float64                `json:"estimatedValue,omitempty" bson:"estimatedValue,omitempty"`
	PostedDate         int64                  `json:"postedDate,omitempty" bson:"postedDate,omitempty"`
	DueDate            int64                  `json:"dueDate" bson:"dueDate" index:"single:1"` // Hạn nộp hồ sơ (epoch millis)
	Status             string                 `json:"status" bson:"status" index:"single:1" default:"open"`
	Tags               []string               `json:"tags,omitempty" bson:"tags,omitempty"`
	Notes              string                 `json:"notes,omitempty" bson:"notes,omitempty"`
	Requirements       []string               `json:"requirements,omitempty" bson:"requirements,omitempty"` // Yêu cầu trích xuất từ tài liệu RFP
	Metadata           map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt          int64                  `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt          int64                  `json:"updatedAt" bson:"updatedAt"`
}
