// Package rfpdto chứa DTO cho domain rfp.
package rfpdto

// RfpOpportunityCreateInput là input để tạo RfpOpportunity
type RfpOpportunityCreateInput struct {
	Title              string                 `json:"title" validate:"required"`
	SolicitationNumber string                 `json:"solicitationNumber,omitempty"`
	Agency             string                 `json:"agency" validate:"required"`
	Description        string                 `json:"description,omitempty"`
	PortalID           string                 `json:"portalId" validate:"required" transform:"str_objectid"`
	SourceURL          string                 `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	NaicsCode          string                 `json:"naicsCode,omitempty"`
	EstimatedValue     float64                `json:"estimatedValue,omitempty"`
	PostedDate         int64                  `json:"postedDate,omitempty"`
	DueDate            int64                  `json:"dueDate" validate:"required"`
	Status             string                 `json:"status,omitempty" validate:"omitempty,oneof=open closed awarded archived" transform:"string,default=open"`
	Tags               []string               `json:"tags,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	Requirements       []string               `json:"requirements,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// RfpOpportunityUpdateInput là input để cập nhật RfpOpportunity
type RfpOpportunityUpdateInput struct {
	Title              *string                 `json:"title,omitempty"`
	SolicitationNumber *string                 `json:"solicitationNumber,omitempty"`
	Agency             *string                 `json:"agency,omitempty"`
	Description        *string                 `json:"description,omitempty"`
	SourceURL          *string                 `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	NaicsCode          *string                 `json:"naicsCode,omitempty"`
	EstimatedValue     *float64                `json:"estimatedValue,omitempty"`
	PostedDate         *int64                  `json:"postedDate,omitempty"`
	DueDate            *int64                  `json:"dueDate,omitempty"`
	Status             *string                 `json:"status,omitempty" validate:"omitempty,oneof=open closed awarded archived"`
	Tags               *[]string               `json:"tags,omitempty"`
	Notes              *string                 `json:"notes,omitempty"`
	Requirements       *[]string               `json:"requirements,omitempty"`
	Metadata           *map[string]interface{} `json:"metadata,omitempty"`
}
