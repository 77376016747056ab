// Package models chứa các kiểu kết quả dùng chung của tầng service.
package models

// PaginateResult là một trang dữ liệu: các mục của trang hiện tại kèm
// đủ thông tin để client dựng thanh phân trang.
type PaginateResult[T any] struct {
	Page      int64 `json:"page" bson:"page"`           // Trang hiện tại, đánh số từ 1
	Limit     int64 `json:"limit" bson:"limit"`         // Cỡ trang client yêu cầu
	ItemCount int64 `json:"itemCount" bson:"itemCount"` // Số mục thực có trong trang này
	Items     []T   `json:"items" bson:"items"`         // Dữ liệu của trang
	Total     int64 `json:"total" bson:"total"`         // Tổng số mục khớp filter
	TotalPage int64 `json:"totalPage" bson:"totalPage"` // Tổng số trang
}
