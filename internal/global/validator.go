package global

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InitValidator dựng instance validator dùng chung và gắn các rule tự định nghĩa.
func InitValidator() {
	// Instance dùng chung cho toàn bộ handler
	Validate = validator.New()

	// Ba rule riêng của hệ thống
	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("exists", validateExists)
	_ = Validate.RegisterValidation("phase", validatePhase)
}

// validatePhase kiểm tra giá trị là một phase hợp lệ của submission pipeline.
// Danh sách phải khớp thứ tự chuẩn định nghĩa trong internal/pipeline/phases.go.
func validatePhase(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "queued", "preflight", "authenticating", "filling", "uploading", "submitting", "verifying", "completed":
		return true
	}
	return false
}

// validateNoXSS kiểm tra XSS trong các trường free-text (tên RFP, ghi chú, message...)
func validateNoXSS(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"onmouseover=",
		"eval(",
		"document.cookie",
		"document.write",
		"innerHTML",
		"fromCharCode",
		"window.location",
		"<iframe",
		"<object",
		"<embed",
	}

	value = strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateExists soát khóa ngoại: giá trị ObjectID phải có document tương ứng
// trong collection khai báo ở param của tag.
// Dùng: validate:"exists=submissions"
func validateExists(fl validator.FieldLevel) bool {
	value := fl.Field()

	// Tên collection nằm trong param của tag
	collectionName := fl.Param()
	if collectionName == "" {
		return false
	}

	// Chấp nhận string hex, ObjectID và *ObjectID
	var objID primitive.ObjectID
	switch v := value.Interface().(type) {
	case string:
		if v == "" {
			return true // Chuỗi rỗng coi như optional, để tag khác bắt
		}
		var err error
		objID, err = primitive.ObjectIDFromHex(v)
		if err != nil {
			return false
		}
	case primitive.ObjectID:
		if v == primitive.NilObjectID {
			return true // NilObjectID: field chưa set
		}
		objID = v
	case *primitive.ObjectID:
		if v == nil {
			return true // Con trỏ nil: field không gửi
		}
		objID = *v
	default:
		// Kiểu khác không soát được, đánh rớt luôn
		return false
	}

	// Collection phải có trong registry mới đối chiếu được
	collection, exist := RegistryCollections.Get(collectionName)
	if !exist {
		return false
	}

	// Đếm theo _id là đủ biết có hay không
	ctx := context.Background()
	count, err := collection.CountDocuments(ctx, bson.M{"_id": objID})
	if err != nil {
		return false
	}

	return count > 0
}
