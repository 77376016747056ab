package utility

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// String2ObjectID đọc chuỗi hex thành ObjectID, chuỗi hỏng trả NilObjectID.
// Dành cho chỗ id đã qua validate; cần phân biệt lỗi thì dùng thẳng
// primitive.ObjectIDFromHex.
func String2ObjectID(id string) primitive.ObjectID {
	objectId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return objectId
}

// ObjectID2String là chiều ngược lại, trả về chuỗi hex 24 ký tự.
func ObjectID2String(id primitive.ObjectID) string {
	return id.Hex()
}
