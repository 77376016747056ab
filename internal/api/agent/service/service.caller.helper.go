package agentsvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loại caller sau khi qua AuthMiddleware
const (
	CallerTypeOps   = "ops"   // Operator dùng ops token tĩnh (toàn quyền)
	CallerTypeAgent = "agent" // Automation agent dùng JWT cấp khi đăng ký
)

// Caller đại diện cho chủ thể đang gọi API.
// Middleware xác thực lưu caller vào Locals, handler chuyển tiếp vào context
// để tầng service kiểm tra quyền (ví dụ bảo vệ dữ liệu hệ thống IsSystem).
type Caller struct {
	Type    string              // CallerTypeOps hoặc CallerTypeAgent
	AgentID *primitive.ObjectID // ID của automation agent (nil nếu caller là ops)
}

type contextKey string

const callerContextKey contextKey = "caller"

// SetCallerToContext lưu caller vào context
func SetCallerToContext(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// GetCallerFromContext lấy caller từ context
func GetCallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerContextKey).(Caller)
	return caller, ok
}

// IsOpsFromContext kiểm tra caller trong context có phải operator không.
// Được đăng ký làm callback cho base service (SetIsAdminFromContextFunc).
func IsOpsFromContext(ctx context.Context) (bool, error) {
	caller, ok := GetCallerFromContext(ctx)
	if !ok {
		return false, nil
	}
	return caller.Type == CallerTypeOps, nil
}
