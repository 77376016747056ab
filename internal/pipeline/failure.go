package pipeline

import (
	"strings"
)

// FailureKind phân loại nguyên nhân lỗi của một phase. Quyết định retry
// dựa trên kind (exhaustive), không dựa trên chuỗi reason tự do; reason
// chỉ được map về kind đúng một lần tại boundary nhận lỗi từ agent.
type FailureKind string

const (
	FailureNetwork     FailureKind = "network"      // Lỗi kết nối, mạng chập chờn
	FailureTimeout     FailureKind = "timeout"      // Quá hạn (agent báo hoặc phase timeout)
	FailureRateLimit   FailureKind = "rate_limit"   // Portal giới hạn tần suất truy cập
	FailureServerError FailureKind = "server_error" // Portal lỗi phía server (5xx, unavailable)
	FailurePermanent   FailureKind = "permanent"    // Không thể retry (sai credentials, thiếu tài liệu, ...)
)

// Retryable cho biết kind này có được phép retry (trong giới hạn retry budget) không
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureNetwork, FailureTimeout, FailureRateLimit, FailureServerError:
		return true
	case FailurePermanent:
		return false
	}
	return false
}

// Failure là lỗi đã được gắn kind tại boundary, kèm reason gốc để lưu
// vào errorData và hiển thị cho người dùng.
type Failure struct {
	Kind   FailureKind
	Reason string
}

// NewTimeoutFailure tạo failure loại timeout với reason cố định.
// Completion monitor gọi khi hạn tuyệt đối của phase trôi qua - chỗ này
// biết chắc là timeout nên gắn kind trực tiếp, không cần dò keyword.
func NewTimeoutFailure() Failure {
	return Failure{Kind: FailureTimeout, Reason: "phase timed out"}
}

// reasonKeywords là bảng dò keyword cố định cho reason tự do từ agent.
// So khớp không phân biệt hoa thường, keyword đứng trước thắng.
var reasonKeywords = []struct {
	keyword string
	kind    FailureKind
}{
	{"timeout", FailureTimeout},
	{"timed out", FailureTimeout},
	{"network", FailureNetwork},
	{"connection", FailureNetwork},
	{"temporary", FailureServerError},
	{"rate limit", FailureRateLimit},
	{"server error", FailureServerError},
	{"5xx", FailureServerError},
	{"unavailable", FailureServerError},
}

// ClassifyReason map reason tự do mà agent báo về thành Failure có kind.
// Không khớp keyword nào nghĩa là lỗi vĩnh viễn.
func ClassifyReason(reason string) Failure {
	lower := strings.ToLower(reason)
	for _, entry := range reasonKeywords {
		if strings.Contains(lower, entry.keyword) {
			return Failure{Kind: entry.kind, Reason: reason}
		}
	}
	return Failure{Kind: FailurePermanent, Reason: reason}
}
