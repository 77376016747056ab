package pipeline

import (
	"testing"
)

// TestClassifyReasonKeywords kiểm tra bảng dò keyword: so khớp không phân
// biệt hoa thường, reason gốc được giữ nguyên
func TestClassifyReasonKeywords(t *testing.T) {
	cases := []struct {
		reason string
		want   FailureKind
	}{
		{"Portal TIMEOUT while loading submission form", FailureTimeout},
		{"request timed out after 30s", FailureTimeout},
		{"Network unreachable", FailureNetwork},
		{"connection refused by portal", FailureNetwork},
		{"Temporary failure in name resolution", FailureServerError},
		{"rate limit exceeded, retry after 60s", FailureRateLimit},
		{"portal returned server error", FailureServerError},
		{"got 5xx from upload endpoint", FailureServerError},
		{"Service Unavailable", FailureServerError},
		{"invalid credentials", FailurePermanent},
		{"required document missing: pricing sheet", FailurePermanent},
		{"", FailurePermanent},
	}
	for _, tc := range cases {
		failure := ClassifyReason(tc.reason)
		if failure.Kind != tc.want {
			t.Errorf("ClassifyReason(%q).Kind = %s, mong đợi %s", tc.reason, failure.Kind, tc.want)
		}
		if failure.Reason != tc.reason {
			t.Errorf("ClassifyReason(%q) phải giữ nguyên reason gốc, got %q", tc.reason, failure.Reason)
		}
	}
}

// TestClassifyReasonFirstKeywordWins kiểm tra reason chứa nhiều keyword
// thì keyword đứng trước trong bảng thắng
func TestClassifyReasonFirstKeywordWins(t *testing.T) {
	// "connection timeout" chứa cả "timeout" lẫn "connection";
	// "timeout" đứng trước trong bảng nên thắng
	failure := ClassifyReason("connection timeout while reaching portal")
	if failure.Kind != FailureTimeout {
		t.Errorf("keyword đứng trước phải thắng: got %s, mong đợi %s", failure.Kind, FailureTimeout)
	}

	// "network unavailable" chứa cả "network" lẫn "unavailable"
	failure = ClassifyReason("network unavailable")
	if failure.Kind != FailureNetwork {
		t.Errorf("keyword đứng trước phải thắng: got %s, mong đợi %s", failure.Kind, FailureNetwork)
	}
}

// TestFailureKindRetryable kiểm tra quyết định retry theo kind
func TestFailureKindRetryable(t *testing.T) {
	retryable := []FailureKind{FailureNetwork, FailureTimeout, FailureRateLimit, FailureServerError}
	for _, kind := range retryable {
		if !kind.Retryable() {
			t.Errorf("%s phải retryable", kind)
		}
	}
	if FailurePermanent.Retryable() {
		t.Error("permanent không được retryable")
	}
	if FailureKind("unknown").Retryable() {
		t.Error("kind không xác định không được retryable")
	}
}

// TestNewTimeoutFailure kiểm tra failure của phase timeout: kind gắn trực
// tiếp không qua dò keyword, và phải retryable
func TestNewTimeoutFailure(t *testing.T) {
	failure := NewTimeoutFailure()
	if failure.Kind != FailureTimeout {
		t.Errorf("NewTimeoutFailure().Kind = %s, mong đợi %s", failure.Kind, FailureTimeout)
	}
	if failure.Reason != "phase timed out" {
		t.Errorf("NewTimeoutFailure().Reason = %q, mong đợi %q", failure.Reason, "phase timed out")
	}
	if !failure.Kind.Retryable() {
		t.Error("timeout phải retryable")
	}
}
