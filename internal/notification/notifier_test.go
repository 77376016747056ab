package notification

import (
	"strings"
	"testing"
)

// TestSeverityForStatus kiểm tra ánh xạ trạng thái pipeline sang severity
func TestSeverityForStatus(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{"failed", SeverityCritical},
		{"cancelled", SeverityWarning},
		{"completed", SeverityInfo},
		{"", SeverityInfo},
	}
	for _, tc := range cases {
		if got := severityForStatus(tc.status); got != tc.want {
			t.Errorf("severityForStatus(%q) = %s, mong đợi %s", tc.status, got, tc.want)
		}
	}
}

// TestSeverityPrefix kiểm tra emoji đầu subject theo severity
func TestSeverityPrefix(t *testing.T) {
	if severityPrefix(SeverityCritical) != "❌" {
		t.Error("severity critical phải có prefix ❌")
	}
	if severityPrefix(SeverityWarning) != "⚠️" {
		t.Error("severity warning phải có prefix ⚠️")
	}
	if severityPrefix(SeverityInfo) != "✅" {
		t.Error("severity info phải có prefix ✅")
	}
}

// TestRenderOutcomeCompleted kiểm tra nội dung thông báo khi pipeline hoàn tất
func TestRenderOutcomeCompleted(t *testing.T) {
	subject, body := renderOutcome(PipelineOutcome{
		PipelineID:   "pl-123",
		SubmissionID: "sub-456",
		Status:       "completed",
		Phase:        "completed",
		Progress:     100,
		Details: map[string]interface{}{
			"opportunityTitle": "Xây dựng cầu vượt QL1",
			"portalName":       "SAM.gov",
			"receiptNumber":    "RCPT-0042",
		},
	})

	if !strings.HasPrefix(subject, "✅") {
		t.Errorf("subject khi hoàn tất phải bắt đầu bằng ✅, got %q", subject)
	}
	if !strings.Contains(subject, "Xây dựng cầu vượt QL1") {
		t.Errorf("subject phải chứa tiêu đề opportunity, got %q", subject)
	}
	if !strings.Contains(body, "RCPT-0042") {
		t.Errorf("body phải chứa số biên nhận, got %q", body)
	}
	if !strings.Contains(body, "SAM.gov") {
		t.Errorf("body phải chứa tên portal, got %q", body)
	}
	if !strings.Contains(body, "sub-456") {
		t.Errorf("body phải chứa submission id, got %q", body)
	}
}

// TestRenderOutcomeFailed kiểm tra nội dung thông báo khi pipeline thất bại
func TestRenderOutcomeFailed(t *testing.T) {
	subject, body := renderOutcome(PipelineOutcome{
		PipelineID:   "pl-123",
		SubmissionID: "sub-456",
		Status:       "failed",
		Phase:        "authenticating",
		Progress:     25,
		Reason:       "invalid credentials",
	})

	if !strings.HasPrefix(subject, "❌") {
		t.Errorf("subject khi thất bại phải bắt đầu bằng ❌, got %q", subject)
	}
	// Không có opportunityTitle thì subject dùng pipeline id
	if !strings.Contains(subject, "pl-123") {
		t.Errorf("subject phải fallback về pipeline id khi thiếu tiêu đề, got %q", subject)
	}
	if !strings.Contains(body, "authenticating") {
		t.Errorf("body phải nêu phase thất bại, got %q", body)
	}
	if !strings.Contains(body, "25%") {
		t.Errorf("body phải nêu progress lúc thất bại, got %q", body)
	}
	if !strings.Contains(body, "invalid credentials") {
		t.Errorf("body phải nêu lý do thất bại, got %q", body)
	}
}

// TestRenderOutcomeCancelled kiểm tra nội dung thông báo khi pipeline bị hủy
func TestRenderOutcomeCancelled(t *testing.T) {
	subject, body := renderOutcome(PipelineOutcome{
		PipelineID:   "pl-123",
		SubmissionID: "sub-456",
		Status:       "cancelled",
		Phase:        "filling",
		Progress:     45,
		Reason:       "Pipeline bị hủy bởi operator",
	})

	if !strings.HasPrefix(subject, "⚠️") {
		t.Errorf("subject khi bị hủy phải bắt đầu bằng ⚠️, got %q", subject)
	}
	if !strings.Contains(body, "filling") {
		t.Errorf("body phải nêu phase lúc hủy, got %q", body)
	}
	if !strings.Contains(body, "Pipeline bị hủy bởi operator") {
		t.Errorf("body phải nêu lý do hủy, got %q", body)
	}
}

// TestMetadataDetail kiểm tra đọc giá trị hiển thị từ details
func TestMetadataDetail(t *testing.T) {
	if got := metadataDetail(nil, "key"); got != "" {
		t.Errorf("details nil phải trả về chuỗi rỗng, got %q", got)
	}
	if got := metadataDetail(map[string]interface{}{}, "key"); got != "" {
		t.Errorf("key không tồn tại phải trả về chuỗi rỗng, got %q", got)
	}
	if got := metadataDetail(map[string]interface{}{"key": nil}, "key"); got != "" {
		t.Errorf("giá trị nil phải trả về chuỗi rỗng, got %q", got)
	}
	if got := metadataDetail(map[string]interface{}{"key": "value"}, "key"); got != "value" {
		t.Errorf("metadataDetail trả về %q, mong đợi value", got)
	}
	// Giá trị không phải string được format về string
	if got := metadataDetail(map[string]interface{}{"retryCount": 3}, "retryCount"); got != "3" {
		t.Errorf("metadataDetail với số trả về %q, mong đợi 3", got)
	}
}

// TestSplitList kiểm tra tách danh sách recipient phân cách bằng dấu phẩy
func TestSplitList(t *testing.T) {
	got := splitList("ops@example.com, oncall@example.com ,,  ")
	if len(got) != 2 {
		t.Fatalf("splitList trả về %d phần tử, mong đợi 2: %v", len(got), got)
	}
	if got[0] != "ops@example.com" || got[1] != "oncall@example.com" {
		t.Errorf("splitList phải bỏ khoảng trắng và phần tử rỗng, got %v", got)
	}

	if got := splitList(""); len(got) != 0 {
		t.Errorf("splitList chuỗi rỗng phải trả về danh sách rỗng, got %v", got)
	}
	if got := splitList("single@example.com"); len(got) != 1 {
		t.Errorf("splitList một phần tử trả về %v", got)
	}
}
