package pipeline

import (
	"testing"
	"time"
)

// TestPhaseOrderProgression kiểm tra thứ tự chuẩn: queued đứng đầu,
// completed đứng cuối, baseline tăng dần từ 0 đến 100
func TestPhaseOrderProgression(t *testing.T) {
	if len(phaseOrder) != 8 {
		t.Fatalf("phaseOrder có %d phase, mong đợi 8", len(phaseOrder))
	}
	if phaseOrder[0].Name != PhaseQueued {
		t.Errorf("phase đầu tiên là %q, mong đợi %q", phaseOrder[0].Name, PhaseQueued)
	}
	if phaseOrder[len(phaseOrder)-1].Name != PhaseCompleted {
		t.Errorf("phase cuối cùng là %q, mong đợi %q", phaseOrder[len(phaseOrder)-1].Name, PhaseCompleted)
	}
	if phaseOrder[0].Baseline != 0 {
		t.Errorf("baseline của queued = %d, mong đợi 0", phaseOrder[0].Baseline)
	}
	if phaseOrder[len(phaseOrder)-1].Baseline != 100 {
		t.Errorf("baseline của completed = %d, mong đợi 100", phaseOrder[len(phaseOrder)-1].Baseline)
	}
	for i := 1; i < len(phaseOrder); i++ {
		if phaseOrder[i].Baseline <= phaseOrder[i-1].Baseline {
			t.Errorf("baseline không tăng dần: %s (%d) -> %s (%d)",
				phaseOrder[i-1].Name, phaseOrder[i-1].Baseline,
				phaseOrder[i].Name, phaseOrder[i].Baseline)
		}
	}
}

// TestPhaseBaselines kiểm tra checkpoint progress khi vào từng phase
func TestPhaseBaselines(t *testing.T) {
	expected := map[string]int{
		PhaseQueued:         0,
		PhasePreflight:      10,
		PhaseAuthenticating: 25,
		PhaseFilling:        45,
		PhaseUploading:      65,
		PhaseSubmitting:     80,
		PhaseVerifying:      95,
		PhaseCompleted:      100,
	}
	for name, baseline := range expected {
		spec, ok := PhaseByName(name)
		if !ok {
			t.Errorf("PhaseByName(%q) không tìm thấy phase", name)
			continue
		}
		if spec.Baseline != baseline {
			t.Errorf("baseline của %s = %d, mong đợi %d", name, spec.Baseline, baseline)
		}
	}
}

// TestPhaseByNameUnknown kiểm tra tra cứu phase không tồn tại
func TestPhaseByNameUnknown(t *testing.T) {
	if _, ok := PhaseByName("failed"); ok {
		t.Error("failed là status, không phải phase - PhaseByName phải trả về false")
	}
	if _, ok := PhaseByName(""); ok {
		t.Error("PhaseByName với tên rỗng phải trả về false")
	}
	if IsValidPhase("retrying") {
		t.Error("IsValidPhase phải trả về false với tên không nằm trong thứ tự chuẩn")
	}
	if idx := PhaseIndex("bogus"); idx != -1 {
		t.Errorf("PhaseIndex với tên không hợp lệ = %d, mong đợi -1", idx)
	}
}

// TestNextPhaseChain kiểm tra đi hết chuỗi phase bằng NextPhase
func TestNextPhaseChain(t *testing.T) {
	want := []string{
		PhaseQueued, PhasePreflight, PhaseAuthenticating, PhaseFilling,
		PhaseUploading, PhaseSubmitting, PhaseVerifying, PhaseCompleted,
	}

	visited := []string{PhaseQueued}
	current := PhaseQueued
	for {
		next, ok := NextPhase(current)
		if !ok {
			break
		}
		visited = append(visited, next.Name)
		current = next.Name
	}

	if len(visited) != len(want) {
		t.Fatalf("chuỗi phase có %d bước, mong đợi %d: %v", len(visited), len(want), visited)
	}
	for i, name := range want {
		if visited[i] != name {
			t.Errorf("bước %d là %q, mong đợi %q", i, visited[i], name)
		}
	}

	if _, ok := NextPhase(PhaseCompleted); ok {
		t.Error("NextPhase(completed) phải trả về false - không có phase sau completed")
	}
	if _, ok := NextPhase("bogus"); ok {
		t.Error("NextPhase với tên không hợp lệ phải trả về false")
	}
}

// TestAutomationPhases kiểm tra phase nào phát work item: mọi phase trừ
// queued và completed, mỗi phase tự động hóa phải có đủ taskType,
// expectedOutputs, timeout và budget
func TestAutomationPhases(t *testing.T) {
	if IsAutomationPhase(PhaseQueued) {
		t.Error("queued không phát work item")
	}
	if IsAutomationPhase(PhaseCompleted) {
		t.Error("completed không phát work item")
	}
	if IsAutomationPhase("bogus") {
		t.Error("IsAutomationPhase với tên không hợp lệ phải trả về false")
	}

	automation := []string{
		PhasePreflight, PhaseAuthenticating, PhaseFilling,
		PhaseUploading, PhaseSubmitting, PhaseVerifying,
	}
	for _, name := range automation {
		if !IsAutomationPhase(name) {
			t.Errorf("%s phải là phase tự động hóa", name)
			continue
		}
		spec, _ := PhaseByName(name)
		if spec.TaskType == "" {
			t.Errorf("%s thiếu taskType", name)
		}
		if len(spec.ExpectedOutputs) == 0 {
			t.Errorf("%s thiếu expectedOutputs", name)
		}
		if spec.Timeout <= 0 {
			t.Errorf("%s thiếu timeout", name)
		}
		if spec.Budget <= 0 {
			t.Errorf("%s thiếu budget", name)
		}
	}
}

// TestPhaseTimeouts kiểm tra hạn tuyệt đối của từng phase tự động hóa
func TestPhaseTimeouts(t *testing.T) {
	expected := map[string]time.Duration{
		PhasePreflight:      15 * time.Minute,
		PhaseAuthenticating: 5 * time.Minute,
		PhaseFilling:        15 * time.Minute,
		PhaseUploading:      15 * time.Minute,
		PhaseSubmitting:     10 * time.Minute,
		PhaseVerifying:      15 * time.Minute,
	}
	for name, timeout := range expected {
		spec, ok := PhaseByName(name)
		if !ok {
			t.Fatalf("PhaseByName(%q) không tìm thấy phase", name)
		}
		if spec.Timeout != timeout {
			t.Errorf("timeout của %s = %s, mong đợi %s", name, spec.Timeout, timeout)
		}
	}
}

// TestRemainingBudget kiểm tra tổng thời lượng dự kiến còn lại tính cả
// phase hiện tại (phase hiện tại chưa xong)
func TestRemainingBudget(t *testing.T) {
	cases := []struct {
		phase string
		want  time.Duration
	}{
		{PhaseQueued, 20 * time.Minute},         // 2+3+5+5+2+3
		{PhasePreflight, 20 * time.Minute},      // queued không có budget
		{PhaseAuthenticating, 18 * time.Minute}, // 3+5+5+2+3
		{PhaseFilling, 15 * time.Minute},        // 5+5+2+3
		{PhaseUploading, 10 * time.Minute},      // 5+2+3
		{PhaseSubmitting, 5 * time.Minute},      // 2+3
		{PhaseVerifying, 3 * time.Minute},       // 3
		{PhaseCompleted, 0},
		{"bogus", 0},
	}
	for _, tc := range cases {
		if got := RemainingBudget(tc.phase); got != tc.want {
			t.Errorf("RemainingBudget(%q) = %s, mong đợi %s", tc.phase, got, tc.want)
		}
	}
}

// TestNextStepsFrom kiểm tra danh sách mô tả các bước còn lại
func TestNextStepsFrom(t *testing.T) {
	steps := NextStepsFrom(PhaseQueued)
	if len(steps) != 8 {
		t.Errorf("NextStepsFrom(queued) có %d bước, mong đợi 8", len(steps))
	}
	for i, step := range steps {
		if step == "" {
			t.Errorf("bước %d rỗng", i)
		}
	}

	steps = NextStepsFrom(PhaseVerifying)
	if len(steps) != 2 {
		t.Errorf("NextStepsFrom(verifying) có %d bước, mong đợi 2", len(steps))
	}

	steps = NextStepsFrom(PhaseCompleted)
	if len(steps) != 1 {
		t.Errorf("NextStepsFrom(completed) có %d bước, mong đợi 1", len(steps))
	}

	if steps := NextStepsFrom("bogus"); steps != nil {
		t.Errorf("NextStepsFrom với tên không hợp lệ = %v, mong đợi nil", steps)
	}
}
