package pipeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	submissionmodels "bid_flow/internal/api/submission/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestPipeline(pipelineID string, submissionID primitive.ObjectID) *ActivePipeline {
	return &ActivePipeline{
		Record: submissionmodels.SubmissionPipeline{
			PipelineID:   pipelineID,
			SubmissionID: submissionID,
			CurrentPhase: PhaseQueued,
			Status:       submissionmodels.PipelineStatusPending,
			WorkItemIDs:  []string{},
			Results:      map[string]map[string]interface{}{},
			MaxRetries:   3,
		},
	}
}

// TestActiveRegistryAddDuplicate kiểm tra Add không ghi đè pipeline đang chạy
func TestActiveRegistryAddDuplicate(t *testing.T) {
	r := NewActiveRegistry()
	p := newTestPipeline("pl-1", primitive.NewObjectID())

	if !r.Add(p) {
		t.Fatal("Add lần đầu phải trả về true")
	}
	if r.Add(newTestPipeline("pl-1", primitive.NewObjectID())) {
		t.Error("Add với pipeline id trùng phải trả về false")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d sau khi Add trùng, mong đợi 1", r.Count())
	}

	// Bản gốc phải còn nguyên, không bị thay bằng bản mới
	got, exists := r.Get("pl-1")
	if !exists {
		t.Fatal("Get không tìm thấy pipeline vừa Add")
	}
	if got != p {
		t.Error("Add trùng không được thay thế pipeline đang chạy")
	}
}

// TestActiveRegistryRemove kiểm tra gỡ pipeline khỏi working set
func TestActiveRegistryRemove(t *testing.T) {
	r := NewActiveRegistry()
	r.Add(newTestPipeline("pl-1", primitive.NewObjectID()))
	r.Add(newTestPipeline("pl-2", primitive.NewObjectID()))

	r.Remove("pl-1")
	if _, exists := r.Get("pl-1"); exists {
		t.Error("pipeline vẫn còn sau Remove")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d sau Remove, mong đợi 1", r.Count())
	}

	// Remove pipeline không tồn tại không panic
	r.Remove("ghost")
	if r.Count() != 1 {
		t.Errorf("Remove pipeline không tồn tại làm thay đổi Count = %d", r.Count())
	}

	ids := r.IDs()
	if len(ids) != 1 || ids[0] != "pl-2" {
		t.Errorf("IDs = %v, mong đợi [pl-2]", ids)
	}
}

// TestActiveRegistrySubmissionUniqueness kiểm tra Add giữ bất biến mỗi
// submission chỉ có một pipeline active, kể cả khi cả hai bản ghi đã được
// dựng xong trước khi bên nào kịp đăng ký
func TestActiveRegistrySubmissionUniqueness(t *testing.T) {
	r := NewActiveRegistry()
	sub := primitive.NewObjectID()

	// Cả hai pipeline cùng submission đã sẵn sàng trước khi Add
	first := newTestPipeline("pl-1", sub)
	second := newTestPipeline("pl-2", sub)

	if !r.Add(first) {
		t.Fatal("Add pipeline đầu tiên phải trả về true")
	}
	if r.Add(second) {
		t.Error("Add pipeline thứ hai cùng submission phải trả về false")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, mong đợi 1: submission chỉ được có một pipeline active", r.Count())
	}

	// Pipeline kết thúc thì submission được phép có pipeline mới
	r.Remove("pl-1")
	if !r.Add(second) {
		t.Error("Add phải thành công sau khi pipeline cũ của submission đã bị gỡ")
	}
}

// TestActiveRegistrySubmissionUniquenessConcurrent kiểm tra hai Add đồng
// thời cho cùng submission chỉ có đúng một bên thắng
func TestActiveRegistrySubmissionUniquenessConcurrent(t *testing.T) {
	r := NewActiveRegistry()
	sub := primitive.NewObjectID()

	const attempts = 16
	results := make(chan bool, attempts)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		p := newTestPipeline(fmt.Sprintf("pl-%d", i), sub)
		go func() {
			start.Wait()
			results <- r.Add(p)
		}()
	}
	start.Done()

	won := 0
	for i := 0; i < attempts; i++ {
		if <-results {
			won++
		}
	}
	if won != 1 {
		t.Errorf("%d Add thắng cho cùng một submission, mong đợi đúng 1", won)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d sau các Add đồng thời, mong đợi 1", r.Count())
	}
}

// TestActiveRegistryFindBySubmission kiểm tra tra cứu pipeline theo submission
func TestActiveRegistryFindBySubmission(t *testing.T) {
	r := NewActiveRegistry()
	subA := primitive.NewObjectID()
	subB := primitive.NewObjectID()
	r.Add(newTestPipeline("pl-a", subA))
	r.Add(newTestPipeline("pl-b", subB))

	p, exists := r.FindBySubmission(subA)
	if !exists {
		t.Fatal("FindBySubmission không tìm thấy pipeline của submission A")
	}
	if p.Record.PipelineID != "pl-a" {
		t.Errorf("FindBySubmission trả về %s, mong đợi pl-a", p.Record.PipelineID)
	}

	if _, exists := r.FindBySubmission(primitive.NewObjectID()); exists {
		t.Error("FindBySubmission phải trả về false với submission không có pipeline active")
	}

	// Sau khi pipeline kết thúc thì submission được phép có pipeline mới
	r.Remove("pl-a")
	if _, exists := r.FindBySubmission(subA); exists {
		t.Error("FindBySubmission vẫn tìm thấy pipeline đã bị gỡ")
	}
}

// TestActivePipelineSnapshotIsolation kiểm tra Snapshot clone map/slice
// top-level: mutation trên snapshot không lọt vào bản gốc và ngược lại
func TestActivePipelineSnapshotIsolation(t *testing.T) {
	p := newTestPipeline("pl-1", primitive.NewObjectID())
	p.Record.WorkItemIDs = []string{"item-1"}
	p.Record.Results = map[string]map[string]interface{}{
		PhasePreflight: {"requirementsValidated": true},
	}
	p.Record.Metadata = map[string]interface{}{"priority": "high"}
	p.Record.ErrorData = map[string]interface{}{"reason": "boom"}

	snapshot := p.Snapshot()

	// Mutation trên snapshot không được lọt vào bản gốc
	snapshot.WorkItemIDs = append(snapshot.WorkItemIDs, "item-2")
	snapshot.Results[PhaseFilling] = map[string]interface{}{"formsFilled": 2}
	snapshot.Metadata["priority"] = "low"
	snapshot.ErrorData["reason"] = "changed"

	if len(p.Record.WorkItemIDs) != 1 {
		t.Errorf("WorkItemIDs của bản gốc bị mutation qua snapshot: %v", p.Record.WorkItemIDs)
	}
	if _, ok := p.Record.Results[PhaseFilling]; ok {
		t.Error("Results của bản gốc bị mutation qua snapshot")
	}
	if p.Record.Metadata["priority"] != "high" {
		t.Errorf("Metadata của bản gốc bị mutation qua snapshot: %v", p.Record.Metadata["priority"])
	}
	if p.Record.ErrorData["reason"] != "boom" {
		t.Errorf("ErrorData của bản gốc bị mutation qua snapshot: %v", p.Record.ErrorData["reason"])
	}

	// Mutation trên bản gốc sau khi chụp không được lọt vào snapshot
	p.Record.Metadata["priority"] = "urgent"
	if snapshot.Metadata["priority"] != "low" {
		t.Errorf("snapshot bị mutation qua bản gốc: %v", snapshot.Metadata["priority"])
	}
}

// TestStopTimersInvalidatesGeneration kiểm tra stopTimers tăng gen để
// callback của watch/retry cũ bị bỏ qua, đồng thời dọn watch và timer
func TestStopTimersInvalidatesGeneration(t *testing.T) {
	p := newTestPipeline("pl-1", primitive.NewObjectID())

	p.mu.Lock()
	p.gen = 3
	p.watch = newPhaseWatch()
	p.retryTimer = time.AfterFunc(time.Hour, func() {})
	p.stopTimersLocked()

	if p.gen != 4 {
		t.Errorf("gen = %d sau stopTimers, mong đợi 4", p.gen)
	}
	if p.watch != nil {
		t.Error("watch phải được dọn sau stopTimers")
	}
	if p.retryTimer != nil {
		t.Error("retryTimer phải được dọn sau stopTimers")
	}

	// Gọi lại khi không còn timer nào vẫn an toàn
	p.stopTimersLocked()
	if p.gen != 5 {
		t.Errorf("gen = %d sau stopTimers lần hai, mong đợi 5", p.gen)
	}
	p.mu.Unlock()
}
