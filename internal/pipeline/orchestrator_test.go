package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	portalmodels "bid_flow/internal/api/portal/models"
	proposalmodels "bid_flow/internal/api/proposal/models"
	rfpmodels "bid_flow/internal/api/rfp/models"
	submissionmodels "bid_flow/internal/api/submission/models"
	workitemmodels "bid_flow/internal/api/workitem/models"
	"bid_flow/internal/common"
	"bid_flow/internal/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ============================================================
// Store in-memory thay cho service Mongo, để lái máy trạng thái
// qua các đường transition/retry/failure không cần database
// ============================================================

type fakePipelineStore struct {
	mu        sync.Mutex
	snapshots []submissionmodels.SubmissionPipeline
}

func (f *fakePipelineStore) UpsertSnapshot(ctx context.Context, pipeline submissionmodels.SubmissionPipeline) (submissionmodels.SubmissionPipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, pipeline)
	return pipeline, nil
}

func (f *fakePipelineStore) FindByPipelineID(ctx context.Context, pipelineID string) (submissionmodels.SubmissionPipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.snapshots) - 1; i >= 0; i-- {
		if f.snapshots[i].PipelineID == pipelineID {
			return f.snapshots[i], nil
		}
	}
	return submissionmodels.SubmissionPipeline{}, common.ErrNotFound
}

func (f *fakePipelineStore) HasActiveForSubmission(ctx context.Context, submissionID primitive.ObjectID) (bool, error) {
	return false, nil
}

func (f *fakePipelineStore) FindOrphanedInProgress(ctx context.Context, activePipelineIDs []string) ([]submissionmodels.SubmissionPipeline, error) {
	return nil, nil
}

func (f *fakePipelineStore) lastSnapshot() (submissionmodels.SubmissionPipeline, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) == 0 {
		return submissionmodels.SubmissionPipeline{}, false
	}
	return f.snapshots[len(f.snapshots)-1], true
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []submissionmodels.SubmissionEvent
}

func (f *fakeEventStore) RecordEvent(ctx context.Context, event submissionmodels.SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeEventStore) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType)
	}
	return types
}

func (f *fakeEventStore) find(eventType string) (submissionmodels.SubmissionEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.EventType == eventType {
			return e, true
		}
	}
	return submissionmodels.SubmissionEvent{}, false
}

type fakeSubmissionStore struct {
	mu         sync.Mutex
	inProgress []primitive.ObjectID
	submitted  []primitive.ObjectID
	failed     []primitive.ObjectID
	receipt    map[string]interface{}
}

func (f *fakeSubmissionStore) FindOneById(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error) {
	return submissionmodels.Submission{ID: id}, nil
}

func (f *fakeSubmissionStore) MarkInProgress(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inProgress = append(f.inProgress, id)
	return submissionmodels.Submission{ID: id}, nil
}

func (f *fakeSubmissionStore) MarkSubmitted(ctx context.Context, id primitive.ObjectID, receiptData map[string]interface{}) (submissionmodels.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, id)
	f.receipt = receiptData
	return submissionmodels.Submission{ID: id}, nil
}

func (f *fakeSubmissionStore) MarkFailed(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return submissionmodels.Submission{ID: id}, nil
}

func (f *fakeSubmissionStore) failedIDs() []primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]primitive.ObjectID(nil), f.failed...)
}

type fakeProposalStore struct {
	mu        sync.Mutex
	submitted []primitive.ObjectID
	failed    []primitive.ObjectID
}

func (f *fakeProposalStore) FindOneById(ctx context.Context, id primitive.ObjectID) (proposalmodels.Proposal, error) {
	return proposalmodels.Proposal{ID: id}, nil
}

func (f *fakeProposalStore) MarkSubmitted(ctx context.Context, id primitive.ObjectID, receiptData map[string]interface{}) (proposalmodels.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, id)
	return proposalmodels.Proposal{ID: id}, nil
}

func (f *fakeProposalStore) MarkFailed(ctx context.Context, id primitive.ObjectID) (proposalmodels.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return proposalmodels.Proposal{ID: id}, nil
}

type fakeOpportunityStore struct{}

func (f *fakeOpportunityStore) FindOneById(ctx context.Context, id primitive.ObjectID) (rfpmodels.RfpOpportunity, error) {
	return rfpmodels.RfpOpportunity{ID: id}, nil
}

type fakePortalStore struct{}

func (f *fakePortalStore) FindOneById(ctx context.Context, id primitive.ObjectID) (portalmodels.Portal, error) {
	return portalmodels.Portal{ID: id}, nil
}

type fakeWorkItemStore struct {
	mu                 sync.Mutex
	items              map[primitive.ObjectID]workitemmodels.WorkItem
	createdOrder       []primitive.ObjectID
	cancelledPipelines []string
}

func newFakeWorkItemStore() *fakeWorkItemStore {
	return &fakeWorkItemStore{
		items: make(map[primitive.ObjectID]workitemmodels.WorkItem),
	}
}

func (f *fakeWorkItemStore) CreateWorkItem(ctx context.Context, item workitemmodels.WorkItem) (*workitemmodels.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = primitive.NewObjectID()
	item.Status = workitemmodels.WorkItemStatusPending
	f.items[item.ID] = item
	f.createdOrder = append(f.createdOrder, item.ID)
	created := item
	return &created, nil
}

func (f *fakeWorkItemStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]workitemmodels.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := make([]workitemmodels.WorkItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			found = append(found, item)
		}
	}
	return found, nil
}

func (f *fakeWorkItemStore) CompleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			item.Status = workitemmodels.WorkItemStatusCompleted
			f.items[id] = item
			count++
		}
	}
	return count, nil
}

func (f *fakeWorkItemStore) CancelPendingByPipeline(ctx context.Context, pipelineID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelledPipelines = append(f.cancelledPipelines, pipelineID)
	var count int64
	for id, item := range f.items {
		if item.PipelineID == pipelineID && item.Status == workitemmodels.WorkItemStatusPending {
			item.Status = workitemmodels.WorkItemStatusCancelled
			f.items[id] = item
			count++
		}
	}
	return count, nil
}

func (f *fakeWorkItemStore) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createdOrder)
}

func (f *fakeWorkItemStore) lastCreated() (workitemmodels.WorkItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createdOrder) == 0 {
		return workitemmodels.WorkItem{}, false
	}
	return f.items[f.createdOrder[len(f.createdOrder)-1]], true
}

func (f *fakeWorkItemStore) cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelledPipelines...)
}

type fakeAuditRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAuditRecorder) RecordAction(ctx context.Context, entityType, entityID, action string, details map[string]interface{}, actor string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

type fakeOutcomeNotifier struct {
	mu       sync.Mutex
	outcomes []notification.PipelineOutcome
}

func (f *fakeOutcomeNotifier) NotifyPipelineOutcome(ctx context.Context, outcome notification.PipelineOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeOutcomeNotifier) last() (notification.PipelineOutcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outcomes) == 0 {
		return notification.PipelineOutcome{}, false
	}
	return f.outcomes[len(f.outcomes)-1], true
}

type orchestratorFakes struct {
	pipelines   *fakePipelineStore
	events      *fakeEventStore
	submissions *fakeSubmissionStore
	proposals   *fakeProposalStore
	workItems   *fakeWorkItemStore
	audit       *fakeAuditRecorder
	notifier    *fakeOutcomeNotifier
}

// newTestOrchestrator dựng orchestrator chạy hoàn toàn trên store in-memory.
// Backoff ngắn để test quan sát được retry thật qua timer.
func newTestOrchestrator(maxRetries int, backoff time.Duration) (*Orchestrator, *orchestratorFakes) {
	f := &orchestratorFakes{
		pipelines:   &fakePipelineStore{},
		events:      &fakeEventStore{},
		submissions: &fakeSubmissionStore{},
		proposals:   &fakeProposalStore{},
		workItems:   newFakeWorkItemStore(),
		audit:       &fakeAuditRecorder{},
		notifier:    &fakeOutcomeNotifier{},
	}
	o := &Orchestrator{
		registry:          NewActiveRegistry(),
		pipelines:         f.pipelines,
		events:            f.events,
		submissions:       f.submissions,
		proposals:         f.proposals,
		opportunities:     &fakeOpportunityStore{},
		portals:           &fakePortalStore{},
		workItems:         f.workItems,
		audit:             f.audit,
		notifier:          f.notifier,
		defaultMaxRetries: maxRetries,
		retryBackoff:      backoff,
	}
	o.monitor = newMonitor(o, 20*time.Millisecond)
	return o, f
}

// newRunningPipeline dựng pipeline in-memory đang ở giữa một phase
func newRunningPipeline(pipelineID, phase string, maxRetries int) *ActivePipeline {
	spec, _ := PhaseByName(phase)
	now := time.Now().UnixMilli()
	return &ActivePipeline{
		Record: submissionmodels.SubmissionPipeline{
			PipelineID:    pipelineID,
			SubmissionID:  primitive.NewObjectID(),
			OpportunityID: primitive.NewObjectID(),
			ProposalID:    primitive.NewObjectID(),
			PortalID:      primitive.NewObjectID(),
			CurrentPhase:  phase,
			Status:        submissionmodels.PipelineStatusInProgress,
			Progress:      spec.Baseline,
			WorkItemIDs:   []string{},
			Results:       map[string]map[string]interface{}{},
			MaxRetries:    maxRetries,
			Metadata:      map[string]interface{}{"priority": "normal"},
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func currentGen(p *ActivePipeline) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func stopPipeline(p *ActivePipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimersLocked()
}

func waitFor(t *testing.T, timeout time.Duration, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hết thời gian chờ: %s", desc)
}

func failedWorkItem(p *ActivePipeline, phase, reason string) workitemmodels.WorkItem {
	return workitemmodels.WorkItem{
		ID:           primitive.NewObjectID(),
		PipelineID:   p.Record.PipelineID,
		SubmissionID: p.Record.SubmissionID,
		Phase:        phase,
		Status:       workitemmodels.WorkItemStatusFailed,
		Error:        reason,
		AgentID:      "agent-1",
	}
}

// ============================================================
// Transition / retry / failure của máy trạng thái
// ============================================================

// TestPhaseFailureRetryResetsProgress kiểm tra lỗi retryable trong budget:
// retryCount tăng, progress quay về baseline của phase, event retry được
// ghi và sau backoff phase được thực thi lại với work item mới
func TestPhaseFailureRetryResetsProgress(t *testing.T) {
	o, f := newTestOrchestrator(3, 15*time.Millisecond)
	p := newRunningPipeline("pl-retry", PhaseFilling, 2)
	// Pipeline đã đi quá baseline trong phase trước khi lỗi xảy ra
	p.Record.Progress = 55
	o.registry.Add(p)
	defer stopPipeline(p)

	spec, _ := PhaseByName(PhaseFilling)
	failed := failedWorkItem(p, PhaseFilling, "connection refused by portal")
	o.handlePhaseSettled(p, currentGen(p), spec, []workitemmodels.WorkItem{failed}, []workitemmodels.WorkItem{failed})

	snap := p.Snapshot()
	if snap.RetryCount != 1 {
		t.Errorf("RetryCount = %d sau lỗi retryable đầu tiên, mong đợi 1", snap.RetryCount)
	}
	if snap.Progress != spec.Baseline {
		t.Errorf("Progress = %d khi chờ retry, phải reset về baseline %d", snap.Progress, spec.Baseline)
	}
	if snap.Status != submissionmodels.PipelineStatusInProgress {
		t.Errorf("Status = %s khi chờ retry, mong đợi in_progress", snap.Status)
	}

	retryEvent, ok := f.events.find(submissionmodels.EventRetry)
	if !ok {
		t.Fatal("không có event retry sau lỗi retryable")
	}
	if retryEvent.Level != submissionmodels.EventLevelWarning {
		t.Errorf("event retry level = %s, mong đợi warning", retryEvent.Level)
	}
	if retryEvent.Details["kind"] != string(FailureNetwork) {
		t.Errorf("event retry kind = %v, mong đợi network", retryEvent.Details["kind"])
	}

	// Backoff trôi qua: phase được thực thi lại với work item mới
	waitFor(t, 2*time.Second, "retry tạo work item mới", func() bool {
		return f.workItems.created() == 1
	})
	item, _ := f.workItems.lastCreated()
	if item.Phase != PhaseFilling || item.TaskType != spec.TaskType {
		t.Errorf("work item retry phase=%s taskType=%s, mong đợi %s/%s", item.Phase, item.TaskType, PhaseFilling, spec.TaskType)
	}
	started, ok := f.events.find(submissionmodels.EventPhaseStarted)
	if !ok {
		t.Fatal("không có event phase_started cho đợt retry")
	}
	if started.Details["retry"] != true {
		t.Error("event phase_started của đợt retry phải mang cờ retry")
	}

	// Callback mang gen cũ (trước retry) phải bị bỏ qua
	stale := failedWorkItem(p, PhaseFilling, "connection reset")
	o.handlePhaseSettled(p, 0, spec, []workitemmodels.WorkItem{stale}, []workitemmodels.WorkItem{stale})
	if got := p.Snapshot().RetryCount; got != 1 {
		t.Errorf("RetryCount = %d sau callback gen cũ, mong đợi vẫn 1", got)
	}
}

// TestPhaseRetryExhaustionFailsPipeline kiểm tra hết retry budget: pipeline
// thất bại vĩnh viễn với errorData đầy đủ và đúng chuỗi event
// retry → phase_started → error → pipeline_failed
func TestPhaseRetryExhaustionFailsPipeline(t *testing.T) {
	o, f := newTestOrchestrator(3, 10*time.Millisecond)
	p := newRunningPipeline("pl-exhaust", PhaseUploading, 1)
	o.registry.Add(p)

	spec, _ := PhaseByName(PhaseUploading)
	settleFailed := func(reason string) {
		failed := failedWorkItem(p, PhaseUploading, reason)
		o.handlePhaseSettled(p, currentGen(p), spec, []workitemmodels.WorkItem{failed}, []workitemmodels.WorkItem{failed})
	}

	settleFailed("portal unavailable (503)")
	waitFor(t, 2*time.Second, "retry tạo work item mới", func() bool {
		return f.workItems.created() == 1
	})
	// Đợt retry cũng lỗi: retryCount == maxRetries nên pipeline phải fail
	settleFailed("portal unavailable (503)")

	snap := p.Snapshot()
	if snap.Status != submissionmodels.PipelineStatusFailed {
		t.Fatalf("Status = %s sau khi hết retry budget, mong đợi failed", snap.Status)
	}
	if snap.ErrorData["kind"] != string(FailureServerError) {
		t.Errorf("errorData.kind = %v, mong đợi server_error", snap.ErrorData["kind"])
	}
	if snap.ErrorData["phase"] != PhaseUploading {
		t.Errorf("errorData.phase = %v, mong đợi %s", snap.ErrorData["phase"], PhaseUploading)
	}
	if snap.ErrorData["retryCount"] != 1 {
		t.Errorf("errorData.retryCount = %v, mong đợi 1", snap.ErrorData["retryCount"])
	}
	if _, ok := snap.ErrorData["failedWorkItems"]; !ok {
		t.Error("errorData phải kèm danh sách work items lỗi")
	}

	want := []string{
		submissionmodels.EventRetry,
		submissionmodels.EventPhaseStarted,
		submissionmodels.EventError,
		submissionmodels.EventPipelineFailed,
	}
	got := f.events.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("chuỗi event = %v, mong đợi %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event thứ %d = %s, mong đợi %s (chuỗi đầy đủ %v)", i, got[i], want[i], got)
		}
	}

	if _, exists := o.registry.Get("pl-exhaust"); exists {
		t.Error("pipeline failed vẫn còn trong registry")
	}
	if failed := f.submissions.failedIDs(); len(failed) != 1 || failed[0] != snap.SubmissionID {
		t.Errorf("submission không được đánh dấu failed: %v", failed)
	}
	if cancelled := f.workItems.cancelled(); len(cancelled) != 1 || cancelled[0] != "pl-exhaust" {
		t.Errorf("work items pending không được hủy theo pipeline: %v", cancelled)
	}
	outcome, ok := f.notifier.last()
	if !ok || outcome.Status != "failed" {
		t.Errorf("notification outcome = %+v, mong đợi status failed", outcome)
	}
	persisted, ok := f.pipelines.lastSnapshot()
	if !ok || persisted.Status != submissionmodels.PipelineStatusFailed {
		t.Errorf("bản durable cuối cùng status = %s, mong đợi failed", persisted.Status)
	}
}

// TestPermanentFailureSkipsRetry kiểm tra lỗi permanent không được retry
// dù budget còn nguyên: pipeline fail ngay, retryCount giữ 0
func TestPermanentFailureSkipsRetry(t *testing.T) {
	o, f := newTestOrchestrator(3, time.Minute)
	p := newRunningPipeline("pl-perm", PhaseAuthenticating, 3)
	o.registry.Add(p)

	spec, _ := PhaseByName(PhaseAuthenticating)
	failed := failedWorkItem(p, PhaseAuthenticating, "invalid credentials for portal account")
	o.handlePhaseSettled(p, currentGen(p), spec, []workitemmodels.WorkItem{failed}, []workitemmodels.WorkItem{failed})

	snap := p.Snapshot()
	if snap.Status != submissionmodels.PipelineStatusFailed {
		t.Fatalf("Status = %s sau lỗi permanent, mong đợi failed", snap.Status)
	}
	if snap.RetryCount != 0 {
		t.Errorf("RetryCount = %d sau lỗi permanent, không được retry", snap.RetryCount)
	}
	if snap.ErrorData["kind"] != string(FailurePermanent) {
		t.Errorf("errorData.kind = %v, mong đợi permanent", snap.ErrorData["kind"])
	}
	if _, ok := f.events.find(submissionmodels.EventRetry); ok {
		t.Error("lỗi permanent không được sinh event retry")
	}
	want := []string{submissionmodels.EventError, submissionmodels.EventPipelineFailed}
	got := f.events.eventTypes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("chuỗi event = %v, mong đợi %v", got, want)
	}
}

// TestAdvancePhaseStartsNext kiểm tra phase settle thành công: kết quả
// được lưu theo phase, pipeline chuyển sang phase kế tiếp với baseline mới
// và work item của phase kế tiếp nhận được kết quả phase trước trong input
func TestAdvancePhaseStartsNext(t *testing.T) {
	o, f := newTestOrchestrator(3, time.Minute)
	p := newRunningPipeline("pl-advance", PhasePreflight, 3)
	o.registry.Add(p)
	defer stopPipeline(p)

	spec, _ := PhaseByName(PhasePreflight)
	done := workitemmodels.WorkItem{
		ID:           primitive.NewObjectID(),
		PipelineID:   p.Record.PipelineID,
		SubmissionID: p.Record.SubmissionID,
		Phase:        PhasePreflight,
		Status:       workitemmodels.WorkItemStatusCompleted,
		Result:       map[string]interface{}{"requirementsValidated": true},
		AgentID:      "agent-1",
	}
	o.handlePhaseSettled(p, currentGen(p), spec, []workitemmodels.WorkItem{done}, nil)

	authSpec, _ := PhaseByName(PhaseAuthenticating)
	snap := p.Snapshot()
	if snap.CurrentPhase != PhaseAuthenticating {
		t.Fatalf("CurrentPhase = %s sau preflight thành công, mong đợi authenticating", snap.CurrentPhase)
	}
	if snap.Progress != authSpec.Baseline {
		t.Errorf("Progress = %d khi vào authenticating, mong đợi baseline %d", snap.Progress, authSpec.Baseline)
	}
	if snap.Results[PhasePreflight]["requirementsValidated"] != true {
		t.Error("kết quả preflight không được lưu theo phase")
	}
	if len(snap.WorkItemIDs) != 1 {
		t.Errorf("WorkItemIDs = %v, mong đợi một work item mới của authenticating", snap.WorkItemIDs)
	}

	item, ok := f.workItems.lastCreated()
	if !ok {
		t.Fatal("không có work item nào được tạo cho phase kế tiếp")
	}
	if item.TaskType != workitemmodels.TaskTypePortalAuthentication {
		t.Errorf("work item taskType = %s, mong đợi %s", item.TaskType, workitemmodels.TaskTypePortalAuthentication)
	}
	if item.InputPayload["requirementsValidated"] != true {
		t.Error("input của phase kế tiếp phải chứa kết quả phase trước")
	}

	want := []string{submissionmodels.EventPhaseCompleted, submissionmodels.EventPhaseStarted}
	got := f.events.eventTypes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("chuỗi event = %v, mong đợi %v", got, want)
	}
}

// TestVerifyingSettledCompletesPipeline kiểm tra phase cuối thành công:
// pipeline completed với progress 100, receipt từ verifying được gắn vào
// cả submission lẫn proposal và notification completed được gửi
func TestVerifyingSettledCompletesPipeline(t *testing.T) {
	o, f := newTestOrchestrator(3, time.Minute)
	p := newRunningPipeline("pl-complete", PhaseVerifying, 3)
	o.registry.Add(p)

	spec, _ := PhaseByName(PhaseVerifying)
	done := workitemmodels.WorkItem{
		ID:           primitive.NewObjectID(),
		PipelineID:   p.Record.PipelineID,
		SubmissionID: p.Record.SubmissionID,
		Phase:        PhaseVerifying,
		Status:       workitemmodels.WorkItemStatusCompleted,
		Result: map[string]interface{}{
			"receiptNumber":   "RCPT-2026-0815",
			"confirmationUrl": "https://portal.example.gov/receipts/RCPT-2026-0815",
		},
		AgentID: "agent-7",
	}
	o.handlePhaseSettled(p, currentGen(p), spec, []workitemmodels.WorkItem{done}, nil)

	snap := p.Snapshot()
	if snap.Status != submissionmodels.PipelineStatusCompleted {
		t.Fatalf("Status = %s sau verifying thành công, mong đợi completed", snap.Status)
	}
	if snap.CurrentPhase != PhaseCompleted || snap.Progress != 100 {
		t.Errorf("phase=%s progress=%d, mong đợi completed/100", snap.CurrentPhase, snap.Progress)
	}

	f.submissions.mu.Lock()
	receipt := f.submissions.receipt
	submitted := len(f.submissions.submitted)
	f.submissions.mu.Unlock()
	if submitted != 1 {
		t.Error("submission không được đánh dấu submitted")
	}
	if receipt["receiptNumber"] != "RCPT-2026-0815" {
		t.Errorf("receipt gắn vào submission = %v, mong đợi receiptNumber từ verifying", receipt)
	}
	f.proposals.mu.Lock()
	proposalSubmitted := len(f.proposals.submitted)
	f.proposals.mu.Unlock()
	if proposalSubmitted != 1 {
		t.Error("proposal không được đánh dấu submitted")
	}

	outcome, ok := f.notifier.last()
	if !ok || outcome.Status != "completed" || outcome.Progress != 100 {
		t.Errorf("notification outcome = %+v, mong đợi completed/100", outcome)
	}
	if _, exists := o.registry.Get("pl-complete"); exists {
		t.Error("pipeline completed vẫn còn trong registry")
	}
	if _, ok := f.events.find(submissionmodels.EventPipelineCompleted); !ok {
		t.Error("không có event pipeline_completed")
	}
}

// TestEstimatedCompletionAnchoredToUpdatedAt kiểm tra estimate được neo vào
// mốc mutation gần nhất: hai lần đọc liên tiếp không có mutation xen giữa
// trả về cùng một giá trị
func TestEstimatedCompletionAnchoredToUpdatedAt(t *testing.T) {
	updatedAt := time.Now().UnixMilli()

	first := estimatedCompletion(PhaseFilling, submissionmodels.PipelineStatusInProgress, updatedAt)
	time.Sleep(5 * time.Millisecond)
	second := estimatedCompletion(PhaseFilling, submissionmodels.PipelineStatusInProgress, updatedAt)
	if first != second {
		t.Errorf("hai lần đọc liên tiếp trả về %d rồi %d, estimate phải ổn định khi không có mutation", first, second)
	}
	want := updatedAt + RemainingBudget(PhaseFilling).Milliseconds()
	if first != want {
		t.Errorf("estimate = %d, mong đợi updatedAt + budget còn lại = %d", first, want)
	}

	if got := estimatedCompletion(PhaseCompleted, submissionmodels.PipelineStatusCompleted, updatedAt); got != 0 {
		t.Errorf("estimate = %d với pipeline đã kết thúc, mong đợi 0", got)
	}

	record := submissionmodels.SubmissionPipeline{
		PipelineID:   "pl-estimate",
		CurrentPhase: PhaseUploading,
		Status:       submissionmodels.PipelineStatusInProgress,
		UpdatedAt:    updatedAt,
	}
	a := buildSnapshot(record, true)
	time.Sleep(5 * time.Millisecond)
	b := buildSnapshot(record, true)
	if a.EstimatedCompletion != b.EstimatedCompletion {
		t.Errorf("buildSnapshot trả về estimate %d rồi %d cho cùng record", a.EstimatedCompletion, b.EstimatedCompletion)
	}
}
