package pipeline

import (
	"context"
	"sync"
	"time"

	"bid_flow/internal/api/events"
	workitemmodels "bid_flow/internal/api/workitem/models"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// phaseWatch theo dõi các work items của một đợt thực thi phase.
// Mỗi đợt (kể cả retry) có watch riêng; watch cũ bị stop trước khi arm watch mới.
type phaseWatch struct {
	poke     chan struct{} // Push channel: có event work item terminal thì re-check ngay
	done     chan struct{} // Đóng khi watch bị stop
	stopOnce sync.Once
}

func newPhaseWatch() *phaseWatch {
	return &phaseWatch{
		poke: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// stop dừng watch, an toàn khi gọi nhiều lần
func (w *phaseWatch) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// notify yêu cầu watch re-check ngay, không block nếu đã có yêu cầu chờ sẵn
func (w *phaseWatch) notify() {
	select {
	case w.poke <- struct{}{}:
	default:
	}
}

// Monitor phát hiện hoàn thành phase theo ba tầng: push (data change event
// khi work item đạt trạng thái terminal), reconciliation sweep định kỳ để
// không kẹt nếu lỡ event, và timeout tuyệt đối per-phase.
type Monitor struct {
	orch         *Orchestrator
	pollInterval time.Duration
}

func newMonitor(orch *Orchestrator, pollInterval time.Duration) *Monitor {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Monitor{
		orch:         orch,
		pollInterval: pollInterval,
	}
}

// Start đăng ký push channel với event bus. Gọi đúng một lần khi khởi động.
func (m *Monitor) Start() {
	events.OnDataChanged(m.onDataChanged)
	logger.GetAppLogger().Info("📡 [MONITOR] Completion monitor đã đăng ký push channel")
}

// onDataChanged nhận data change event từ base service. Work item của một
// pipeline active đạt trạng thái terminal thì poke watch của pipeline đó
// để re-check ngay thay vì đợi sweep.
func (m *Monitor) onDataChanged(ctx context.Context, e events.DataChangeEvent) {
	if e.CollectionName != global.MongoDB_ColNames.WorkItems {
		return
	}
	item, ok := e.Document.(workitemmodels.WorkItem)
	if !ok {
		return
	}
	switch item.Status {
	case workitemmodels.WorkItemStatusCompleted,
		workitemmodels.WorkItemStatusFailed,
		workitemmodels.WorkItemStatusCancelled:
	default:
		return
	}

	p, exists := m.orch.registry.Get(item.PipelineID)
	if !exists {
		return
	}

	p.mu.Lock()
	w := p.watch
	p.mu.Unlock()
	if w != nil {
		w.notify()
	}
}

// arm khởi động watch cho một đợt thực thi phase. gen là generation của
// đợt này; mọi callback mang gen để orchestrator bỏ qua callback cũ.
func (m *Monitor) arm(p *ActivePipeline, gen int, phase PhaseSpec, itemIDs []primitive.ObjectID) *phaseWatch {
	w := newPhaseWatch()
	go m.run(w, p, gen, phase, itemIDs)
	return w
}

// run là vòng lặp của watch: chờ push/sweep/timeout, đọc lại trạng thái
// các work items và báo orchestrator khi phase settle.
func (m *Monitor) run(w *phaseWatch, p *ActivePipeline, gen int, phase PhaseSpec, itemIDs []primitive.ObjectID) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	timeout := time.NewTimer(phase.Timeout)
	defer timeout.Stop()

	log := logger.GetAppLogger()

	for {
		select {
		case <-w.done:
			return
		case <-timeout.C:
			m.orch.handlePhaseTimeout(p, gen, phase)
			return
		case <-w.poke:
		case <-ticker.C:
		}

		items, err := m.orch.workItems.FindByIDs(context.Background(), itemIDs)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"pipelineId": p.Record.PipelineID,
				"phase":      phase.Name,
				"error":      err.Error(),
			}).Warn("📡 [MONITOR] Không đọc được trạng thái work items, sẽ thử lại ở sweep sau")
			continue
		}

		settled, failedItems := evaluateItems(items, len(itemIDs))
		if !settled {
			continue
		}

		m.orch.handlePhaseSettled(p, gen, phase, items, failedItems)
		return
	}
}

// evaluateItems kiểm tra một đợt work items đã settle chưa.
// Settle nghĩa là tất cả items đạt trạng thái terminal (completed, failed
// hoặc cancelled); failedItems chứa các item không thành công.
func evaluateItems(items []workitemmodels.WorkItem, expected int) (settled bool, failedItems []workitemmodels.WorkItem) {
	if expected == 0 || len(items) < expected {
		return false, nil
	}
	for _, item := range items {
		switch item.Status {
		case workitemmodels.WorkItemStatusCompleted:
		case workitemmodels.WorkItemStatusFailed, workitemmodels.WorkItemStatusCancelled:
			failedItems = append(failedItems, item)
		default:
			return false, nil
		}
	}
	return true, failedItems
}
