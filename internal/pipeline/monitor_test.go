package pipeline

import (
	"testing"

	workitemmodels "bid_flow/internal/api/workitem/models"
)

func itemWithStatus(status string) workitemmodels.WorkItem {
	return workitemmodels.WorkItem{Status: status}
}

// TestEvaluateItemsNotSettled kiểm tra các trường hợp phase chưa settle:
// chưa có item nào, đọc thiếu item, hoặc còn item chưa terminal
func TestEvaluateItemsNotSettled(t *testing.T) {
	if settled, _ := evaluateItems(nil, 0); settled {
		t.Error("expected=0 không được coi là settled")
	}

	// Đọc được ít item hơn số đang theo dõi (item chưa kịp ghi xuống DB)
	items := []workitemmodels.WorkItem{itemWithStatus(workitemmodels.WorkItemStatusCompleted)}
	if settled, _ := evaluateItems(items, 2); settled {
		t.Error("thiếu item không được coi là settled")
	}

	// Còn item pending hoặc in_progress
	for _, status := range []string{workitemmodels.WorkItemStatusPending, workitemmodels.WorkItemStatusInProgress} {
		items := []workitemmodels.WorkItem{
			itemWithStatus(workitemmodels.WorkItemStatusCompleted),
			itemWithStatus(status),
		}
		settled, failedItems := evaluateItems(items, 2)
		if settled {
			t.Errorf("còn item %s không được coi là settled", status)
		}
		if failedItems != nil {
			t.Errorf("failedItems phải nil khi chưa settle, got %v", failedItems)
		}
	}
}

// TestEvaluateItemsAllCompleted kiểm tra phase settle thành công khi
// mọi item đều completed
func TestEvaluateItemsAllCompleted(t *testing.T) {
	items := []workitemmodels.WorkItem{
		itemWithStatus(workitemmodels.WorkItemStatusCompleted),
		itemWithStatus(workitemmodels.WorkItemStatusCompleted),
	}
	settled, failedItems := evaluateItems(items, 2)
	if !settled {
		t.Fatal("mọi item completed phải được coi là settled")
	}
	if len(failedItems) != 0 {
		t.Errorf("failedItems = %d item, mong đợi 0", len(failedItems))
	}
}

// TestEvaluateItemsWithFailures kiểm tra item failed và cancelled đều
// được gom vào failedItems khi phase settle
func TestEvaluateItemsWithFailures(t *testing.T) {
	failed := itemWithStatus(workitemmodels.WorkItemStatusFailed)
	failed.Error = "portal returned server error"
	cancelled := itemWithStatus(workitemmodels.WorkItemStatusCancelled)

	items := []workitemmodels.WorkItem{
		itemWithStatus(workitemmodels.WorkItemStatusCompleted),
		failed,
		cancelled,
	}
	settled, failedItems := evaluateItems(items, 3)
	if !settled {
		t.Fatal("mọi item terminal phải được coi là settled")
	}
	if len(failedItems) != 2 {
		t.Fatalf("failedItems = %d item, mong đợi 2", len(failedItems))
	}
	if failedItems[0].Status != workitemmodels.WorkItemStatusFailed {
		t.Errorf("failedItems[0].Status = %s, mong đợi failed", failedItems[0].Status)
	}
	if failedItems[0].Error != "portal returned server error" {
		t.Errorf("failedItems[0].Error = %q, lỗi gốc của item phải được giữ nguyên", failedItems[0].Error)
	}
	if failedItems[1].Status != workitemmodels.WorkItemStatusCancelled {
		t.Errorf("failedItems[1].Status = %s, mong đợi cancelled", failedItems[1].Status)
	}
}

// TestPhaseWatchNotifyNonBlocking kiểm tra notify không block khi đã có
// yêu cầu re-check chờ sẵn trong channel
func TestPhaseWatchNotifyNonBlocking(t *testing.T) {
	w := newPhaseWatch()

	// Không có ai đọc poke channel; notify nhiều lần vẫn không được block
	w.notify()
	w.notify()
	w.notify()

	select {
	case <-w.poke:
	default:
		t.Error("poke channel phải có đúng một yêu cầu chờ sẵn")
	}
	select {
	case <-w.poke:
		t.Error("poke channel chỉ được giữ tối đa một yêu cầu")
	default:
	}
}

// TestPhaseWatchStopIdempotent kiểm tra stop an toàn khi gọi nhiều lần
func TestPhaseWatchStopIdempotent(t *testing.T) {
	w := newPhaseWatch()
	w.stop()
	w.stop()

	select {
	case <-w.done:
	default:
		t.Error("done channel phải đóng sau stop")
	}
}
