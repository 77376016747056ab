package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

// Handler đã đăng ký tồn tại suốt vòng đời process nên mỗi test dùng một
// operation riêng để không nhận nhầm event của test khác.

// TestEmitDataChangedFanOut kiểm tra mọi handler đã đăng ký đều nhận event
func TestEmitDataChangedFanOut(t *testing.T) {
	const op = "fanout-test"

	var mu sync.Mutex
	received := make([]DataChangeEvent, 0, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	for i := 0; i < 2; i++ {
		OnDataChanged(func(ctx context.Context, e DataChangeEvent) {
			if e.Operation != op {
				return
			}
			mu.Lock()
			received = append(received, e)
			mu.Unlock()
			wg.Done()
		})
	}

	EmitDataChanged(context.Background(), DataChangeEvent{
		CollectionName: "work_items",
		Operation:      op,
		Document:       "doc",
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler không nhận được event sau 2s")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("%d handler nhận event, mong đợi 2", len(received))
	}
	for _, e := range received {
		if e.CollectionName != "work_items" {
			t.Errorf("event nhận được không khớp: %+v", e)
		}
	}
}

// TestEmitDataChangedRecoversPanic kiểm tra handler panic không làm sập
// app và không chặn các handler khác
func TestEmitDataChangedRecoversPanic(t *testing.T) {
	const op = "panic-test"

	OnDataChanged(func(ctx context.Context, e DataChangeEvent) {
		if e.Operation == op {
			panic("handler hỏng")
		}
	})

	ok := make(chan struct{})
	OnDataChanged(func(ctx context.Context, e DataChangeEvent) {
		if e.Operation == op {
			close(ok)
		}
	})

	EmitDataChanged(context.Background(), DataChangeEvent{Operation: op})

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("handler sau handler panic không nhận được event")
	}
}
