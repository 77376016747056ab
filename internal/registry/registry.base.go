// Package registry giữ các singleton của ứng dụng sau một registry pattern
// generic. Cùng một implementation dùng lại được cho nhiều loại đối tượng:
// collection MongoDB, service, handler.
package registry

import (
	"fmt"
	"sync"

	"bid_flow/internal/common"
)

// Registry quản lý item theo tên sau khóa đọc ghi (sync.RWMutex),
// gọi đồng thời từ nhiều goroutine đều an toàn.
//
// Example:
//
//	colRegistry := NewRegistry[*mongo.Collection]()
//	colRegistry.Register("submissions", col)
//	if col, exists := colRegistry.Get("submissions"); exists {
//	    // dùng col
//	}
type Registry[T any] struct {
	items map[string]T // Item theo tên
	mu    sync.RWMutex // Khóa đọc ghi cho items
}

// NewRegistry dựng một registry rỗng cho kiểu T.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// ====================================
// CÁC PHƯƠNG THỨC CỦA REGISTRY
// ====================================

// Register đưa item vào registry dưới tên đã cho, tên trùng thì ghi đè.
//
// Returns:
//   - isNew: false khi ghi đè một item đã có
//   - err: name rỗng là lỗi
//
// Thread-safety: Safe for concurrent use
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get tra item theo tên, boolean thứ hai cho biết tên có trong registry không.
//
// Thread-safety: Safe for concurrent use
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// GetOrCreate lấy item theo tên, nếu không tồn tại sẽ tạo mới thông qua creator function.
//
// Thread-safety: Safe for concurrent use
//
// Example:
//
//	col, err := registry.GetOrCreate("audit_logs", func() (*mongo.Collection, error) {
//	    return db.Collection("audit_logs"), nil
//	})
func (r *Registry[T]) GetOrCreate(name string, creator func() (T, error)) (item T, err error) {
	if name == "" {
		return item, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existingItem, exists := r.items[name]; exists {
		return existingItem, nil
	}

	newItem, err := creator()
	if err != nil {
		return item, fmt.Errorf("failed to create item: %w", err)
	}

	r.items[name] = newItem
	return newItem, nil
}

// Keys trả về danh sách tên của tất cả items đã đăng ký.
// Thứ tự trả về không được đảm bảo.
//
// Thread-safety: Safe for concurrent use
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.items))
	for name := range r.items {
		keys = append(keys, name)
	}
	return keys
}

// Count trả về số lượng items hiện có trong registry.
//
// Thread-safety: Safe for concurrent use
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear gỡ một item khỏi registry.
// Truyền cleanup khi item giữ tài nguyên cần giải phóng trước lúc gỡ.
//
// Returns:
//   - deleted: false khi tên không có trong registry
//   - err: lỗi từ cleanup, item khi đó vẫn ở lại registry
//
// Thread-safety: Safe for concurrent use
func (r *Registry[T]) Clear(name string, cleanup func(T) error) (deleted bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[name]
	if !exists {
		return false, nil
	}

	if cleanup != nil {
		if err := cleanup(item); err != nil {
			return false, fmt.Errorf("failed to cleanup item %s: %w", name, err)
		}
	}

	delete(r.items, name)
	return true, nil
}

// ClearAll làm rỗng registry.
// Có cleanup thì chạy cho từng item; một item cleanup lỗi là giữ nguyên map.
//
// Returns:
//   - count: Số item đã gỡ
//   - err: Gom các lỗi cleanup nếu có
//
// Thread-safety: Safe for concurrent use
func (r *Registry[T]) ClearAll(cleanup func(T) error) (count int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count = len(r.items)
	if count == 0 {
		return 0, nil
	}

	if cleanup != nil {
		var errs []error
		for name, item := range r.items {
			if err := cleanup(item); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup %s: %w", name, err))
			}
		}
		if len(errs) > 0 {
			return 0, fmt.Errorf("cleanup errors occurred: %v", errs)
		}
	}

	r.items = make(map[string]T)
	return count, nil
}
