package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// TestRegistryRegisterAndGet kiểm tra đăng ký và lấy item cơ bản
func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry[string]()

	isNew, err := r.Register("alpha", "first")
	if err != nil {
		t.Fatalf("Register lỗi: %v", err)
	}
	if !isNew {
		t.Error("Register lần đầu phải trả về isNew=true")
	}

	// Ghi đè item cũ
	isNew, err = r.Register("alpha", "second")
	if err != nil {
		t.Fatalf("Register lỗi: %v", err)
	}
	if isNew {
		t.Error("Register ghi đè phải trả về isNew=false")
	}

	value, exists := r.Get("alpha")
	if !exists {
		t.Fatal("Get không tìm thấy item vừa đăng ký")
	}
	if value != "second" {
		t.Errorf("Get trả về %q, mong đợi %q", value, "second")
	}

	if _, exists := r.Get("missing"); exists {
		t.Error("Get phải trả về exists=false với key không tồn tại")
	}
}

// TestRegistryRegisterEmptyName kiểm tra validate tên rỗng
func TestRegistryRegisterEmptyName(t *testing.T) {
	r := NewRegistry[int]()

	if _, err := r.Register("", 1); err == nil {
		t.Error("Register với name rỗng phải trả về lỗi")
	}
	if _, err := r.GetOrCreate("", func() (int, error) { return 0, nil }); err == nil {
		t.Error("GetOrCreate với name rỗng phải trả về lỗi")
	}
}

// TestRegistryGetOrCreate kiểm tra tạo mới qua creator function
func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry[int]()
	calls := 0

	creator := func() (int, error) {
		calls++
		return 42, nil
	}

	value, err := r.GetOrCreate("counter", creator)
	if err != nil {
		t.Fatalf("GetOrCreate lỗi: %v", err)
	}
	if value != 42 {
		t.Errorf("GetOrCreate trả về %d, mong đợi 42", value)
	}

	// Gọi lần hai phải trả về item đã có, không gọi lại creator
	value, err = r.GetOrCreate("counter", creator)
	if err != nil {
		t.Fatalf("GetOrCreate lần hai lỗi: %v", err)
	}
	if value != 42 {
		t.Errorf("GetOrCreate lần hai trả về %d, mong đợi 42", value)
	}
	if calls != 1 {
		t.Errorf("creator được gọi %d lần, mong đợi 1", calls)
	}

	// Creator trả về lỗi thì không lưu item
	wantErr := errors.New("creator failed")
	if _, err := r.GetOrCreate("broken", func() (int, error) { return 0, wantErr }); err == nil {
		t.Error("GetOrCreate phải propagate lỗi từ creator")
	}
	if _, exists := r.Get("broken"); exists {
		t.Error("item không được lưu khi creator lỗi")
	}
}

// TestRegistryKeysAndCount kiểm tra liệt kê keys và đếm items
func TestRegistryKeysAndCount(t *testing.T) {
	r := NewRegistry[bool]()

	if r.Count() != 0 {
		t.Errorf("registry mới phải có Count=0, got %d", r.Count())
	}

	names := []string{"one", "two", "three"}
	for _, n := range names {
		if _, err := r.Register(n, true); err != nil {
			t.Fatalf("Register %s lỗi: %v", n, err)
		}
	}

	if r.Count() != len(names) {
		t.Errorf("Count = %d, mong đợi %d", r.Count(), len(names))
	}

	keys := r.Keys()
	if len(keys) != len(names) {
		t.Fatalf("Keys trả về %d phần tử, mong đợi %d", len(keys), len(names))
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, n := range names {
		if !seen[n] {
			t.Errorf("Keys thiếu %q", n)
		}
	}
}

// TestRegistryClear kiểm tra xóa item với và không có cleanup
func TestRegistryClear(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("victim", "data")

	// Xóa item không tồn tại
	deleted, err := r.Clear("ghost", nil)
	if err != nil {
		t.Fatalf("Clear lỗi: %v", err)
	}
	if deleted {
		t.Error("Clear item không tồn tại phải trả về deleted=false")
	}

	// Cleanup lỗi thì item vẫn còn
	cleanupErr := errors.New("resource busy")
	deleted, err = r.Clear("victim", func(string) error { return cleanupErr })
	if err == nil {
		t.Error("Clear phải propagate lỗi cleanup")
	}
	if deleted {
		t.Error("Clear không được xóa item khi cleanup lỗi")
	}
	if _, exists := r.Get("victim"); !exists {
		t.Error("item phải còn trong registry sau khi cleanup lỗi")
	}

	// Cleanup thành công thì item bị xóa
	cleaned := false
	deleted, err = r.Clear("victim", func(v string) error {
		cleaned = v == "data"
		return nil
	})
	if err != nil {
		t.Fatalf("Clear lỗi: %v", err)
	}
	if !deleted || !cleaned {
		t.Error("Clear phải gọi cleanup với item và xóa item khỏi registry")
	}
	if _, exists := r.Get("victim"); exists {
		t.Error("item vẫn còn sau khi Clear thành công")
	}
}

// TestRegistryClearAll kiểm tra xóa toàn bộ items
func TestRegistryClearAll(t *testing.T) {
	r := NewRegistry[int]()
	for i := 0; i < 5; i++ {
		r.Register(fmt.Sprintf("item-%d", i), i)
	}

	count, err := r.ClearAll(nil)
	if err != nil {
		t.Fatalf("ClearAll lỗi: %v", err)
	}
	if count != 5 {
		t.Errorf("ClearAll trả về count=%d, mong đợi 5", count)
	}
	if r.Count() != 0 {
		t.Errorf("registry phải rỗng sau ClearAll, Count=%d", r.Count())
	}

	// ClearAll trên registry rỗng
	count, err = r.ClearAll(nil)
	if err != nil {
		t.Fatalf("ClearAll registry rỗng lỗi: %v", err)
	}
	if count != 0 {
		t.Errorf("ClearAll registry rỗng trả về count=%d, mong đợi 0", count)
	}
}

// TestRegistryConcurrentAccess kiểm tra thread-safety với truy cập đồng thời
func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry[int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			r.Register(fmt.Sprintf("key-%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			r.Get(fmt.Sprintf("key-%d", n))
		}(i)
	}
	wg.Wait()

	if r.Count() != 50 {
		t.Errorf("Count = %d sau concurrent Register, mong đợi 50", r.Count())
	}
}
