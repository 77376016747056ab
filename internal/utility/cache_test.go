package utility

import (
	"testing"
	"time"
)

// TestCacheSetGet kiểm tra set/get trong hạn TTL
func TestCacheSetGet(t *testing.T) {
	cache := NewCache(1*time.Minute, 1*time.Minute)

	cache.Set("agent_token:abc", "agent-1")

	got, found := cache.Get("agent_token:abc")
	if !found {
		t.Fatal("Phải tìm thấy item vừa set trong hạn TTL")
	}
	if got.(string) != "agent-1" {
		t.Errorf("Giá trị cache sai: got %v, want agent-1", got)
	}

	if _, found := cache.Get("agent_token:khac"); found {
		t.Error("Key chưa set không được phép tồn tại trong cache")
	}
}

// TestCacheExpiry kiểm tra item quá hạn TTL coi như không tồn tại
func TestCacheExpiry(t *testing.T) {
	cache := NewCache(50*time.Millisecond, 1*time.Minute)

	cache.Set("k", 42)
	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get("k"); found {
		t.Error("Item quá hạn TTL phải bị coi như không tồn tại")
	}
}

// TestCacheSetRefreshesExpiry kiểm tra set lại key thì TTL được tính lại từ đầu
func TestCacheSetRefreshesExpiry(t *testing.T) {
	cache := NewCache(500*time.Millisecond, 1*time.Minute)

	cache.Set("k", "v1")
	time.Sleep(300 * time.Millisecond)
	cache.Set("k", "v2")
	time.Sleep(300 * time.Millisecond)

	// 600ms sau lần set đầu nhưng mới 300ms sau lần set thứ hai
	got, found := cache.Get("k")
	if !found {
		t.Fatal("Set lại key phải gia hạn TTL cho item")
	}
	if got.(string) != "v2" {
		t.Errorf("Giá trị sau khi set lại sai: got %v, want v2", got)
	}
}
