package notification

import (
	"testing"

	"bid_flow/config"
)

// TestDashboardActions kiểm tra dựng link dashboard cho thông báo
func TestDashboardActions(t *testing.T) {
	if actions := dashboardActions(nil, "pl-1"); actions != nil {
		t.Errorf("config nil phải trả về nil, got %v", actions)
	}
	if actions := dashboardActions(&config.Configuration{}, "pl-1"); actions != nil {
		t.Errorf("DashboardURL rỗng phải trả về nil, got %v", actions)
	}

	cfg := &config.Configuration{DashboardURL: "http://localhost:5173"}
	actions := dashboardActions(cfg, "pl-1")
	if len(actions) != 1 {
		t.Fatalf("dashboardActions trả về %d action, mong đợi 1", len(actions))
	}
	if actions[0].URL != "http://localhost:5173/pipelines/pl-1" {
		t.Errorf("URL = %q, mong đợi link tới trang pipeline", actions[0].URL)
	}
	if actions[0].Label == "" {
		t.Error("action phải có label hiển thị")
	}
}
