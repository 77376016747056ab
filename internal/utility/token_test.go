package utility

import (
	"testing"

	"bid_flow/internal/common"
)

// TestTokenRoundTrip kiểm tra tạo token rồi parse lại trả về đúng claims
func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	result, err := CreateToken(secret, "agent-007", "1756000000000", "424242")
	if err != nil {
		t.Fatalf("CreateToken lỗi: %v", err)
	}
	tokenString, ok := result["token"]
	if !ok || tokenString == "" {
		t.Fatal("CreateToken phải trả về map chứa key token")
	}

	claims, err := ParseToken(secret, tokenString)
	if err != nil {
		t.Fatalf("ParseToken lỗi: %v", err)
	}
	if claims.AgentID != "agent-007" {
		t.Errorf("AgentID = %q, mong đợi agent-007", claims.AgentID)
	}
	if claims.Time != "1756000000000" {
		t.Errorf("Time = %q, mong đợi 1756000000000", claims.Time)
	}
	if claims.RandomNumber != "424242" {
		t.Errorf("RandomNumber = %q, mong đợi 424242", claims.RandomNumber)
	}
}

// TestParseTokenRejectsInvalid kiểm tra ParseToken từ chối token sai
// chữ ký hoặc không phải JWT
func TestParseTokenRejectsInvalid(t *testing.T) {
	result, err := CreateToken("secret-one", "agent-007", "0", "1")
	if err != nil {
		t.Fatalf("CreateToken lỗi: %v", err)
	}

	if _, err := ParseToken("secret-two", result["token"]); err != common.ErrTokenInvalid {
		t.Errorf("token ký bằng secret khác phải trả về ErrTokenInvalid, got %v", err)
	}
	if _, err := ParseToken("secret-one", "not-a-jwt"); err != common.ErrTokenInvalid {
		t.Errorf("chuỗi không phải JWT phải trả về ErrTokenInvalid, got %v", err)
	}
	if _, err := ParseToken("secret-one", ""); err != common.ErrTokenInvalid {
		t.Errorf("token rỗng phải trả về ErrTokenInvalid, got %v", err)
	}
}
