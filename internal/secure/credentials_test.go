package secure

import (
	"strings"
	"testing"

	"bid_flow/config"
	"bid_flow/internal/global"
)

func setTestSecret(t *testing.T, secret string) {
	t.Helper()
	previous := global.MongoDB_ServerConfig
	global.MongoDB_ServerConfig = &config.Configuration{JwtSecret: secret}
	t.Cleanup(func() { global.MongoDB_ServerConfig = previous })
}

// TestEncryptDecryptRoundTrip kiểm tra mã hóa rồi giải mã trả về đúng
// credentials gốc, và blob không chứa plaintext
func TestEncryptDecryptRoundTrip(t *testing.T) {
	setTestSecret(t, "test-secret-for-unit-tests")

	creds := map[string]interface{}{
		"username": "vendor@example.com",
		"password": "super-secret-password",
		"mfaCode":  "123456",
	}

	blob, err := EncryptCredentialsMap(creds)
	if err != nil {
		t.Fatalf("EncryptCredentialsMap lỗi: %v", err)
	}
	if blob == "" {
		t.Fatal("blob mã hóa rỗng")
	}
	if strings.Contains(blob, "super-secret-password") {
		t.Error("blob mã hóa không được chứa password plaintext")
	}

	decrypted, err := DecryptCredentialsMap(blob)
	if err != nil {
		t.Fatalf("DecryptCredentialsMap lỗi: %v", err)
	}
	if decrypted["username"] != "vendor@example.com" {
		t.Errorf("username = %v, mong đợi vendor@example.com", decrypted["username"])
	}
	if decrypted["password"] != "super-secret-password" {
		t.Errorf("password sau giải mã không khớp bản gốc: %v", decrypted["password"])
	}
	if decrypted["mfaCode"] != "123456" {
		t.Errorf("mfaCode sau giải mã không khớp bản gốc: %v", decrypted["mfaCode"])
	}
}

// TestEncryptNonceUnique kiểm tra mỗi lần mã hóa sinh nonce mới:
// cùng credentials nhưng blob khác nhau
func TestEncryptNonceUnique(t *testing.T) {
	setTestSecret(t, "test-secret-for-unit-tests")

	plain := []byte(`{"username":"a","password":"b"}`)
	first, err := EncryptCredentials(plain)
	if err != nil {
		t.Fatalf("EncryptCredentials lỗi: %v", err)
	}
	second, err := EncryptCredentials(plain)
	if err != nil {
		t.Fatalf("EncryptCredentials lần hai lỗi: %v", err)
	}
	if first == second {
		t.Error("hai lần mã hóa cùng plaintext phải cho blob khác nhau (nonce ngẫu nhiên)")
	}
}

// TestDecryptRejectsTampered kiểm tra GCM từ chối blob hỏng, blob quá ngắn
// và blob không phải base64
func TestDecryptRejectsTampered(t *testing.T) {
	setTestSecret(t, "test-secret-for-unit-tests")

	blob, err := EncryptCredentials([]byte(`{"username":"a"}`))
	if err != nil {
		t.Fatalf("EncryptCredentials lỗi: %v", err)
	}

	// Sửa một ký tự trong blob
	tampered := []byte(blob)
	if tampered[len(tampered)-5] == 'A' {
		tampered[len(tampered)-5] = 'B'
	} else {
		tampered[len(tampered)-5] = 'A'
	}
	if _, err := DecryptCredentials(string(tampered)); err == nil {
		t.Error("DecryptCredentials phải từ chối blob đã bị sửa")
	}

	if _, err := DecryptCredentials("dG9vc2hvcnQ="); err == nil {
		t.Error("DecryptCredentials phải từ chối blob ngắn hơn nonce")
	}
	if _, err := DecryptCredentials("not-valid-base64!!!"); err == nil {
		t.Error("DecryptCredentials phải từ chối chuỗi không phải base64")
	}
}

// TestDecryptWrongKey kiểm tra blob mã hóa bằng secret khác không giải mã được
func TestDecryptWrongKey(t *testing.T) {
	setTestSecret(t, "secret-one")
	blob, err := EncryptCredentials([]byte(`{"username":"a"}`))
	if err != nil {
		t.Fatalf("EncryptCredentials lỗi: %v", err)
	}

	setTestSecret(t, "secret-two")
	if _, err := DecryptCredentials(blob); err == nil {
		t.Error("DecryptCredentials phải thất bại khi JWT_SECRET đổi")
	}
}

// TestRevealInPayload kiểm tra thay blob bằng credentials plaintext trên
// bản sao: payload gốc giữ nguyên blob, bản sao không còn blob
func TestRevealInPayload(t *testing.T) {
	setTestSecret(t, "test-secret-for-unit-tests")

	blob, err := EncryptCredentialsMap(map[string]interface{}{
		"username": "vendor@example.com",
		"password": "super-secret",
	})
	if err != nil {
		t.Fatalf("EncryptCredentialsMap lỗi: %v", err)
	}

	payload := map[string]interface{}{
		"pipelineId":        "pl-1",
		"portalName":        "SAM.gov",
		CredentialsFieldEnc: blob,
	}

	revealed := RevealInPayload(payload)

	if _, ok := revealed[CredentialsFieldEnc]; ok {
		t.Error("bản sao trả cho agent không được chứa blob mã hóa")
	}
	creds, ok := revealed[CredentialsField].(map[string]interface{})
	if !ok {
		t.Fatal("bản sao phải chứa credentials plaintext dạng map")
	}
	if creds["password"] != "super-secret" {
		t.Errorf("password sau reveal = %v, mong đợi super-secret", creds["password"])
	}
	if revealed["portalName"] != "SAM.gov" {
		t.Error("các field khác của payload phải được giữ nguyên")
	}

	// Payload gốc (bản ghi trong DB) không được đụng tới
	if payload[CredentialsFieldEnc] != blob {
		t.Error("payload gốc phải giữ nguyên blob mã hóa")
	}
	if _, ok := payload[CredentialsField]; ok {
		t.Error("payload gốc không được chứa credentials plaintext")
	}
}

// TestRevealInPayloadPassthrough kiểm tra payload không có blob hoặc blob
// hỏng được trả về nguyên vẹn
func TestRevealInPayloadPassthrough(t *testing.T) {
	setTestSecret(t, "test-secret-for-unit-tests")

	payload := map[string]interface{}{"pipelineId": "pl-1"}
	revealed := RevealInPayload(payload)
	if _, ok := revealed[CredentialsField]; ok {
		t.Error("payload không có blob thì không được thêm credentials")
	}

	// Blob hỏng: giữ nguyên payload để agent fail bước auth và pipeline retry
	payload = map[string]interface{}{CredentialsFieldEnc: "corrupted-blob"}
	revealed = RevealInPayload(payload)
	if revealed[CredentialsFieldEnc] != "corrupted-blob" {
		t.Error("blob hỏng phải được giữ nguyên trong payload")
	}
}
