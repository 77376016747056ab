// Package secure mã hóa credentials đăng nhập portal bằng AES-256-GCM.
// Credentials chỉ tồn tại plaintext trong request initiate và trong response
// claim trả cho agent (qua TLS); mọi bản ghi trong MongoDB đều là blob đã mã hóa.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"bid_flow/internal/global"
)

// CredentialsFieldEnc là key trong inputPayload chứa blob credentials đã mã hóa.
// CredentialsField là key chứa credentials plaintext, chỉ xuất hiện trong
// response claim, không bao giờ được ghi xuống database.
const (
	CredentialsFieldEnc = "credentialsEnc"
	CredentialsField    = "credentials"
)

// getEncryptionKey tạo encryption key từ JWT_SECRET
func getEncryptionKey() []byte {
	secret := global.MongoDB_ServerConfig.JwtSecret
	hash := sha256.Sum256([]byte(secret + "_portal_credentials_encryption_key"))
	return hash[:]
}

// EncryptCredentials mã hóa credentials JSON thành base64 string
func EncryptCredentials(plainJSON []byte) (string, error) {
	key := getEncryptionKey()

	// Tạo AES cipher block
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	// Tạo GCM
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// Tạo nonce (12 bytes cho GCM)
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Encrypt
	ciphertext := gcm.Seal(nonce, nonce, plainJSON, nil)

	// Encode to base64
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredentials giải mã credentials từ base64 string
func DecryptCredentials(encryptedBase64 string) ([]byte, error) {
	key := getEncryptionKey()

	// Decode base64
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	// Tạo AES cipher block
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Tạo GCM
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Kiểm tra độ dài
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	// Extract nonce và ciphertext
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	// Decrypt
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// EncryptCredentialsMap mã hóa credentials dạng map (tiện cho orchestrator)
func EncryptCredentialsMap(creds map[string]interface{}) (string, error) {
	plainJSON, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return EncryptCredentials(plainJSON)
}

// DecryptCredentialsMap giải mã blob về lại map credentials
func DecryptCredentialsMap(encryptedBase64 string) (map[string]interface{}, error) {
	plainJSON, err := DecryptCredentials(encryptedBase64)
	if err != nil {
		return nil, err
	}
	var creds map[string]interface{}
	if err := json.Unmarshal(plainJSON, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return creds, nil
}

// RevealInPayload thay blob credentialsEnc trong inputPayload bằng credentials
// plaintext trên BẢN SAO trả về cho agent. Bản ghi trong database giữ nguyên blob.
func RevealInPayload(inputPayload map[string]interface{}) map[string]interface{} {
	enc, ok := inputPayload[CredentialsFieldEnc].(string)
	if !ok || enc == "" {
		return inputPayload
	}

	creds, err := DecryptCredentialsMap(enc)
	if err != nil {
		// Blob hỏng hoặc key đổi: giữ nguyên payload, agent sẽ fail bước auth
		// và pipeline retry theo phân loại lỗi thông thường
		return inputPayload
	}

	revealed := make(map[string]interface{}, len(inputPayload))
	for k, v := range inputPayload {
		if k == CredentialsFieldEnc {
			continue
		}
		revealed[k] = v
	}
	revealed[CredentialsField] = creds
	return revealed
}
