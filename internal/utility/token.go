package utility

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"

	"bid_flow/internal/common"
)

// JwtToken chứa data được mã hóa trong JWT token cấp cho agent.
type JwtToken struct {
	AgentID      string `json:"agentId"`
	Time         string `json:"time"`
	RandomNumber string `json:"randomNumber"`
	jwt.StandardClaims
}

// CreateToken tạo JWT token cho agent với secret của hệ thống.
// Trả về map chứa key "token" để caller lưu vào document agent.
func CreateToken(secret string, agentID string, t string, randomNumber string) (map[string]string, error) {
	claims := &JwtToken{
		AgentID:      agentID,
		Time:         t,
		RandomNumber: randomNumber,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return map[string]string{"token": tokenString}, nil
}

// ParseToken kiểm tra chữ ký và parse claims từ token string.
// Chỉ xác thực chữ ký - caller vẫn phải tra cứu agent trong database
// để kiểm tra token còn hiệu lực (token bị thu hồi khi agent register lại).
func ParseToken(secret string, tokenString string) (*JwtToken, error) {
	claims := &JwtToken{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký token không hợp lệ: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, common.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}
	return claims, nil
}
