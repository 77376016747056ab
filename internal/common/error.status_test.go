package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestNewError kiểm tra NewError giữ đủ mã lỗi, message, status code và details
func TestNewError(t *testing.T) {
	err := NewError(ErrCodePipelineState, "Pipeline đang chạy", StatusConflict, "chi tiết")

	var detailed *Error
	require.True(t, errors.As(err, &detailed), "NewError phải trả về *Error")
	assert.Equal(t, "PIPE_001", detailed.Code.Code, "Mã lỗi phải giữ nguyên")
	assert.Equal(t, "Pipeline đang chạy", detailed.Error(), "Error() phải trả về message")
	assert.Equal(t, StatusConflict, detailed.StatusCode, "Status code phải giữ nguyên")
	assert.Equal(t, "chi tiết", detailed.Details, "Details phải giữ nguyên")
}

// TestErrorIs kiểm tra semantics errors.Is của *Error: so khớp theo cặp (code, message)
func TestErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"cùng code và message", NewError(ErrCodeAuthToken, "Token không hợp lệ", StatusUnauthorized, nil), ErrTokenInvalid, true},
		{"cùng code khác message", ErrTokenInvalid, ErrTokenExpired, false},
		{"khác code", ErrTokenInvalid, ErrAgentUnknown, false},
		{"target không phải *Error", ErrTokenInvalid, errors.New("Token không hợp lệ"), false},
		{"ErrNotFound khớp lỗi thuần cùng message", ErrNotFound, errors.New("Không tìm thấy dữ liệu"), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.Is(tc.err, tc.target), "errors.Is phải trả về %v", tc.want)
		})
	}
}

// TestConvertMongoErrorSentinels kiểm tra ánh xạ lỗi MongoDB sang các sentinel hệ thống
func TestConvertMongoErrorSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"command error dải connection", mongo.CommandError{Code: 112}, ErrMongoConnection},
		{"command error dải auth", mongo.CommandError{Code: 211}, ErrMongoAuth},
		{"command error dải query", mongo.CommandError{Code: 301}, ErrMongoQuery},
		{"command error dải write", mongo.CommandError{Code: 401}, ErrMongoWrite},
		{"command error dải system", mongo.CommandError{Code: 500}, ErrMongoSystem},
		{"duplicate key", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, ErrMongoDuplicate},
		{"network label", mongo.CommandError{Labels: []string{"NetworkError"}}, ErrMongoNetwork},
		{"context deadline", context.DeadlineExceeded, ErrMongoTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, ConvertMongoError(tc.err), tc.want, "Phải chuyển thành %v", tc.want)
		})
	}
}

// TestConvertMongoErrorNotFound kiểm tra ErrNotFound được giữ nguyên để caller phân biệt được
func TestConvertMongoErrorNotFound(t *testing.T) {
	assert.NoError(t, ConvertMongoError(nil), "nil phải giữ nguyên nil")

	assert.Same(t, ErrNotFound, ConvertMongoError(ErrNotFound), "ErrNotFound phải được trả về nguyên vẹn")

	plain := errors.New("Không tìm thấy dữ liệu")
	assert.Same(t, ErrNotFound, ConvertMongoError(plain), "Lỗi thuần cùng message phải chuyển thành sentinel ErrNotFound")
}

// TestConvertMongoErrorUnknown kiểm tra lỗi không nhận diện được rơi về lỗi database chung
func TestConvertMongoErrorUnknown(t *testing.T) {
	cause := errors.New("boom")
	got := ConvertMongoError(cause)

	var detailed *Error
	require.True(t, errors.As(got, &detailed), "Kết quả phải là *Error")
	assert.Equal(t, ErrCodeDatabase.Code, detailed.Code.Code, "Phải dùng mã lỗi database chung")
	assert.Equal(t, StatusInternalServerError, detailed.StatusCode, "Phải trả về status 500")
	assert.Equal(t, cause, detailed.Details, "Lỗi gốc phải nằm trong Details")
}
