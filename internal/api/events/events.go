// Package events là kênh phát sự kiện thay đổi dữ liệu của tầng CRUD.
// BaseServiceMongoImpl tự phát event sau mỗi thao tác thành công nên service
// không phải override từng method. Logic phản ứng (completion monitor nghe
// work item về trạng thái cuối, cache invalidation, ...) đăng ký qua OnDataChanged.
package events

import (
	"context"
	"sync"
)

// Các loại thao tác gắn trên DataChangeEvent.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// DataChangeEvent là một lần dữ liệu đổi: collection nào, thao tác gì,
// và bản ghi sau thay đổi (delete thì Document là nil).
type DataChangeEvent struct {
	CollectionName string
	Operation      string
	Document       interface{}
}

// DataChangeHandler là callback nhận event.
type DataChangeHandler func(ctx context.Context, e DataChangeEvent)

var (
	handlers   []DataChangeHandler
	handlersMu sync.RWMutex
)

// OnDataChanged thêm một handler vào danh sách phát. Đăng ký lúc init
// (completion monitor, cache); không có cơ chế gỡ handler.
func OnDataChanged(h DataChangeHandler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, h)
}

// EmitDataChanged đưa event tới mọi handler đã đăng ký, mỗi handler một
// goroutine. Panic trong handler được recover tại chỗ, không lây sang handler khác.
func EmitDataChanged(ctx context.Context, e DataChangeEvent) {
	handlersMu.RLock()
	list := make([]DataChangeHandler, len(handlers))
	copy(list, handlers)
	handlersMu.RUnlock()

	for _, h := range list {
		go func(fn DataChangeHandler) {
			defer func() {
				if r := recover(); r != nil {
					// Nuốt panic: logger có thể chưa init khi event chạy rất sớm lúc boot
					_ = r
				}
			}()
			fn(ctx, e)
		}(h)
	}
}
