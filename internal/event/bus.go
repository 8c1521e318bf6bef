package event

import (
	"context"
	"sync"
	"time"

	"github.com/vendora-next/internal/logger"
)

// Wildcard 订阅全部事件的通配符
const Wildcard = "*"

// Event 业务事件
type Event struct {
	Name       string                 `json:"name"`        // 事件类型（如 order.created）
	StoreID    uint                   `json:"store_id"`    // 事件所属店铺，回调扇出按店铺隔离
	OccurredAt time.Time              `json:"occurred_at"` // 发生时间
	Payload    map[string]interface{} `json:"payload"`     // 事件负载
}

// Handler 事件处理函数
type Handler func(ctx context.Context, evt Event)

// Bus 进程内事件总线（同步分发，处理函数自行决定是否转入异步）
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe 订阅指定事件，传入 Wildcard 订阅全部事件
func (b *Bus) Subscribe(name string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish 同步分发事件给所有匹配的订阅者
// 处理函数的 panic 被吸收并记录，避免影响发布方事务
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	matched := make([]Handler, 0, len(b.handlers[evt.Name])+len(b.handlers[Wildcard]))
	matched = append(matched, b.handlers[evt.Name]...)
	matched = append(matched, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	for _, handler := range matched {
		b.invoke(ctx, handler, evt)
	}
}

func (b *Bus) invoke(ctx context.Context, handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("event_handler_panic", "event", evt.Name, "panic", r)
		}
	}()
	handler(ctx, evt)
}
