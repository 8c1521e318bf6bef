package queue

import (
	"encoding/json"
	"time"

	"github.com/vendora-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskWebhookDispatch 事件扇出任务（一次事件 -> 匹配的订阅各一条投递任务）
	TaskWebhookDispatch = constants.TaskWebhookDispatch
	// TaskWebhookDeliver 单订阅投递任务（带重试）
	TaskWebhookDeliver = constants.TaskWebhookDeliver
)

// WebhookDispatchPayload 事件扇出任务载荷
// StoreID 用于按店铺筛选订阅，跨店铺事件互不可见
type WebhookDispatchPayload struct {
	Event      string                 `json:"event"`
	StoreID    uint                   `json:"store_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// WebhookDeliverPayload 单订阅投递任务载荷
type WebhookDeliverPayload struct {
	WebhookID  uint                   `json:"webhook_id"`
	DeliveryID string                 `json:"delivery_id"`
	Event      string                 `json:"event"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// NewWebhookDispatchTask 创建事件扇出任务
func NewWebhookDispatchTask(payload WebhookDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookDispatch, body), nil
}

// NewWebhookDeliverTask 创建单订阅投递任务
func NewWebhookDeliverTask(payload WebhookDeliverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookDeliver, body), nil
}
