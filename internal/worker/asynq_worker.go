package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/provider"
	"github.com/vendora-next/internal/queue"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/webhook"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskWebhookDispatch, c.handleWebhookDispatch)
	mux.HandleFunc(queue.TaskWebhookDeliver, c.handleWebhookDeliver)
}

// handleWebhookDispatch 将事件扇出为逐订阅的投递任务
func (c *Consumer) handleWebhookDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_webhook_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WebhookDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_webhook_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.Event == "" {
		logger.Debugw("worker_webhook_dispatch_skip_empty_event")
		return nil
	}
	count, err := fanOutWebhookEvent(c.WebhookRepo, c.Queue, payload)
	if err != nil {
		logger.Warnw("worker_webhook_dispatch_list_failed", "event", payload.Event, "error", err)
		return err
	}
	if count > 0 {
		logger.Infow("worker_webhook_dispatched",
			"event", payload.Event,
			"store_id", payload.StoreID,
			"webhook_count", count,
		)
	}
	return nil
}

// deliverEnqueuer 投递任务入队能力，由队列客户端实现
type deliverEnqueuer interface {
	EnqueueWebhookDeliver(payload queue.WebhookDeliverPayload, opts ...asynq.Option) error
}

// fanOutWebhookEvent 按店铺与事件匹配活跃订阅，逐订阅派发投递任务
// 单条入队失败只记录日志，不影响其余订阅
func fanOutWebhookEvent(repo repository.WebhookRepository, enqueuer deliverEnqueuer, payload queue.WebhookDispatchPayload) (int, error) {
	webhooks, err := repo.ListActiveByEvent(payload.StoreID, payload.Event)
	if err != nil {
		return 0, err
	}
	for i := range webhooks {
		deliver := queue.WebhookDeliverPayload{
			WebhookID:  webhooks[i].ID,
			DeliveryID: uuid.NewString(),
			Event:      payload.Event,
			OccurredAt: payload.OccurredAt,
			Data:       payload.Data,
		}
		if err := enqueuer.EnqueueWebhookDeliver(deliver); err != nil {
			logger.Warnw("worker_webhook_dispatch_enqueue_failed",
				"webhook_id", webhooks[i].ID,
				"event", payload.Event,
				"error", err,
			)
		}
	}
	return len(webhooks), nil
}

// handleWebhookDeliver 执行单订阅投递
// 失败返回错误交由队列按指数退避重试；末次失败记为最终失败后吞掉错误
func (c *Consumer) handleWebhookDeliver(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_webhook_deliver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WebhookDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_webhook_deliver_unmarshal_failed", "error", err)
		return err
	}
	if payload.WebhookID == 0 {
		logger.Debugw("worker_webhook_deliver_skip_invalid_payload", "webhook_id", payload.WebhookID)
		return nil
	}
	hook, err := c.WebhookRepo.GetByID(payload.WebhookID)
	if err != nil {
		logger.Warnw("worker_webhook_deliver_fetch_failed", "webhook_id", payload.WebhookID, "error", err)
		return err
	}
	if hook == nil || !hook.IsActive {
		logger.Debugw("worker_webhook_deliver_skip_inactive", "webhook_id", payload.WebhookID)
		return nil
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	final := retried >= maxRetry

	result := c.WebhookDeliverer.Deliver(ctx, webhook.DeliverInput{
		Webhook:    hook,
		DeliveryID: payload.DeliveryID,
		Event:      payload.Event,
		OccurredAt: payload.OccurredAt,
		Payload:    payload.Data,
		Attempt:    retried + 1,
		Final:      final,
	})
	if result.Success {
		return nil
	}
	if final {
		// 最终失败已落库，不再让队列归档
		return nil
	}
	return fmt.Errorf("webhook %d delivery failed: %s", hook.ID, result.ErrorMessage)
}
