package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
)

// SignatureHeader 签名请求头
const SignatureHeader = "X-Signature"

// maxErrorMessageLen 日志错误信息截断长度，与表结构保持一致
const maxErrorMessageLen = 500

// Envelope 回调请求体结构
type Envelope struct {
	Type      string                 `json:"type"`
	WebhookID string                 `json:"webhookId"`
	Timestamp string                 `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// DeliveryResult 单个订阅的投递结果
type DeliveryResult struct {
	WebhookID    uint   `json:"webhook_id"`
	Success      bool   `json:"success"`
	StatusCode   int    `json:"status_code,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Deliverer 负责单次 HTTP 投递、签名与逐次日志落库
// 投递失败只体现在结果与日志里，不向业务调用方抛错
type Deliverer struct {
	client      *http.Client
	webhookRepo repository.WebhookRepository
	logRepo     repository.WebhookLogRepository
}

// NewDeliverer 创建投递器
func NewDeliverer(cfg config.WebhookConfig, webhookRepo repository.WebhookRepository, logRepo repository.WebhookLogRepository) *Deliverer {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Deliverer{
		client:      &http.Client{Timeout: timeout},
		webhookRepo: webhookRepo,
		logRepo:     logRepo,
	}
}

// DeliverInput 单次投递输入
type DeliverInput struct {
	Webhook    *models.Webhook
	DeliveryID string
	Event      string
	OccurredAt time.Time
	Payload    map[string]interface{}
	Attempt    int  // 从 1 起算
	Final      bool // 为真且失败时计入最终失败
}

// Deliver 执行一次投递并落一条日志
func (d *Deliverer) Deliver(ctx context.Context, input DeliverInput) DeliveryResult {
	result := d.send(ctx, input)
	d.record(input, result)
	observeDelivery(input.Event, result.Success)
	return result
}

// send 构造签名请求并发送，2xx 视为成功
func (d *Deliverer) send(ctx context.Context, input DeliverInput) DeliveryResult {
	result := DeliveryResult{WebhookID: input.Webhook.ID}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	body, err := json.Marshal(Envelope{
		Type:      input.Event,
		WebhookID: input.DeliveryID,
		Timestamp: occurredAt.UTC().Format(time.RFC3339),
		Payload:   input.Payload,
	})
	if err != nil {
		result.ErrorMessage = "encode payload: " + err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, input.Webhook.URL, bytes.NewReader(body))
	if err != nil {
		result.ErrorMessage = "build request: " + err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(input.Webhook.Secret, body))

	start := time.Now()
	resp, err := d.client.Do(req)
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	defer resp.Body.Close()
	// 响应体只用于排空连接复用，内容不关心
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Success = true
	} else {
		result.ErrorMessage = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return result
}

// record 落投递日志并维护订阅的计数字段
func (d *Deliverer) record(input DeliverInput, result DeliveryResult) {
	status := constants.WebhookLogStatusSuccess
	if !result.Success {
		status = constants.WebhookLogStatusFailed
	}
	errMsg := result.ErrorMessage
	if len(errMsg) > maxErrorMessageLen {
		errMsg = errMsg[:maxErrorMessageLen]
	}
	attempt := input.Attempt
	if attempt < 1 {
		attempt = 1
	}
	log := &models.WebhookLog{
		WebhookID:      input.Webhook.ID,
		DeliveryID:     input.DeliveryID,
		Event:          input.Event,
		Status:         status,
		Attempt:        attempt,
		ResponseStatus: result.StatusCode,
		DurationMS:     result.DurationMS,
		ErrorMessage:   errMsg,
	}
	if err := d.logRepo.Create(log); err != nil {
		logger.Errorw("webhook_log_write_failed", "webhook_id", input.Webhook.ID, "error", err)
	}
	if err := d.webhookRepo.MarkTriggered(input.Webhook.ID, time.Now()); err != nil {
		logger.Warnw("webhook_mark_triggered_failed", "webhook_id", input.Webhook.ID, "error", err)
	}

	if result.Success {
		if err := d.webhookRepo.ResetRetryCount(input.Webhook.ID); err != nil {
			logger.Warnw("webhook_reset_retry_failed", "webhook_id", input.Webhook.ID, "error", err)
		}
		return
	}
	if err := d.webhookRepo.IncrRetryCount(input.Webhook.ID); err != nil {
		logger.Warnw("webhook_incr_retry_failed", "webhook_id", input.Webhook.ID, "error", err)
	}
	if input.Final {
		if err := d.webhookRepo.IncrFailureCount(input.Webhook.ID); err != nil {
			logger.Warnw("webhook_incr_failure_failed", "webhook_id", input.Webhook.ID, "error", err)
		}
		logger.Errorw("webhook_delivery_exhausted",
			"webhook_id", input.Webhook.ID,
			"delivery_id", input.DeliveryID,
			"event", input.Event,
			"attempt", attempt,
		)
	}
}
