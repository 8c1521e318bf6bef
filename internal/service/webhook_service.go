package service

import (
	"context"
	"strings"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/webhook"

	"github.com/google/uuid"
)

// WebhookService 回调订阅管理服务
type WebhookService struct {
	webhookRepo repository.WebhookRepository
	logRepo     repository.WebhookLogRepository
	deliverer   *webhook.Deliverer
}

// NewWebhookService 创建回调订阅服务
func NewWebhookService(webhookRepo repository.WebhookRepository, logRepo repository.WebhookLogRepository, deliverer *webhook.Deliverer) *WebhookService {
	return &WebhookService{
		webhookRepo: webhookRepo,
		logRepo:     logRepo,
		deliverer:   deliverer,
	}
}

// CreateWebhookInput 创建回调订阅输入
type CreateWebhookInput struct {
	StoreID uint
	Name    string
	URL     string
	Secret  string // 为空时自动生成
	Events  []string
}

// Create 创建回调订阅
func (s *WebhookService) Create(ctx context.Context, input CreateWebhookInput) (*models.Webhook, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, ErrInvalidInput
	}
	secret := strings.TrimSpace(input.Secret)
	if secret == "" {
		secret = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}
	storeID := input.StoreID
	if storeID == 0 {
		storeID = 1
	}
	hook := &models.Webhook{
		StoreID:  storeID,
		Name:     strings.TrimSpace(input.Name),
		URL:      url,
		Secret:   secret,
		Events:   models.StringArray(input.Events),
		IsActive: true,
	}
	if err := s.webhookRepo.Create(hook); err != nil {
		return nil, err
	}
	logger.Infow("webhook_created", "webhook_id", hook.ID, "url", hook.URL)
	return hook, nil
}

// UpdateWebhookInput 更新回调订阅输入，nil 字段不变更
type UpdateWebhookInput struct {
	Name     *string
	URL      *string
	Secret   *string
	Events   []string
	IsActive *bool
}

// Update 更新回调订阅
func (s *WebhookService) Update(ctx context.Context, webhookID uint, input UpdateWebhookInput) (*models.Webhook, error) {
	hook, err := s.get(webhookID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"updated_at": time.Now()}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.URL != nil {
		url := strings.TrimSpace(*input.URL)
		if url == "" {
			return nil, ErrInvalidInput
		}
		updates["url"] = url
	}
	if input.Secret != nil && strings.TrimSpace(*input.Secret) != "" {
		updates["secret"] = strings.TrimSpace(*input.Secret)
	}
	if input.Events != nil {
		updates["events"] = models.StringArray(input.Events)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.webhookRepo.Update(hook.ID, updates); err != nil {
		return nil, err
	}
	return s.get(webhookID)
}

// Delete 删除回调订阅
func (s *WebhookService) Delete(ctx context.Context, webhookID uint) error {
	hook, err := s.get(webhookID)
	if err != nil {
		return err
	}
	if err := s.webhookRepo.Delete(hook.ID); err != nil {
		return err
	}
	logger.Infow("webhook_deleted", "webhook_id", hook.ID)
	return nil
}

// Get 获取回调订阅
func (s *WebhookService) Get(webhookID uint) (*models.Webhook, error) {
	return s.get(webhookID)
}

// List 回调订阅列表
func (s *WebhookService) List(filter repository.WebhookListFilter) ([]models.Webhook, int64, error) {
	return s.webhookRepo.List(filter)
}

// Logs 投递日志列表
func (s *WebhookService) Logs(filter repository.WebhookLogListFilter) ([]models.WebhookLog, int64, error) {
	return s.logRepo.List(filter)
}

// SendTest 同步发送 test.ping 并返回投递结果
// 投递失败体现在结果里，不作为错误返回
func (s *WebhookService) SendTest(ctx context.Context, webhookID uint) (*webhook.DeliveryResult, error) {
	hook, err := s.get(webhookID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	result := s.deliverer.Deliver(ctx, webhook.DeliverInput{
		Webhook:    hook,
		DeliveryID: uuid.NewString(),
		Event:      constants.EventTestPing,
		OccurredAt: now,
		Payload: map[string]interface{}{
			"webhook_id": hook.ID,
			"message":    "ping",
		},
		Attempt: 1,
		Final:   false,
	})
	logger.Infow("webhook_test_sent",
		"webhook_id", hook.ID,
		"success", result.Success,
		"status_code", result.StatusCode,
	)
	return &result, nil
}

func (s *WebhookService) get(webhookID uint) (*models.Webhook, error) {
	hook, err := s.webhookRepo.GetByID(webhookID)
	if err != nil {
		return nil, err
	}
	if hook == nil {
		return nil, ErrWebhookNotFound
	}
	return hook, nil
}
