package repository

import (
	"errors"
	"time"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// WebhookRepository 回调订阅数据访问接口
type WebhookRepository interface {
	Create(webhook *models.Webhook) error
	GetByID(id uint) (*models.Webhook, error)
	List(filter WebhookListFilter) ([]models.Webhook, int64, error)
	ListActiveByEvent(storeID uint, event string) ([]models.Webhook, error)
	Update(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	MarkTriggered(id uint, at time.Time) error
	IncrRetryCount(id uint) error
	ResetRetryCount(id uint) error
	IncrFailureCount(id uint) error
	WithTx(tx *gorm.DB) *GormWebhookRepository
}

// GormWebhookRepository GORM 实现
type GormWebhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository 创建回调订阅仓库
func NewWebhookRepository(db *gorm.DB) *GormWebhookRepository {
	return &GormWebhookRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWebhookRepository) WithTx(tx *gorm.DB) *GormWebhookRepository {
	if tx == nil {
		return r
	}
	return &GormWebhookRepository{db: tx}
}

// Create 创建回调订阅
func (r *GormWebhookRepository) Create(webhook *models.Webhook) error {
	return r.db.Create(webhook).Error
}

// GetByID 根据 ID 获取回调订阅
func (r *GormWebhookRepository) GetByID(id uint) (*models.Webhook, error) {
	var webhook models.Webhook
	if err := r.db.First(&webhook, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &webhook, nil
}

// List 回调订阅列表
func (r *GormWebhookRepository) List(filter WebhookListFilter) ([]models.Webhook, int64, error) {
	query := r.db.Model(&models.Webhook{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Event != "" {
		// 订阅列表以 JSON 数组存储，空列表视为订阅全部事件
		query = query.Where(
			"events IS NULL OR events = '' OR events = '[]' OR events LIKE ?",
			`%"`+filter.Event+`"%`,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var webhooks []models.Webhook
	query = applyPagination(query.Order("id DESC"), filter.Page, filter.PageSize)
	if err := query.Find(&webhooks).Error; err != nil {
		return nil, 0, err
	}
	return webhooks, total, nil
}

// ListActiveByEvent 获取订阅了指定事件的启用订阅
// 事件匹配在内存中判断：空订阅列表视为订阅全部事件
func (r *GormWebhookRepository) ListActiveByEvent(storeID uint, event string) ([]models.Webhook, error) {
	query := r.db.Where("is_active = ?", true)
	if storeID > 0 {
		query = query.Where("store_id = ?", storeID)
	}
	var webhooks []models.Webhook
	if err := query.Find(&webhooks).Error; err != nil {
		return nil, err
	}
	matched := webhooks[:0]
	for _, w := range webhooks {
		if w.SubscribesTo(event) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

// Update 更新回调订阅
func (r *GormWebhookRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Webhook{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除回调订阅
func (r *GormWebhookRepository) Delete(id uint) error {
	return r.db.Delete(&models.Webhook{}, id).Error
}

// MarkTriggered 记录最近触发时间
func (r *GormWebhookRepository) MarkTriggered(id uint, at time.Time) error {
	return r.db.Model(&models.Webhook{}).Where("id = ?", id).
		Update("last_triggered_at", at).Error
}

// IncrRetryCount 原子累加重试计数
func (r *GormWebhookRepository) IncrRetryCount(id uint) error {
	return r.db.Model(&models.Webhook{}).Where("id = ?", id).
		Update("retry_count", gorm.Expr("retry_count + 1")).Error
}

// ResetRetryCount 投递成功后清零重试计数
func (r *GormWebhookRepository) ResetRetryCount(id uint) error {
	return r.db.Model(&models.Webhook{}).Where("id = ?", id).
		Update("retry_count", 0).Error
}

// IncrFailureCount 原子累加最终失败计数
func (r *GormWebhookRepository) IncrFailureCount(id uint) error {
	return r.db.Model(&models.Webhook{}).Where("id = ?", id).
		Update("failure_count", gorm.Expr("failure_count + 1")).Error
}
