package repository

import (
	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// WebhookLogRepository 回调投递日志数据访问接口（仅追加）
type WebhookLogRepository interface {
	Create(log *models.WebhookLog) error
	List(filter WebhookLogListFilter) ([]models.WebhookLog, int64, error)
	WithTx(tx *gorm.DB) *GormWebhookLogRepository
}

// GormWebhookLogRepository GORM 实现
type GormWebhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository 创建回调投递日志仓库
func NewWebhookLogRepository(db *gorm.DB) *GormWebhookLogRepository {
	return &GormWebhookLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWebhookLogRepository) WithTx(tx *gorm.DB) *GormWebhookLogRepository {
	if tx == nil {
		return r
	}
	return &GormWebhookLogRepository{db: tx}
}

// Create 追加一条投递日志
func (r *GormWebhookLogRepository) Create(log *models.WebhookLog) error {
	return r.db.Create(log).Error
}

// List 投递日志列表
func (r *GormWebhookLogRepository) List(filter WebhookLogListFilter) ([]models.WebhookLog, int64, error) {
	query := r.db.Model(&models.WebhookLog{})
	if filter.WebhookID > 0 {
		query = query.Where("webhook_id = ?", filter.WebhookID)
	}
	if filter.Event != "" {
		query = query.Where("event = ?", filter.Event)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.WebhookLog
	query = applyPagination(query.Order("id DESC"), filter.Page, filter.PageSize)
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
