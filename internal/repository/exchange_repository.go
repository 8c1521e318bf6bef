package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// ExchangeRepository 换货单数据访问接口
type ExchangeRepository interface {
	Create(exchange *models.Exchange, items []models.ExchangeItem) error
	GetByID(id uint) (*models.Exchange, error)
	List(filter WorkflowListFilter) ([]models.Exchange, int64, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormExchangeRepository
}

// GormExchangeRepository GORM 实现
type GormExchangeRepository struct {
	db *gorm.DB
}

// NewExchangeRepository 创建换货单仓库
func NewExchangeRepository(db *gorm.DB) *GormExchangeRepository {
	return &GormExchangeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormExchangeRepository) WithTx(tx *gorm.DB) *GormExchangeRepository {
	if tx == nil {
		return r
	}
	return &GormExchangeRepository{db: tx}
}

// Create 创建换货单与明细
func (r *GormExchangeRepository) Create(exchange *models.Exchange, items []models.ExchangeItem) error {
	if err := r.db.Create(exchange).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ExchangeID = exchange.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取换货单（含明细）
func (r *GormExchangeRepository) GetByID(id uint) (*models.Exchange, error) {
	var exchange models.Exchange
	if err := r.db.Preload("Items").First(&exchange, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exchange, nil
}

// List 换货单列表
func (r *GormExchangeRepository) List(filter WorkflowListFilter) ([]models.Exchange, int64, error) {
	query := r.db.Model(&models.Exchange{})
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exchanges []models.Exchange
	query = applyPagination(query.Order("id DESC").Preload("Items"), filter.Page, filter.PageSize)
	if err := query.Find(&exchanges).Error; err != nil {
		return nil, 0, err
	}
	return exchanges, total, nil
}

// Update 更新换货单
func (r *GormExchangeRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Exchange{}).Where("id = ?", id).Updates(updates).Error
}
