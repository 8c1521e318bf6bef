package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// RefundRepository 退款记录数据访问接口
type RefundRepository interface {
	Create(refund *models.Refund, items []models.RefundItem) error
	GetByID(id uint) (*models.Refund, error)
	List(filter RefundListFilter) ([]models.Refund, int64, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormRefundRepository
}

// GormRefundRepository GORM 实现
type GormRefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款记录仓库
func NewRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRefundRepository) WithTx(tx *gorm.DB) *GormRefundRepository {
	if tx == nil {
		return r
	}
	return &GormRefundRepository{db: tx}
}

// Create 创建退款记录与明细
func (r *GormRefundRepository) Create(refund *models.Refund, items []models.RefundItem) error {
	if err := r.db.Create(refund).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].RefundID = refund.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取退款记录（含明细）
func (r *GormRefundRepository) GetByID(id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.Preload("Items").First(&refund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// List 退款记录列表
func (r *GormRefundRepository) List(filter RefundListFilter) ([]models.Refund, int64, error) {
	query := r.db.Model(&models.Refund{})
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var refunds []models.Refund
	query = applyPagination(query.Order("id DESC").Preload("Items"), filter.Page, filter.PageSize)
	if err := query.Find(&refunds).Error; err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}

// Update 更新退款记录
func (r *GormRefundRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Refund{}).Where("id = ?", id).Updates(updates).Error
}
