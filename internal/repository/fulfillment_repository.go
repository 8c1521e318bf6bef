package repository

import (
	"errors"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// FulfillmentRepository 交付记录数据访问接口
type FulfillmentRepository interface {
	Create(fulfillment *models.Fulfillment, items []models.FulfillmentItem) error
	GetByID(id uint) (*models.Fulfillment, error)
	List(filter FulfillmentListFilter) ([]models.Fulfillment, int64, error)
	ListActiveByOrder(orderID uint) ([]models.Fulfillment, error)
	Update(id uint, updates map[string]interface{}) error
	UpdateFromStatus(id uint, fromStatus string, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormFulfillmentRepository
}

// GormFulfillmentRepository GORM 实现
type GormFulfillmentRepository struct {
	db *gorm.DB
}

// NewFulfillmentRepository 创建交付记录仓库
func NewFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFulfillmentRepository) WithTx(tx *gorm.DB) *GormFulfillmentRepository {
	if tx == nil {
		return r
	}
	return &GormFulfillmentRepository{db: tx}
}

// Create 创建交付记录与明细
func (r *GormFulfillmentRepository) Create(fulfillment *models.Fulfillment, items []models.FulfillmentItem) error {
	if err := r.db.Create(fulfillment).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].FulfillmentID = fulfillment.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取交付记录（含明细）
func (r *GormFulfillmentRepository) GetByID(id uint) (*models.Fulfillment, error) {
	var fulfillment models.Fulfillment
	if err := r.db.Preload("Items").First(&fulfillment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fulfillment, nil
}

// List 交付记录列表
func (r *GormFulfillmentRepository) List(filter FulfillmentListFilter) ([]models.Fulfillment, int64, error) {
	query := r.db.Model(&models.Fulfillment{})
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

	var fulfillments []models.Fulfillment
	query = applyPagination(query.Order("id DESC").Preload("Items"), filter.Page, filter.PageSize)
	if err := query.Find(&fulfillments).Error; err != nil {
		return nil, 0, err
	}
	return fulfillments, total, nil
}

// ListActiveByOrder 获取订单下全部未取消的交付记录（含明细）
func (r *GormFulfillmentRepository) ListActiveByOrder(orderID uint) ([]models.Fulfillment, error) {
	var fulfillments []models.Fulfillment
	err := r.db.Preload("Items").
		Where("order_id = ? AND status <> ?", orderID, constants.FulfillmentStatusCancelled).
		Find(&fulfillments).Error
	if err != nil {
		return nil, err
	}
	return fulfillments, nil
}

// Update 更新交付记录
func (r *GormFulfillmentRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Fulfillment{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateFromStatus 仅当当前状态为 fromStatus 时更新，返回是否命中
// 并发状态转移以此互斥，只有一方能完成同一次转移
func (r *GormFulfillmentRepository) UpdateFromStatus(id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&models.Fulfillment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
