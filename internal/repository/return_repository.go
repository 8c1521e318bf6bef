package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// ReturnRepository 退货单数据访问接口
type ReturnRepository interface {
	Create(ret *models.ReturnOrder, items []models.ReturnItem) error
	GetByID(id uint) (*models.ReturnOrder, error)
	List(filter WorkflowListFilter) ([]models.ReturnOrder, int64, error)
	Update(id uint, updates map[string]interface{}) error
	UpdateItem(itemID uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormReturnRepository
}

// GormReturnRepository GORM 实现
type GormReturnRepository struct {
	db *gorm.DB
}

// NewReturnRepository 创建退货单仓库
func NewReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReturnRepository) WithTx(tx *gorm.DB) *GormReturnRepository {
	if tx == nil {
		return r
	}
	return &GormReturnRepository{db: tx}
}

// Create 创建退货单与明细
func (r *GormReturnRepository) Create(ret *models.ReturnOrder, items []models.ReturnItem) error {
	if err := r.db.Create(ret).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ReturnID = ret.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取退货单（含明细）
func (r *GormReturnRepository) GetByID(id uint) (*models.ReturnOrder, error) {
	var ret models.ReturnOrder
	if err := r.db.Preload("Items").First(&ret, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ret, nil
}

// List 退货单列表
func (r *GormReturnRepository) List(filter WorkflowListFilter) ([]models.ReturnOrder, int64, error) {
	query := r.db.Model(&models.ReturnOrder{})
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

	var returns []models.ReturnOrder
	query = applyPagination(query.Order("id DESC").Preload("Items"), filter.Page, filter.PageSize)
	if err := query.Find(&returns).Error; err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// Update 更新退货单
func (r *GormReturnRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.ReturnOrder{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateItem 更新退货明细
func (r *GormReturnRepository) UpdateItem(itemID uint, updates map[string]interface{}) error {
	return r.db.Model(&models.ReturnItem{}).Where("id = ?", itemID).Updates(updates).Error
}
