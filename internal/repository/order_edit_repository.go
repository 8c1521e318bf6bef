package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// OrderEditRepository 订单改单数据访问接口
type OrderEditRepository interface {
	Create(edit *models.OrderEdit, changes []models.OrderEditChange) error
	GetByID(id uint) (*models.OrderEdit, error)
	List(filter WorkflowListFilter) ([]models.OrderEdit, int64, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormOrderEditRepository
}

// GormOrderEditRepository GORM 实现
type GormOrderEditRepository struct {
	db *gorm.DB
}

// NewOrderEditRepository 创建订单改单仓库
func NewOrderEditRepository(db *gorm.DB) *GormOrderEditRepository {
	return &GormOrderEditRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderEditRepository) WithTx(tx *gorm.DB) *GormOrderEditRepository {
	if tx == nil {
		return r
	}
	return &GormOrderEditRepository{db: tx}
}

// Create 创建改单记录与变更明细
func (r *GormOrderEditRepository) Create(edit *models.OrderEdit, changes []models.OrderEditChange) error {
	if err := r.db.Create(edit).Error; err != nil {
		return err
	}
	for i := range changes {
		changes[i].OrderEditID = edit.ID
	}
	if len(changes) > 0 {
		if err := r.db.Create(&changes).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取改单记录（含变更明细）
func (r *GormOrderEditRepository) GetByID(id uint) (*models.OrderEdit, error) {
	var edit models.OrderEdit
	if err := r.db.Preload("Changes").First(&edit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edit, nil
}

// List 改单记录列表
func (r *GormOrderEditRepository) List(filter WorkflowListFilter) ([]models.OrderEdit, int64, error) {
	query := r.db.Model(&models.OrderEdit{})
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

	var edits []models.OrderEdit
	query = applyPagination(query.Order("id DESC").Preload("Changes"), filter.Page, filter.PageSize)
	if err := query.Find(&edits).Error; err != nil {
		return nil, 0, err
	}
	return edits, total, nil
}

// Update 更新改单记录
func (r *GormOrderEditRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.OrderEdit{}).Where("id = ?", id).Updates(updates).Error
}
