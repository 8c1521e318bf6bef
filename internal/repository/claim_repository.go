package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// ClaimRepository 售后索赔数据访问接口
type ClaimRepository interface {
	Create(claim *models.Claim, items []models.ClaimItem) error
	GetByID(id uint) (*models.Claim, error)
	List(filter WorkflowListFilter) ([]models.Claim, int64, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormClaimRepository
}

// GormClaimRepository GORM 实现
type GormClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository 创建售后索赔仓库
func NewClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClaimRepository) WithTx(tx *gorm.DB) *GormClaimRepository {
	if tx == nil {
		return r
	}
	return &GormClaimRepository{db: tx}
}

// Create 创建索赔记录与明细
func (r *GormClaimRepository) Create(claim *models.Claim, items []models.ClaimItem) error {
	if err := r.db.Create(claim).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ClaimID = claim.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取索赔记录（含明细）
func (r *GormClaimRepository) GetByID(id uint) (*models.Claim, error) {
	var claim models.Claim
	if err := r.db.Preload("Items").First(&claim, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// List 索赔记录列表
func (r *GormClaimRepository) List(filter WorkflowListFilter) ([]models.Claim, int64, error) {
	query := r.db.Model(&models.Claim{})
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []models.Claim
	query = applyPagination(query.Order("id DESC").Preload("Items"), filter.Page, filter.PageSize)
	if err := query.Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

// Update 更新索赔记录
func (r *GormClaimRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Claim{}).Where("id = ?", id).Updates(updates).Error
}
