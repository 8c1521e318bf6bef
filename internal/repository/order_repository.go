package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetDetail(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateGuarded(id uint, version uint64, updates map[string]interface{}) (bool, error)
	AddItemQuantities(itemID uint, fulfilledDelta, returnedDelta int) error
	CreateItem(item *models.OrderItem) error
	DeleteItem(itemID uint) error
	UpdateItem(itemID uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单（含订单项）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetDetail 获取订单完整详情（含全部售后关联）
func (r *GormOrderRepository) GetDetail(id uint) (*models.Order, error) {
	var order models.Order
	query := r.db.
		Preload("Items").
		Preload("Fulfillments").Preload("Fulfillments.Items").
		Preload("Refunds").Preload("Refunds.Items").
		Preload("Returns").Preload("Returns.Items").
		Preload("Claims").Preload("Claims.Items").
		Preload("Exchanges").Preload("Exchanges.Items").
		Preload("Edits").Preload("Edits.Changes")
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单（含订单项与交付记录）
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Fulfillments").Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.CustomerID > 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
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

	var orders []models.Order
	query = applyPagination(query.Order("id DESC").Preload("Items"), filter.Page, filter.PageSize)
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateGuarded 以乐观锁方式更新订单
// 仅当行的版本号仍等于调用方读到的版本时才生效，并自增版本号；
// 返回 false 表示版本已被其他写入方推进。
func (r *GormOrderRepository) UpdateGuarded(id uint, version uint64, updates map[string]interface{}) (bool, error) {
	merged := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = gorm.Expr("version + 1")
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddItemQuantities 原子累加订单项的已交付/已退货数量
func (r *GormOrderRepository) AddItemQuantities(itemID uint, fulfilledDelta, returnedDelta int) error {
	updates := map[string]interface{}{}
	if fulfilledDelta != 0 {
		updates["fulfilled_quantity"] = gorm.Expr("fulfilled_quantity + ?", fulfilledDelta)
	}
	if returnedDelta != 0 {
		updates["returned_quantity"] = gorm.Expr("returned_quantity + ?", returnedDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.OrderItem{}).Where("id = ?", itemID).Updates(updates).Error
}

// CreateItem 新增订单项
func (r *GormOrderRepository) CreateItem(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

// DeleteItem 删除订单项
func (r *GormOrderRepository) DeleteItem(itemID uint) error {
	return r.db.Delete(&models.OrderItem{}, itemID).Error
}

// UpdateItem 更新订单项
func (r *GormOrderRepository) UpdateItem(itemID uint, updates map[string]interface{}) error {
	return r.db.Model(&models.OrderItem{}).Where("id = ?", itemID).Updates(updates).Error
}
