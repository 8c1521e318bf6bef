package models

import (
	"time"

	"gorm.io/gorm"
)

// Fulfillment 交付记录表
type Fulfillment struct {
	ID          uint           `gorm:"primarykey" json:"id"`                         // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`               // 订单ID
	Status      string         `gorm:"index;not null" json:"status"`                 // 交付状态（created/shipped/delivered/cancelled）
	Carrier     string         `gorm:"type:varchar(100)" json:"carrier"`             // 承运商
	TrackingNo  string         `gorm:"type:varchar(200)" json:"tracking_no"`         // 运单号
	CreatedBy   *uint          `gorm:"index" json:"created_by,omitempty"`            // 创建管理员ID
	ShippedAt   *time.Time     `gorm:"index" json:"shipped_at,omitempty"`            // 发货时间
	DeliveredAt *time.Time     `gorm:"index" json:"delivered_at,omitempty"`          // 签收时间
	CancelledAt *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`          // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                      // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间

	Items []FulfillmentItem `gorm:"foreignKey:FulfillmentID" json:"items,omitempty"` // 交付明细
}

// TableName 指定表名
func (Fulfillment) TableName() string {
	return "fulfillments"
}

// FulfillmentItem 交付明细表（orderItemId -> quantity）
type FulfillmentItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`                 // 主键
	FulfillmentID uint      `gorm:"index;not null" json:"fulfillment_id"` // 交付记录ID
	OrderItemID   uint      `gorm:"index;not null" json:"order_item_id"`  // 订单项ID
	Quantity      int       `gorm:"not null" json:"quantity"`             // 本次交付数量
	CreatedAt     time.Time `gorm:"index" json:"created_at"`              // 创建时间
}

// TableName 指定表名
func (FulfillmentItem) TableName() string {
	return "fulfillment_items"
}
