package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo           string         `gorm:"uniqueIndex;not null" json:"order_no"`                  // 订单编号
	StoreID           uint           `gorm:"index;not null" json:"store_id"`                        // 店铺ID
	CustomerID        uint           `gorm:"index" json:"customer_id,omitempty"`                    // 客户ID（游客订单为 0）
	Currency          string         `gorm:"not null" json:"currency"`                              // 币种
	SubtotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"` // 商品小计
	DiscountAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"` // 优惠金额
	ShippingAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping"` // 运费
	TaxAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`      // 税费
	TotalAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`    // 应付总额
	Status            string         `gorm:"index;not null" json:"status"`                          // 订单状态
	PaymentStatus     string         `gorm:"index;not null" json:"payment_status"`                  // 支付状态
	FulfillmentStatus string         `gorm:"index;not null" json:"fulfillment_status"`              // 交付状态（派生）
	Version           uint64         `gorm:"not null;default:0" json:"-"`                           // 乐观锁版本号
	PaidAt            *time.Time     `gorm:"index" json:"paid_at"`                                  // 支付时间
	CancelledAt       *time.Time     `gorm:"index" json:"cancelled_at"`                             // 取消时间（至多写入一次）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                               // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间

	Items        []OrderItem   `gorm:"foreignKey:OrderID" json:"items,omitempty"`                   // 订单项
	Fulfillments []Fulfillment `gorm:"foreignKey:OrderID" json:"fulfillments,omitempty"`            // 交付记录
	Refunds      []Refund      `gorm:"foreignKey:OrderID" json:"refunds,omitempty"`                 // 退款记录
	Returns      []ReturnOrder `gorm:"foreignKey:OrderID" json:"returns,omitempty"`                 // 退货单
	Claims       []Claim       `gorm:"foreignKey:OrderID" json:"claims,omitempty"`                  // 索赔单
	Exchanges    []Exchange    `gorm:"foreignKey:OrderID" json:"exchanges,omitempty"`               // 换货单
	Edits        []OrderEdit   `gorm:"foreignKey:OrderID" json:"edits,omitempty"`                   // 改单记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ItemByID 按订单项 ID 查找订单项
func (o *Order) ItemByID(itemID uint) *OrderItem {
	if o == nil {
		return nil
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
