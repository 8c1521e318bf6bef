package models

import (
	"time"

	"gorm.io/gorm"
)

// Exchange 换货单表
type Exchange struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID          uint           `gorm:"index;not null" json:"order_id"`                                 // 订单ID
	Status           string         `gorm:"index;not null" json:"status"`                                   // 换货状态（created/processing/completed/cancelled）
	PaymentStatus    string         `gorm:"index;not null" json:"payment_status"`                           // 差价支付状态（not_required/awaiting/paid/refunded）
	DifferenceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"difference_amount"` // 差价金额（新减旧，可为负）
	Currency         string         `gorm:"type:varchar(10);not null" json:"currency"`                      // 币种
	Note             string         `gorm:"type:varchar(255)" json:"note"`                                  // 备注
	RefundID         *uint          `gorm:"index" json:"refund_id,omitempty"`                               // 差价退款记录ID（差价为负时）
	CompletedAt      *time.Time     `gorm:"index" json:"completed_at,omitempty"`                            // 完成时间
	CancelledAt      *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                            // 取消时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	Items []ExchangeItem `gorm:"foreignKey:ExchangeID" json:"items,omitempty"`                              // 换货明细
}

// TableName 指定表名
func (Exchange) TableName() string {
	return "exchanges"
}

// ExchangeItem 换货明细表（direction 区分退回与换出）
type ExchangeItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                    // 主键
	ExchangeID  uint      `gorm:"index;not null" json:"exchange_id"`                       // 换货单ID
	Direction   string    `gorm:"index;not null" json:"direction"`                         // 方向（in 退回 / out 换出）
	OrderItemID *uint     `gorm:"index" json:"order_item_id,omitempty"`                    // 订单项ID（退回方向必填）
	ProductID   *uint     `gorm:"index" json:"product_id,omitempty"`                       // 商品ID（换出方向必填）
	Quantity    int       `gorm:"not null" json:"quantity"`                                // 数量
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (ExchangeItem) TableName() string {
	return "exchange_items"
}
