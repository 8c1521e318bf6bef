package models

import (
	"time"

	"gorm.io/gorm"
)

// ReturnOrder 退货单表
type ReturnOrder struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                             // 订单ID
	Status       string         `gorm:"index;not null" json:"status"`                               // 退货状态（requested/received/completed/cancelled）
	Reason       string         `gorm:"type:varchar(255)" json:"reason"`                            // 退货原因
	Note         string         `gorm:"type:varchar(255)" json:"note"`                              // 备注
	RefundAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refund_amount"` // 退款金额
	RefundID     *uint          `gorm:"index" json:"refund_id,omitempty"`                           // 关联退款记录ID
	ReceivedAt   *time.Time     `gorm:"index" json:"received_at,omitempty"`                         // 收货时间
	CompletedAt  *time.Time     `gorm:"index" json:"completed_at,omitempty"`                        // 完成时间
	CancelledAt  *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                        // 取消时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Items []ReturnItem `gorm:"foreignKey:ReturnID" json:"items,omitempty"`                          // 退货明细
}

// TableName 指定表名
func (ReturnOrder) TableName() string {
	return "return_orders"
}

// ItemByOrderItemID 按订单项ID查找退货明细，未找到时返回 nil
func (r *ReturnOrder) ItemByOrderItemID(orderItemID uint) *ReturnItem {
	for i := range r.Items {
		if r.Items[i].OrderItemID == orderItemID {
			return &r.Items[i]
		}
	}
	return nil
}

// ReturnItem 退货明细表
type ReturnItem struct {
	ID               uint      `gorm:"primarykey" json:"id"`                        // 主键
	ReturnID         uint      `gorm:"index;not null" json:"return_id"`             // 退货单ID
	OrderItemID      uint      `gorm:"index;not null" json:"order_item_id"`         // 订单项ID
	Quantity         int       `gorm:"not null" json:"quantity"`                    // 申请退货数量
	ReceivedQuantity int       `gorm:"not null;default:0" json:"received_quantity"` // 实收数量（<= quantity）
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt        time.Time `gorm:"index" json:"updated_at"`                     // 更新时间
}

// TableName 指定表名
func (ReturnItem) TableName() string {
	return "return_items"
}
