package models

import (
	"time"

	"gorm.io/gorm"
)

// Refund 退款记录表
type Refund struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                   // 主键
	RefundNo    string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"refund_no"` // 退款单号
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                         // 订单ID
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"`              // 退款金额
	Currency    string         `gorm:"type:varchar(10);not null" json:"currency"`              // 币种
	Reason      string         `gorm:"type:varchar(255)" json:"reason"`                        // 退款原因
	Status      string         `gorm:"index;not null" json:"status"`                           // 退款状态（pending/succeeded/failed）
	Gateway     string         `gorm:"type:varchar(50)" json:"gateway"`                        // 支付网关
	GatewayTxID string         `gorm:"type:varchar(128)" json:"gateway_tx_id"`                 // 网关退款流水号
	Note        string         `gorm:"type:varchar(255)" json:"note"`                          // 备注
	ProcessedAt *time.Time     `gorm:"index" json:"processed_at,omitempty"`                    // 处理完成时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间

	Items []RefundItem `gorm:"foreignKey:RefundID" json:"items,omitempty"`                     // 退款明细
}

// TableName 指定表名
func (Refund) TableName() string {
	return "refunds"
}

// RefundItem 退款明细表
type RefundItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                      // 主键
	RefundID    uint      `gorm:"index;not null" json:"refund_id"`           // 退款记录ID
	OrderItemID uint      `gorm:"index;not null" json:"order_item_id"`       // 订单项ID
	Quantity    int       `gorm:"not null" json:"quantity"`                  // 退款数量
	Amount      Money     `gorm:"type:decimal(20,2);not null" json:"amount"` // 退款金额
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                   // 创建时间
}

// TableName 指定表名
func (RefundItem) TableName() string {
	return "refund_items"
}
