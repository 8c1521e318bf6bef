package models

import (
	"time"

	"gorm.io/gorm"
)

// Claim 售后索赔表（仅退款或补发）
type Claim struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                             // 订单ID
	Type        string         `gorm:"index;not null" json:"type"`                                 // 索赔类型（refund/replace）
	Status      string         `gorm:"index;not null" json:"status"`                               // 索赔状态（created/processing/completed/cancelled）
	Reason      string         `gorm:"type:varchar(255)" json:"reason"`                            // 索赔原因
	Note        string         `gorm:"type:varchar(255)" json:"note"`                              // 备注
	RefundAmount Money         `gorm:"type:decimal(20,2);not null;default:0" json:"refund_amount"` // 退款金额（refund 类型）
	RefundID    *uint          `gorm:"index" json:"refund_id,omitempty"`                           // 关联退款记录ID（仅退款型）
	CompletedAt *time.Time     `gorm:"index" json:"completed_at,omitempty"`                        // 完成时间
	CancelledAt *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                        // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Items []ClaimItem `gorm:"foreignKey:ClaimID" json:"items,omitempty"`                           // 索赔明细
}

// TableName 指定表名
func (Claim) TableName() string {
	return "claims"
}

// ClaimItem 索赔明细表
type ClaimItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                // 主键
	ClaimID     uint      `gorm:"index;not null" json:"claim_id"`      // 索赔记录ID
	OrderItemID uint      `gorm:"index;not null" json:"order_item_id"` // 订单项ID
	Quantity    int       `gorm:"not null" json:"quantity"`            // 索赔数量
	CreatedAt   time.Time `gorm:"index" json:"created_at"`             // 创建时间
}

// TableName 指定表名
func (ClaimItem) TableName() string {
	return "claim_items"
}
