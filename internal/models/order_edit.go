package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderEdit 订单编辑表（草拟变更 -> 请求确认 -> 确认/拒绝）
type OrderEdit struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                                 // 订单ID
	Status      string         `gorm:"index;not null" json:"status"`                                   // 编辑状态（created/requested/confirmed/declined）
	Note        string         `gorm:"type:varchar(255)" json:"note"`                                  // 备注
	DifferenceAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"difference_amount"` // 确认后产生的差价（新总额减旧总额）
	CreatedBy   *uint          `gorm:"index" json:"created_by,omitempty"`                              // 创建管理员ID
	DeclineNote string         `gorm:"type:varchar(255)" json:"decline_note"`                          // 拒绝原因
	RequestedAt *time.Time     `gorm:"index" json:"requested_at,omitempty"`                            // 请求确认时间
	ConfirmedAt *time.Time     `gorm:"index" json:"confirmed_at,omitempty"`                            // 确认时间
	DeclinedAt  *time.Time     `gorm:"index" json:"declined_at,omitempty"`                             // 拒绝时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	Changes []OrderEditChange `gorm:"foreignKey:OrderEditID" json:"changes,omitempty"`                 // 变更明细
}

// TableName 指定表名
func (OrderEdit) TableName() string {
	return "order_edits"
}

// OrderEditChange 订单编辑变更明细表
type OrderEditChange struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                    // 主键
	OrderEditID uint      `gorm:"index;not null" json:"order_edit_id"`                     // 订单编辑ID
	Type        string    `gorm:"index;not null" json:"type"`                              // 变更类型（add/remove/update_quantity）
	OrderItemID *uint     `gorm:"index" json:"order_item_id,omitempty"`                    // 订单项ID（remove/update 必填）
	ProductID   *uint     `gorm:"index" json:"product_id,omitempty"`                       // 商品ID（add 必填）
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`                      // 目标数量
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价（add 使用）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (OrderEditChange) TableName() string {
	return "order_edit_changes"
}
