package models

import (
	"time"

	"gorm.io/gorm"
)

// Store 店铺表
type Store struct {
	ID        uint           `gorm:"primarykey" json:"id"`                      // 主键
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`    // 店铺名称
	Currency  string         `gorm:"type:varchar(10);not null" json:"currency"` // 默认币种
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`       // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Store) TableName() string {
	return "stores"
}
