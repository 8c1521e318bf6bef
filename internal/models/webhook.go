package models

import (
	"time"

	"gorm.io/gorm"
)

// Webhook 回调订阅表
type Webhook struct {
	ID              uint           `gorm:"primarykey" json:"id"`                     // 主键
	StoreID         uint           `gorm:"index;not null;default:1" json:"store_id"` // 店铺ID
	Name            string         `gorm:"type:varchar(100)" json:"name"`            // 名称
	URL             string         `gorm:"type:varchar(500);not null" json:"url"`    // 回调地址
	Secret          string         `gorm:"type:varchar(128);not null" json:"-"`      // 签名密钥
	Events          StringArray    `gorm:"type:text" json:"events"`                  // 订阅事件列表
	IsActive        bool           `gorm:"index;default:true" json:"is_active"`      // 是否启用
	RetryCount      int            `gorm:"not null;default:0" json:"retry_count"`    // 累计重试次数
	FailureCount    int            `gorm:"not null;default:0" json:"failure_count"`  // 累计最终失败次数
	LastTriggeredAt *time.Time     `gorm:"index" json:"last_triggered_at,omitempty"` // 最近触发时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                  // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间
}

// TableName 指定表名
func (Webhook) TableName() string {
	return "webhooks"
}

// SubscribesTo 判断是否订阅了指定事件
func (w *Webhook) SubscribesTo(event string) bool {
	return len(w.Events) == 0 || w.Events.Contains(event)
}
