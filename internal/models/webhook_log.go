package models

import "time"

// WebhookLog 回调投递日志表（仅追加，每次投递尝试一条）
type WebhookLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`                      // 主键
	WebhookID      uint      `gorm:"index;not null" json:"webhook_id"`          // 回调订阅ID
	DeliveryID     string    `gorm:"index;type:varchar(64)" json:"delivery_id"` // 投递ID（同一事件的多次尝试共享）
	Event          string    `gorm:"index;not null" json:"event"`               // 事件类型
	Status         string    `gorm:"index;not null" json:"status"`              // 投递结果（success/failed）
	Attempt        int       `gorm:"not null;default:1" json:"attempt"`         // 第几次尝试
	ResponseStatus int       `gorm:"default:0" json:"response_status"`          // HTTP响应状态码（0表示未收到响应）
	DurationMS     int64     `gorm:"default:0" json:"duration_ms"`              // 耗时（毫秒）
	ErrorMessage   string    `gorm:"type:varchar(500)" json:"error_message"`    // 错误信息
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                   // 创建时间
}

// TableName 指定表名
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
