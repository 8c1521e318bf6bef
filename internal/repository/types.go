package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	StoreID       uint
	CustomerID    uint
	Status        string
	PaymentStatus string
	OrderNo       string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// FulfillmentListFilter 查询交付记录列表的过滤条件
type FulfillmentListFilter struct {
	Page     int
	PageSize int
	OrderID  uint
	Status   string
}

// WorkflowListFilter 查询售后单（退货/索赔/换货/订单编辑）列表的过滤条件
type WorkflowListFilter struct {
	Page     int
	PageSize int
	OrderID  uint
	Status   string
	Type     string
}

// RefundListFilter 查询退款记录列表的过滤条件
type RefundListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WebhookListFilter 查询回调订阅列表的过滤条件
type WebhookListFilter struct {
	Page       int
	PageSize   int
	StoreID    uint
	Event      string
	OnlyActive bool
}

// WebhookLogListFilter 查询回调投递日志列表的过滤条件
type WebhookLogListFilter struct {
	Page      int
	PageSize  int
	WebhookID uint
	Event     string
	Status    string
}
