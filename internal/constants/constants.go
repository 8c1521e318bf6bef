package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// 订单支付状态常量
const (
	PaymentStatusPending           = "pending"
	PaymentStatusPaid              = "paid"
	PaymentStatusPartiallyRefunded = "partially_refunded"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusFailed            = "failed"
)

// 订单交付状态常量（按订单项聚合派生）
const (
	FulfillmentStateUnfulfilled = "unfulfilled"
	FulfillmentStatePartial     = "partial"
	FulfillmentStateFulfilled   = "fulfilled"
)

// 交付记录状态常量
const (
	FulfillmentStatusCreated   = "created"
	FulfillmentStatusShipped   = "shipped"
	FulfillmentStatusDelivered = "delivered"
	FulfillmentStatusCancelled = "cancelled"
)

// 退款状态常量
const (
	RefundStatusPending   = "pending"
	RefundStatusSucceeded = "succeeded"
	RefundStatusFailed    = "failed"
)

// 退货状态常量
const (
	ReturnStatusRequested = "requested"
	ReturnStatusReceived  = "received"
	ReturnStatusCompleted = "completed"
	ReturnStatusCancelled = "cancelled"
)

// 售后索赔类型常量
const (
	ClaimTypeRefund  = "refund"
	ClaimTypeReplace = "replace"
)

// 售后索赔状态常量
const (
	ClaimStatusCreated    = "created"
	ClaimStatusProcessing = "processing"
	ClaimStatusCompleted  = "completed"
	ClaimStatusCancelled  = "cancelled"
)

// 换货状态常量
const (
	ExchangeStatusCreated    = "created"
	ExchangeStatusProcessing = "processing"
	ExchangeStatusCompleted  = "completed"
	ExchangeStatusCancelled  = "cancelled"
)

// 换货差价支付状态常量
const (
	ExchangePaymentNotRequired = "not_required"
	ExchangePaymentAwaiting    = "awaiting"
	ExchangePaymentPaid        = "paid"
	ExchangePaymentRefunded    = "refunded"
)

// 换货项方向常量
const (
	ExchangeDirectionIn  = "in"
	ExchangeDirectionOut = "out"
)

// 订单改单状态常量
const (
	OrderEditStatusCreated   = "created"
	OrderEditStatusRequested = "requested"
	OrderEditStatusConfirmed = "confirmed"
	OrderEditStatusDeclined  = "declined"
)

// 订单改单变更类型常量
const (
	OrderEditChangeAdd            = "add"
	OrderEditChangeRemove         = "remove"
	OrderEditChangeUpdateQuantity = "update_quantity"
)

// 生命周期事件常量
const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderCancelled     = "order.cancelled"
	EventFulfillmentCreated = "fulfillment.created"
	EventReturnCompleted    = "return.completed"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentFailed      = "payment.failed"
	EventPaymentRefunded    = "payment.refunded"
	EventInventoryLowStock  = "inventory.low_stock"
	EventInventoryUpdated   = "inventory.updated"
	EventProductCreated     = "product.created"
	EventProductUpdated     = "product.updated"
	EventProductDeleted     = "product.deleted"
	EventCustomerCreated    = "customer.created"
	EventCustomerUpdated    = "customer.updated"
	// EventTestPing 手动测试投递使用的保留事件名
	EventTestPing = "test.ping"
)

// Webhook 投递结果常量
const (
	WebhookLogStatusSuccess = "success"
	WebhookLogStatusFailed  = "failed"
)

// 支付网关常量
const (
	PaymentGatewayOffline = "offline"
	PaymentGatewayWechat  = "wechat"
)

// 队列常量
const (
	QueueDefault        = "default"
	QueueWebhooks       = "webhooks"
	TaskWebhookDispatch = "webhook:dispatch"
	TaskWebhookDeliver  = "webhook:deliver"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "vn"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"

	LocaleDefault = LocaleZhCN
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)
