package service

import "errors"

// 服务层统一错误定义
var (
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderFetchFailed 订单查询失败
	ErrOrderFetchFailed = errors.New("order fetch failed")
	// ErrOrderItemNotFound 订单项不存在
	ErrOrderItemNotFound = errors.New("order item not found")
	// ErrInvalidTransition 当前状态不允许该转移
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInsufficientQuantity 剩余可用数量不足
	ErrInsufficientQuantity = errors.New("insufficient remaining quantity")
	// ErrOrderNotEditable 订单当前不可编辑
	ErrOrderNotEditable = errors.New("order not editable")
	// ErrPersistenceConflict 乐观锁冲突（订单已被并发修改）
	ErrPersistenceConflict = errors.New("persistence conflict")
	// ErrDeliveryFailed 回调投递失败
	ErrDeliveryFailed = errors.New("webhook delivery failed")

	// ErrFulfillmentNotFound 交付记录不存在
	ErrFulfillmentNotFound = errors.New("fulfillment not found")
	// ErrReturnNotFound 退货单不存在
	ErrReturnNotFound = errors.New("return not found")
	// ErrClaimNotFound 索赔记录不存在
	ErrClaimNotFound = errors.New("claim not found")
	// ErrExchangeNotFound 换货单不存在
	ErrExchangeNotFound = errors.New("exchange not found")
	// ErrOrderEditNotFound 改单记录不存在
	ErrOrderEditNotFound = errors.New("order edit not found")
	// ErrRefundNotFound 退款记录不存在
	ErrRefundNotFound = errors.New("refund not found")
	// ErrWebhookNotFound 回调订阅不存在
	ErrWebhookNotFound = errors.New("webhook not found")
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")

	// ErrAdminNotFound 管理员不存在
	ErrAdminNotFound = errors.New("admin not found")
	// ErrLoginFailed 账号或密码错误
	ErrLoginFailed = errors.New("login failed")
)
