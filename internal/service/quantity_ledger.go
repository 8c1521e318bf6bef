package service

import (
	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
)

// 数量台账：从订单项计数器与退款集合派生的只读视图。
// 所有售后操作在状态转移前都要先通过这里的校验。

// RemainingToFulfill 订单项剩余可交付数量
func RemainingToFulfill(item *models.OrderItem) int {
	if item == nil {
		return 0
	}
	remaining := item.Quantity - item.FulfilledQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingToReturn 订单项剩余可退货数量
func RemainingToReturn(item *models.OrderItem) int {
	if item == nil {
		return 0
	}
	remaining := item.Quantity - item.ReturnedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingRefundable 订单剩余可退款金额
// 订单总额减去全部非失败退款之和，下限为 0
func RemainingRefundable(order *models.Order) models.Money {
	if order == nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	refunded := decimal.Zero
	for i := range order.Refunds {
		if order.Refunds[i].Status == constants.RefundStatusFailed {
			continue
		}
		refunded = refunded.Add(order.Refunds[i].Amount.Decimal)
	}
	remaining := order.TotalAmount.Decimal.Sub(refunded)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return models.NewMoneyFromDecimal(remaining)
}

// DeriveFulfillmentState 按订单项计数器派生订单交付状态
func DeriveFulfillmentState(items []models.OrderItem) string {
	if len(items) == 0 {
		return constants.FulfillmentStateUnfulfilled
	}
	var fulfilled, total int
	for i := range items {
		total += items[i].Quantity
		fulfilled += items[i].FulfilledQuantity
	}
	switch {
	case fulfilled == 0:
		return constants.FulfillmentStateUnfulfilled
	case fulfilled >= total:
		return constants.FulfillmentStateFulfilled
	default:
		return constants.FulfillmentStatePartial
	}
}
