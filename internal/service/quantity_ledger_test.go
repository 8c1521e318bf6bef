package service

import (
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestRemainingToFulfill(t *testing.T) {
	item := &models.OrderItem{Quantity: 3, FulfilledQuantity: 1}
	if got := RemainingToFulfill(item); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	item.FulfilledQuantity = 3
	if got := RemainingToFulfill(item); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := RemainingToFulfill(nil); got != 0 {
		t.Fatalf("expected 0 for nil item, got %d", got)
	}
}

func TestRemainingToReturn(t *testing.T) {
	item := &models.OrderItem{Quantity: 5, ReturnedQuantity: 2}
	if got := RemainingToReturn(item); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestRemainingRefundable(t *testing.T) {
	order := &models.Order{
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Refunds: []models.Refund{
			{Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(40)), Status: constants.RefundStatusSucceeded},
			{Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(30)), Status: constants.RefundStatusFailed},
			{Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)), Status: constants.RefundStatusPending},
		},
	}
	remaining := RemainingRefundable(order)
	if !remaining.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50, got %s", remaining.String())
	}
}

func TestRemainingRefundableNeverNegative(t *testing.T) {
	order := &models.Order{
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		Refunds: []models.Refund{
			{Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(30)), Status: constants.RefundStatusSucceeded},
		},
	}
	remaining := RemainingRefundable(order)
	if !remaining.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected 0, got %s", remaining.String())
	}
}

func TestDeriveFulfillmentState(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, FulfilledQuantity: 0},
		{Quantity: 1, FulfilledQuantity: 0},
	}
	if got := DeriveFulfillmentState(items); got != constants.FulfillmentStateUnfulfilled {
		t.Fatalf("expected unfulfilled, got %s", got)
	}
	items[0].FulfilledQuantity = 2
	if got := DeriveFulfillmentState(items); got != constants.FulfillmentStatePartial {
		t.Fatalf("expected partial, got %s", got)
	}
	items[1].FulfilledQuantity = 1
	if got := DeriveFulfillmentState(items); got != constants.FulfillmentStateFulfilled {
		t.Fatalf("expected fulfilled, got %s", got)
	}
}
