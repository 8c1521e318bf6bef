package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/tax"

	"github.com/shopspring/decimal"
)

func TestCreateOrderComputesTotals(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	svc := NewOrderService(orderRepo, repository.NewFulfillmentRepository(db), nil, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		Currency:       "USD",
		ShippingAmount: money(t, "3.00"),
		DiscountAmount: money(t, "2.00"),
		Items: []CreateOrderItemInput{
			{ProductID: 1, UnitPrice: money(t, "10.00"), Quantity: 2},
			{ProductID: 2, UnitPrice: money(t, "5.00"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.SubtotalAmount.Decimal.Equal(money(t, "25.00").Decimal) {
		t.Fatalf("expected subtotal 25.00, got %s", order.SubtotalAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(money(t, "26.00").Decimal) {
		t.Fatalf("expected total 26.00, got %s", order.TotalAmount.String())
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment status, got %s", order.PaymentStatus)
	}
	if order.FulfillmentStatus != constants.FulfillmentStateUnfulfilled {
		t.Fatalf("expected unfulfilled, got %s", order.FulfillmentStatus)
	}
	if order.OrderNo == "" {
		t.Fatalf("expected order no to be generated")
	}
}

func TestOrderStatusForwardOnly(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	svc := NewOrderService(orderRepo, repository.NewFulfillmentRepository(db), nil, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: 1, UnitPrice: money(t, "10.00"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 跳级推进被拒绝
	if _, err := svc.UpdateStatus(context.Background(), order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending->shipped, got: %v", err)
	}
	// 回退被拒绝
	if _, err := svc.UpdateStatus(context.Background(), order.ID, constants.OrderStatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending->pending, got: %v", err)
	}

	for _, next := range []string{
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCompleted,
	} {
		if _, err := svc.UpdateStatus(context.Background(), order.ID, next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}

	// 终态后不可再推进
	if _, err := svc.UpdateStatus(context.Background(), order.ID, constants.OrderStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for completed->cancelled, got: %v", err)
	}
}

func TestCancelOrderExactlyOnce(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	svc := NewOrderService(orderRepo, repository.NewFulfillmentRepository(db), nil, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: 1, UnitPrice: money(t, "10.00"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancel result: %+v", cancelled)
	}

	if _, err := svc.Cancel(context.Background(), order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second cancel, got: %v", err)
	}
}

func TestCancelOrderCascadesFulfillments(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	orderSvc := NewOrderService(orderRepo, fulfillmentRepo, nil, nil)
	fulfillmentSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)

	order := createLifecycleTestOrder(t, db)

	// 一条已签收、一条仅创建
	delivered, err := fulfillmentSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: order.Items[0].ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}
	if _, err := fulfillmentSvc.Ship(context.Background(), delivered.ID, "ups", "1Z999"); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if _, err := fulfillmentSvc.Deliver(context.Background(), delivered.ID); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	pending, err := fulfillmentSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: order.Items[1].ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create second fulfillment failed: %v", err)
	}

	if _, err := orderSvc.Cancel(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	reloadedDelivered, err := fulfillmentSvc.Get(delivered.ID)
	if err != nil {
		t.Fatalf("reload delivered fulfillment failed: %v", err)
	}
	if reloadedDelivered.Status != constants.FulfillmentStatusDelivered {
		t.Fatalf("delivered fulfillment must survive cancel, got %s", reloadedDelivered.Status)
	}
	reloadedPending, err := fulfillmentSvc.Get(pending.ID)
	if err != nil {
		t.Fatalf("reload pending fulfillment failed: %v", err)
	}
	if reloadedPending.Status != constants.FulfillmentStatusCancelled {
		t.Fatalf("active fulfillment must be cancelled with order, got %s", reloadedPending.Status)
	}

	// 取消的交付释放数量，已签收的保留
	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if item := reloaded.ItemByID(order.Items[0].ID); item.FulfilledQuantity != 2 {
		t.Fatalf("delivered quantity must be kept, got %d", item.FulfilledQuantity)
	}
	if item := reloaded.ItemByID(order.Items[1].ID); item.FulfilledQuantity != 0 {
		t.Fatalf("cancelled fulfillment quantity must be released, got %d", item.FulfilledQuantity)
	}
}

func TestMarkPaidMovesPendingToProcessing(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	svc := NewOrderService(orderRepo, repository.NewFulfillmentRepository(db), nil, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: 1, UnitPrice: money(t, "10.00"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := svc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.PaymentStatus != constants.PaymentStatusPaid || paid.Status != constants.OrderStatusProcessing {
		t.Fatalf("unexpected state after mark paid: %s/%s", paid.Status, paid.PaymentStatus)
	}
	if paid.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	// 重复标记是幂等的
	again, err := svc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("second mark paid failed: %v", err)
	}
	if again.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid to remain, got %s", again.PaymentStatus)
	}
}

func TestOrderTaxCalculatorApplied(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)

	svc := NewOrderService(orderRepo, repository.NewFulfillmentRepository(db), tax.FlatRate(decimal.NewFromFloat(0.1)), nil)
	order, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: 1, UnitPrice: money(t, "100.00"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.TaxAmount.Decimal.Equal(money(t, "10.00").Decimal) {
		t.Fatalf("expected tax 10.00, got %s", order.TaxAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(money(t, "110.00").Decimal) {
		t.Fatalf("expected total 110.00, got %s", order.TotalAmount.String())
	}

	// 显式传入税额时不再调用计税器
	explicit := money(t, "5.00")
	order2, err := svc.Create(context.Background(), CreateOrderInput{
		TaxAmount: &explicit,
		Items:     []CreateOrderItemInput{{ProductID: 1, UnitPrice: money(t, "100.00"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order2.TaxAmount.Decimal.Equal(explicit.Decimal) {
		t.Fatalf("expected explicit tax 5.00, got %s", order2.TaxAmount.String())
	}
}
