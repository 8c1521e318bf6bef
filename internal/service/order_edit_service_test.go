package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/repository"
)

func TestOrderEditConfirmAppliesChanges(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	editRepo := repository.NewOrderEditRepository(db)
	productRepo := repository.NewProductRepository(db)
	svc := NewOrderEditService(orderRepo, editRepo, productRepo, nil)

	order := createLifecycleTestOrder(t, db) // 小计 100.00
	product := createLifecycleTestProduct(t, db, "extra-cable", "8.00")

	edit, err := svc.Create(context.Background(), CreateOrderEditInput{
		OrderID: order.ID,
		Changes: []OrderEditChangeInput{
			{Type: constants.OrderEditChangeUpdateQuantity, OrderItemID: order.Items[0].ID, Quantity: 2}, // 3 -> 2，-20.00
			{Type: constants.OrderEditChangeRemove, OrderItemID: order.Items[1].ID},                      // -40.00
			{Type: constants.OrderEditChangeAdd, ProductID: product.ID, Quantity: 2},                     // +16.00
		},
	})
	if err != nil {
		t.Fatalf("create edit failed: %v", err)
	}
	if edit.Status != constants.OrderEditStatusCreated {
		t.Fatalf("expected created, got %s", edit.Status)
	}
	if !edit.DifferenceAmount.Decimal.Equal(money(t, "-44.00").Decimal) {
		t.Fatalf("expected difference preview -44.00, got %s", edit.DifferenceAmount)
	}

	// 草稿不可直接确认
	if _, err := svc.Confirm(context.Background(), edit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for created->confirmed, got: %v", err)
	}

	if _, err := svc.RequestConfirmation(context.Background(), edit.ID); err != nil {
		t.Fatalf("request confirmation failed: %v", err)
	}
	confirmed, err := svc.Confirm(context.Background(), edit.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != constants.OrderEditStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if !reloaded.SubtotalAmount.Decimal.Equal(money(t, "56.00").Decimal) {
		t.Fatalf("expected subtotal 56.00, got %s", reloaded.SubtotalAmount)
	}
	if !reloaded.TotalAmount.Decimal.Equal(money(t, "56.00").Decimal) {
		t.Fatalf("expected total 56.00, got %s", reloaded.TotalAmount)
	}
	if len(reloaded.Items) != 2 {
		t.Fatalf("expected 2 items after edit, got %d", len(reloaded.Items))
	}

	// 已确认不可重复确认
	if _, err := svc.Confirm(context.Background(), edit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second confirm, got: %v", err)
	}
}

func TestOrderEditRejectsQuantityBelowFulfilled(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	editRepo := repository.NewOrderEditRepository(db)
	productRepo := repository.NewProductRepository(db)
	fulfillSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)
	svc := NewOrderEditService(orderRepo, editRepo, productRepo, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID

	if _, err := fulfillSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateOrderEditInput{
		OrderID: order.ID,
		Changes: []OrderEditChangeInput{
			{Type: constants.OrderEditChangeUpdateQuantity, OrderItemID: itemID, Quantity: 1},
		},
	}); !errors.Is(err, ErrOrderNotEditable) {
		t.Fatalf("expected ErrOrderNotEditable, got: %v", err)
	}

	// 移除已有交付活动的订单项同样被拒绝
	if _, err := svc.Create(context.Background(), CreateOrderEditInput{
		OrderID: order.ID,
		Changes: []OrderEditChangeInput{
			{Type: constants.OrderEditChangeRemove, OrderItemID: itemID},
		},
	}); !errors.Is(err, ErrOrderNotEditable) {
		t.Fatalf("expected ErrOrderNotEditable for remove, got: %v", err)
	}
}

func TestOrderEditDeclineAndTerminalOrder(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	editRepo := repository.NewOrderEditRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderSvc := NewOrderService(orderRepo, repository.NewFulfillmentRepository(db), nil, nil)
	svc := NewOrderEditService(orderRepo, editRepo, productRepo, nil)

	order := createLifecycleTestOrder(t, db)

	edit, err := svc.Create(context.Background(), CreateOrderEditInput{
		OrderID: order.ID,
		Changes: []OrderEditChangeInput{
			{Type: constants.OrderEditChangeUpdateQuantity, OrderItemID: order.Items[0].ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create edit failed: %v", err)
	}
	if _, err := svc.RequestConfirmation(context.Background(), edit.ID); err != nil {
		t.Fatalf("request confirmation failed: %v", err)
	}
	declined, err := svc.Decline(context.Background(), edit.ID, "customer changed mind")
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if declined.Status != constants.OrderEditStatusDeclined || declined.DeclineNote == "" {
		t.Fatalf("unexpected decline state: %+v", declined)
	}

	// 已取消订单不可创建改单
	if _, err := orderSvc.Cancel(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateOrderEditInput{
		OrderID: order.ID,
		Changes: []OrderEditChangeInput{
			{Type: constants.OrderEditChangeUpdateQuantity, OrderItemID: order.Items[0].ID, Quantity: 1},
		},
	}); !errors.Is(err, ErrOrderNotEditable) {
		t.Fatalf("expected ErrOrderNotEditable for cancelled order, got: %v", err)
	}
}
