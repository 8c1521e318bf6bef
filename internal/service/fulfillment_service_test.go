package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/repository"
)

func TestFulfillmentQuantityLedger(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	svc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID // 数量 3

	if _, err := svc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("first fulfillment failed: %v", err)
	}
	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if reloaded.FulfillmentStatus != constants.FulfillmentStatePartial {
		t.Fatalf("expected partial, got %s", reloaded.FulfillmentStatus)
	}

	if _, err := svc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines: []FulfillmentLineInput{
			{OrderItemID: itemID, Quantity: 1},
			{OrderItemID: order.Items[1].ID, Quantity: 2},
		},
	}); err != nil {
		t.Fatalf("second fulfillment failed: %v", err)
	}
	reloaded = reloadLifecycleOrder(t, db, order.ID)
	if reloaded.FulfillmentStatus != constants.FulfillmentStateFulfilled {
		t.Fatalf("expected fulfilled, got %s", reloaded.FulfillmentStatus)
	}

	// 超出剩余可交付数量的请求整体拒绝
	if _, err := svc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 1}},
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got: %v", err)
	}
}

func TestFulfillmentBatchAtomicity(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	svc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)

	order := createLifecycleTestOrder(t, db)

	// 第二行超量，整批拒绝，第一行也不得记账
	if _, err := svc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines: []FulfillmentLineInput{
			{OrderItemID: order.Items[0].ID, Quantity: 1},
			{OrderItemID: order.Items[1].ID, Quantity: 5},
		},
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got: %v", err)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	for i := range reloaded.Items {
		if reloaded.Items[i].FulfilledQuantity != 0 {
			t.Fatalf("expected no quantities booked, item %d got %d",
				reloaded.Items[i].ID, reloaded.Items[i].FulfilledQuantity)
		}
	}
}

func TestFulfillmentForwardOnly(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	svc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)

	order := createLifecycleTestOrder(t, db)
	fulfillment, err := svc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	// 未发货不能直接签收
	if _, err := svc.Deliver(context.Background(), fulfillment.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for created->delivered, got: %v", err)
	}

	if _, err := svc.Ship(context.Background(), fulfillment.ID, "dhl", "JD0001"); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	// 已发货不可取消
	if _, err := svc.Cancel(context.Background(), fulfillment.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for shipped->cancelled, got: %v", err)
	}
	if _, err := svc.Deliver(context.Background(), fulfillment.ID); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	// 已签收不可再发货
	if _, err := svc.Ship(context.Background(), fulfillment.ID, "", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for delivered->shipped, got: %v", err)
	}
}

func TestCancelFulfillmentReleasesQuantity(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	svc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID

	fulfillment, err := svc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), fulfillment.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.FulfillmentStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancel result: %+v", cancelled)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if item := reloaded.ItemByID(itemID); item.FulfilledQuantity != 0 {
		t.Fatalf("expected quantity released, got %d", item.FulfilledQuantity)
	}
	if reloaded.FulfillmentStatus != constants.FulfillmentStateUnfulfilled {
		t.Fatalf("expected unfulfilled after release, got %s", reloaded.FulfillmentStatus)
	}
}
