package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/repository"
)

func TestReturnRequestValidatesQuantity(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	fulfillSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)
	svc := NewReturnService(orderRepo, returnRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID

	// 未交付时可退数量为 0
	if _, err := svc.Request(context.Background(), RequestReturnInput{
		OrderID: order.ID,
		Lines:   []ReturnLineInput{{OrderItemID: itemID, Quantity: 1}},
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity before fulfillment, got: %v", err)
	}

	if _, err := fulfillSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}

	if _, err := svc.Request(context.Background(), RequestReturnInput{
		OrderID: order.ID,
		Lines:   []ReturnLineInput{{OrderItemID: itemID, Quantity: 3}},
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity for over-request, got: %v", err)
	}

	ret, err := svc.Request(context.Background(), RequestReturnInput{
		OrderID: order.ID,
		Reason:  "wrong size",
		Lines:   []ReturnLineInput{{OrderItemID: itemID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ret.Status != constants.ReturnStatusRequested {
		t.Fatalf("expected requested, got %s", ret.Status)
	}
}

func TestReturnLifecycleCreditsLedgerAndRefund(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	fulfillSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)
	refundSvc := NewRefundService(orderRepo, refundRepo, nil, nil)
	svc := NewReturnService(orderRepo, returnRepo, refundSvc, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID

	if _, err := fulfillSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 3}},
	}); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}

	ret, err := svc.Request(context.Background(), RequestReturnInput{
		OrderID: order.ID,
		Lines:   []ReturnLineInput{{OrderItemID: itemID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// 实收超过申请数量被拒绝
	if _, err := svc.MarkReceived(context.Background(), ret.ID, []ReceivedLineInput{
		{OrderItemID: itemID, ReceivedQuantity: 4},
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity for over-receipt, got: %v", err)
	}

	// 部分实收
	received, err := svc.MarkReceived(context.Background(), ret.ID, []ReceivedLineInput{
		{OrderItemID: itemID, ReceivedQuantity: 2},
	})
	if err != nil {
		t.Fatalf("mark received failed: %v", err)
	}
	if received.Status != constants.ReturnStatusReceived {
		t.Fatalf("expected received, got %s", received.Status)
	}

	// 收货后不可再取消
	if _, err := svc.Cancel(context.Background(), ret.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for received->cancelled, got: %v", err)
	}

	completed, err := svc.Complete(context.Background(), ret.ID, money(t, "40.00"))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.ReturnStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completion state: %+v", completed)
	}
	if completed.RefundID == nil {
		t.Fatal("expected linked refund")
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if item := reloaded.ItemByID(itemID); item.ReturnedQuantity != 2 {
		t.Fatalf("expected returned quantity 2, got %d", item.ReturnedQuantity)
	}
	if reloaded.PaymentStatus != constants.PaymentStatusPartiallyRefunded {
		t.Fatalf("expected partially_refunded, got %s", reloaded.PaymentStatus)
	}

	refund, err := refundRepo.GetByID(*completed.RefundID)
	if err != nil || refund == nil {
		t.Fatalf("refund lookup failed: %v", err)
	}
	if !refund.Amount.Decimal.Equal(money(t, "40.00").Decimal) {
		t.Fatalf("expected refund 40.00, got %s", refund.Amount)
	}

	// 完成后不可重复完成
	if _, err := svc.Complete(context.Background(), ret.ID, money(t, "1.00")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestReturnCancelOnlyFromRequested(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	fulfillSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)
	svc := NewReturnService(orderRepo, returnRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[1].ID

	if _, err := fulfillSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}
	ret, err := svc.Request(context.Background(), RequestReturnInput{
		OrderID: order.ID,
		Lines:   []ReturnLineInput{{OrderItemID: itemID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), ret.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.ReturnStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// 取消不影响台账
	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if item := reloaded.ItemByID(itemID); item.ReturnedQuantity != 0 {
		t.Fatalf("expected no returned quantity, got %d", item.ReturnedQuantity)
	}
}
