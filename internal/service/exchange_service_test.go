package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/repository"
)

func TestExchangePositiveDifferenceAwaitsPayment(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	productRepo := repository.NewProductRepository(db)
	fulfillSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)
	svc := NewExchangeService(orderRepo, exchangeRepo, productRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID // 单价 20.00
	product := createLifecycleTestProduct(t, db, "premium-upgrade", "35.00")

	if _, err := fulfillSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}

	// 差价 = 35.00 - 20.00 = 15.00
	exchange, err := svc.Create(context.Background(), CreateExchangeInput{
		OrderID:     order.ID,
		ReturnLines: []ExchangeReturnLineInput{{OrderItemID: itemID, Quantity: 1}},
		NewLines:    []ExchangeNewLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create exchange failed: %v", err)
	}
	if !exchange.DifferenceAmount.Decimal.Equal(money(t, "15.00").Decimal) {
		t.Fatalf("expected difference 15.00, got %s", exchange.DifferenceAmount)
	}
	if exchange.PaymentStatus != constants.ExchangePaymentAwaiting {
		t.Fatalf("expected awaiting, got %s", exchange.PaymentStatus)
	}

	// 差价未结清不可完成
	if _, err := svc.Complete(context.Background(), exchange.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before payment, got: %v", err)
	}

	if _, err := svc.MarkDifferencePaid(context.Background(), exchange.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	completed, err := svc.Complete(context.Background(), exchange.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.ExchangeStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if item := reloaded.ItemByID(itemID); item.ReturnedQuantity != 1 {
		t.Fatalf("expected returned quantity 1, got %d", item.ReturnedQuantity)
	}
}

func TestExchangeNegativeDifferenceRefundsCustomer(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	productRepo := repository.NewProductRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	fulfillSvc := NewFulfillmentService(orderRepo, fulfillmentRepo, nil)
	refundSvc := NewRefundService(orderRepo, refundRepo, nil, nil)
	svc := NewExchangeService(orderRepo, exchangeRepo, productRepo, refundSvc, nil)

	order := createLifecycleTestOrder(t, db)
	itemID := order.Items[0].ID
	product := createLifecycleTestProduct(t, db, "budget-swap", "15.00")

	if _, err := fulfillSvc.Create(context.Background(), CreateFulfillmentInput{
		OrderID: order.ID,
		Lines:   []FulfillmentLineInput{{OrderItemID: itemID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}

	// 差价 = 15.00 - 40.00 = -25.00，无需补款
	exchange, err := svc.Create(context.Background(), CreateExchangeInput{
		OrderID:     order.ID,
		ReturnLines: []ExchangeReturnLineInput{{OrderItemID: itemID, Quantity: 2}},
		NewLines:    []ExchangeNewLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create exchange failed: %v", err)
	}
	if exchange.PaymentStatus != constants.ExchangePaymentNotRequired {
		t.Fatalf("expected not_required, got %s", exchange.PaymentStatus)
	}

	completed, err := svc.Complete(context.Background(), exchange.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.RefundID == nil {
		t.Fatal("expected refund for negative difference")
	}
	if completed.PaymentStatus != constants.ExchangePaymentRefunded {
		t.Fatalf("expected refunded, got %s", completed.PaymentStatus)
	}

	refund, err := refundRepo.GetByID(*completed.RefundID)
	if err != nil || refund == nil {
		t.Fatalf("refund lookup failed: %v", err)
	}
	if !refund.Amount.Decimal.Equal(money(t, "25.00").Decimal) {
		t.Fatalf("expected refund 25.00, got %s", refund.Amount)
	}
}

func TestExchangeRejectsOverReturn(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	productRepo := repository.NewProductRepository(db)
	svc := NewExchangeService(orderRepo, exchangeRepo, productRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)
	product := createLifecycleTestProduct(t, db, "any-product", "10.00")

	// 未交付即申请换货
	if _, err := svc.Create(context.Background(), CreateExchangeInput{
		OrderID:     order.ID,
		ReturnLines: []ExchangeReturnLineInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		NewLines:    []ExchangeNewLineInput{{ProductID: product.ID, Quantity: 1}},
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got: %v", err)
	}
}
