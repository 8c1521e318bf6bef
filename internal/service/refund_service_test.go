package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/event"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/payment"
	"github.com/vendora-next/internal/repository"

	"gorm.io/gorm"
)

// countingGateway 记录退款调用次数；首次调用时可抬高订单版本，模拟创建过程中的并发写
type countingGateway struct {
	db          *gorm.DB
	calls       int
	bumpOrderID uint
	err         error
}

func (g *countingGateway) Name() string { return "counting" }

func (g *countingGateway) Refund(_ context.Context, _ payment.RefundRequest) (*payment.RefundResult, error) {
	g.calls++
	if g.calls == 1 && g.bumpOrderID > 0 {
		if err := g.db.Model(&models.Order{}).
			Where("id = ?", g.bumpOrderID).
			UpdateColumn("version", gorm.Expr("version + 1")).Error; err != nil {
			return nil, err
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &payment.RefundResult{GatewayTxID: fmt.Sprintf("tx-%d", g.calls), Status: "succeeded"}, nil
}

func TestRefundRemainingRefundable(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	svc := NewRefundService(orderRepo, refundRepo, nil, nil)

	order := createLifecycleTestOrder(t, db) // 总额 100.00

	refund, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "40.00"),
		Reason:  "damaged item",
	})
	if err != nil {
		t.Fatalf("first refund failed: %v", err)
	}
	if refund.Status != constants.RefundStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", refund.Status)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if reloaded.PaymentStatus != constants.PaymentStatusPartiallyRefunded {
		t.Fatalf("expected partially_refunded, got %s", reloaded.PaymentStatus)
	}
	if remaining := RemainingRefundable(reloaded); !remaining.Decimal.Equal(money(t, "60.00").Decimal) {
		t.Fatalf("expected remaining refundable 60.00, got %s", remaining)
	}

	// 超出剩余可退金额
	if _, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "70.00"),
	}); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got: %v", err)
	}

	// 恰好退完剩余金额
	if _, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "60.00"),
	}); err != nil {
		t.Fatalf("final refund failed: %v", err)
	}
	reloaded = reloadLifecycleOrder(t, db, order.ID)
	if reloaded.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", reloaded.PaymentStatus)
	}
}

func TestRefundChargesGatewayOnce(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	order := createLifecycleTestOrder(t, db)

	bus := event.NewBus()
	var eventStoreID uint
	bus.Subscribe(constants.EventPaymentRefunded, func(_ context.Context, evt event.Event) {
		eventStoreID = evt.StoreID
	})

	// 网关首次调用中抬高订单版本，制造版本冲突
	gw := &countingGateway{db: db, bumpOrderID: order.ID}
	svc := NewRefundService(orderRepo, refundRepo, gw, bus)

	refund, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "40.00"),
		Reason:  "damaged item",
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if gw.calls != 1 {
		t.Fatalf("expected exactly 1 gateway call, got %d", gw.calls)
	}
	if refund.Status != constants.RefundStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", refund.Status)
	}
	if refund.GatewayTxID != "tx-1" {
		t.Fatalf("expected gateway tx id tx-1, got %q", refund.GatewayTxID)
	}
	if eventStoreID != order.StoreID {
		t.Fatalf("expected event store id %d, got %d", order.StoreID, eventStoreID)
	}

	var rows []models.Refund
	if err := db.Where("order_id = ?", order.ID).Find(&rows).Error; err != nil {
		t.Fatalf("list refunds failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 refund row, got %d", len(rows))
	}
	if rows[0].Status != constants.RefundStatusSucceeded {
		t.Fatalf("expected persisted status succeeded, got %s", rows[0].Status)
	}
}

func TestRefundGatewayFailureReleasesBalance(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	order := createLifecycleTestOrder(t, db)

	gw := &countingGateway{db: db, err: errors.New("gateway declined")}
	svc := NewRefundService(orderRepo, refundRepo, gw, nil)

	if _, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "40.00"),
	}); err == nil {
		t.Fatal("expected gateway error")
	}

	var rows []models.Refund
	if err := db.Where("order_id = ?", order.ID).Find(&rows).Error; err != nil {
		t.Fatalf("list refunds failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 refund row, got %d", len(rows))
	}
	if rows[0].Status != constants.RefundStatusFailed {
		t.Fatalf("expected failed refund row, got %s", rows[0].Status)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if reloaded.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected payment status restored to paid, got %s", reloaded.PaymentStatus)
	}
	if remaining := RemainingRefundable(reloaded); !remaining.Decimal.Equal(money(t, "100.00").Decimal) {
		t.Fatalf("expected full amount refundable again, got %s", remaining)
	}

	// 余额释放后可重新发起退款
	gw.err = nil
	if _, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "100.00"),
	}); err != nil {
		t.Fatalf("retry refund failed: %v", err)
	}
	if reloaded := reloadLifecycleOrder(t, db, order.ID); reloaded.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("expected refunded after retry, got %s", reloaded.PaymentStatus)
	}
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	svc := NewRefundService(orderRepo, refundRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)

	if _, err := svc.Create(context.Background(), CreateRefundInput{
		OrderID: order.ID,
		Amount:  money(t, "0"),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}
