package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/repository"
)

func TestClaimRefundTypeCreatesRefund(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	refundSvc := NewRefundService(orderRepo, refundRepo, nil, nil)
	svc := NewClaimService(orderRepo, claimRepo, refundSvc, nil)

	order := createLifecycleTestOrder(t, db)

	claim, err := svc.Create(context.Background(), CreateClaimInput{
		OrderID: order.ID,
		Type:    constants.ClaimTypeRefund,
		Reason:  "item arrived broken",
		Lines:   []ClaimLineInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create claim failed: %v", err)
	}
	if claim.Status != constants.ClaimStatusCreated {
		t.Fatalf("expected created, got %s", claim.Status)
	}

	if _, err := svc.Process(context.Background(), claim.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	// refund 类型完成必须给出正数金额
	if _, err := svc.Complete(context.Background(), claim.ID, money(t, "0")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero amount, got: %v", err)
	}

	completed, err := svc.Complete(context.Background(), claim.ID, money(t, "20.00"))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.RefundID == nil {
		t.Fatal("expected linked refund")
	}
	if !completed.RefundAmount.Decimal.Equal(money(t, "20.00").Decimal) {
		t.Fatalf("expected refund amount 20.00, got %s", completed.RefundAmount)
	}

	reloaded := reloadLifecycleOrder(t, db, order.ID)
	if remaining := RemainingRefundable(reloaded); !remaining.Decimal.Equal(money(t, "80.00").Decimal) {
		t.Fatalf("expected remaining refundable 80.00, got %s", remaining)
	}

	// 完成后不可取消
	if _, err := svc.Cancel(context.Background(), claim.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestClaimReplaceTypeCompletesWithoutRefund(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	svc := NewClaimService(orderRepo, claimRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)

	claim, err := svc.Create(context.Background(), CreateClaimInput{
		OrderID: order.ID,
		Type:    constants.ClaimTypeReplace,
		Lines:   []ClaimLineInput{{OrderItemID: order.Items[1].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create claim failed: %v", err)
	}

	// created 可直接完成，不要求金额
	completed, err := svc.Complete(context.Background(), claim.ID, money(t, "0"))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.ClaimStatusCompleted || completed.RefundID != nil {
		t.Fatalf("unexpected completion state: %+v", completed)
	}
}

func TestClaimRejectsUnknownType(t *testing.T) {
	db := setupLifecycleTest(t)
	orderRepo := repository.NewOrderRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	svc := NewClaimService(orderRepo, claimRepo, nil, nil)

	order := createLifecycleTestOrder(t, db)

	if _, err := svc.Create(context.Background(), CreateClaimInput{
		OrderID: order.ID,
		Type:    "repair",
		Lines:   []ClaimLineInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}
