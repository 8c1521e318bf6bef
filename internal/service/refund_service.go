package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/event"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/payment"
	"github.com/vendora-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefundService 退款服务
type RefundService struct {
	orderRepo  repository.OrderRepository
	refundRepo repository.RefundRepository
	gateway    payment.Gateway
	bus        *event.Bus
}

// NewRefundService 创建退款服务
func NewRefundService(orderRepo repository.OrderRepository, refundRepo repository.RefundRepository, gateway payment.Gateway, bus *event.Bus) *RefundService {
	return &RefundService{
		orderRepo:  orderRepo,
		refundRepo: refundRepo,
		gateway:    gateway,
		bus:        bus,
	}
}

// RefundItemInput 退款明细输入
type RefundItemInput struct {
	OrderItemID uint
	Quantity    int
	Amount      models.Money
}

// CreateRefundInput 创建退款输入
type CreateRefundInput struct {
	OrderID uint
	Amount  models.Money
	Reason  string
	Note    string
	Items   []RefundItemInput
}

// Create 创建退款
// 先以 pending 状态在守护事务内占住可退余额，网关调用在占额成功后只执行一次；
// 网关成功标记 succeeded，失败标记 failed 释放余额并还原订单支付状态
func (s *RefundService) Create(ctx context.Context, input CreateRefundInput) (*models.Refund, error) {
	if input.OrderID == 0 || !input.Amount.Decimal.IsPositive() {
		return nil, ErrInvalidInput
	}

	var (
		order  *models.Order
		refund *models.Refund
	)
	reserved := false
	for attempt := 0; attempt < 2; attempt++ {
		var err error
		order, refund, err = s.tryReserve(input)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reserved = true
		break
	}
	if !reserved {
		return nil, ErrPersistenceConflict
	}

	if err := s.settle(ctx, order, refund); err != nil {
		return nil, err
	}

	s.publishRefunded(ctx, order, refund)
	logger.Infow("refund_created",
		"order_id", input.OrderID,
		"refund_no", refund.RefundNo,
		"amount", refund.Amount.String(),
	)
	return refund, nil
}

// tryReserve 在版本守护事务内登记 pending 退款并预写订单支付状态
// pending 记录同样计入已退余额，版本冲突重试时不会重复占额
func (s *RefundService) tryReserve(input CreateRefundInput) (*models.Order, *models.Refund, error) {
	order, err := s.orderRepo.GetDetail(input.OrderID)
	if err != nil {
		return nil, nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}

	remaining := RemainingRefundable(order)
	if input.Amount.Decimal.GreaterThan(remaining.Decimal) {
		return nil, nil, fmt.Errorf("%w: remaining refundable %s, requested %s",
			ErrInsufficientQuantity, remaining.String(), input.Amount.String())
	}

	now := time.Now()
	refund := &models.Refund{
		RefundNo:  generateRefundNo(),
		OrderID:   order.ID,
		Amount:    input.Amount,
		Currency:  order.Currency,
		Reason:    strings.TrimSpace(input.Reason),
		Note:      strings.TrimSpace(input.Note),
		Status:    constants.RefundStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.gateway != nil {
		refund.Gateway = s.gateway.Name()
	}
	items := make([]models.RefundItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, models.RefundItem{
			OrderItemID: in.OrderItemID,
			Quantity:    in.Quantity,
			Amount:      in.Amount,
		})
	}

	// 退款后订单支付状态：退满为 refunded，否则 partially_refunded
	nextPaymentStatus := constants.PaymentStatusPartiallyRefunded
	if input.Amount.Decimal.Equal(remaining.Decimal) {
		nextPaymentStatus = constants.PaymentStatusRefunded
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.refundRepo.WithTx(tx).Create(refund, items); err != nil {
			return err
		}
		ok, err := s.orderRepo.WithTx(tx).UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"payment_status": nextPaymentStatus,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errStaleOrder
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	refund.Items = items
	return order, refund, nil
}

// settle 执行一次网关退款并落定退款终态
func (s *RefundService) settle(ctx context.Context, order *models.Order, refund *models.Refund) error {
	now := time.Now()
	var gatewayTxID string
	if s.gateway != nil {
		result, err := s.gateway.Refund(ctx, payment.RefundRequest{
			OrderNo:  order.OrderNo,
			RefundNo: refund.RefundNo,
			Total:    order.TotalAmount,
			Amount:   refund.Amount,
			Currency: order.Currency,
			Reason:   refund.Reason,
		})
		if err != nil {
			logger.Errorw("gateway_refund_failed", "order_no", order.OrderNo, "refund_no", refund.RefundNo, "error", err)
			if markErr := s.refundRepo.Update(refund.ID, map[string]interface{}{
				"status":     constants.RefundStatusFailed,
				"updated_at": now,
			}); markErr != nil {
				logger.Errorw("refund_mark_failed_error", "refund_no", refund.RefundNo, "error", markErr)
			} else {
				refund.Status = constants.RefundStatusFailed
				s.rollupPaymentStatus(order.ID)
			}
			return err
		}
		gatewayTxID = result.GatewayTxID
	}

	if err := s.refundRepo.Update(refund.ID, map[string]interface{}{
		"status":        constants.RefundStatusSucceeded,
		"gateway_tx_id": gatewayTxID,
		"processed_at":  now,
		"updated_at":    now,
	}); err != nil {
		return err
	}
	refund.Status = constants.RefundStatusSucceeded
	refund.GatewayTxID = gatewayTxID
	refund.ProcessedAt = &now
	refund.UpdatedAt = now
	return nil
}

// rollupPaymentStatus 按非 failed 退款总额重算订单支付状态
func (s *RefundService) rollupPaymentStatus(orderID uint) {
	for attempt := 0; attempt < 2; attempt++ {
		order, err := s.orderRepo.GetDetail(orderID)
		if err != nil || order == nil {
			logger.Errorw("refund_rollup_fetch_failed", "order_id", orderID, "error", err)
			return
		}
		remaining := RemainingRefundable(order)
		status := constants.PaymentStatusPartiallyRefunded
		switch {
		case remaining.Decimal.Equal(order.TotalAmount.Decimal):
			status = constants.PaymentStatusPaid
		case remaining.Decimal.IsZero():
			status = constants.PaymentStatusRefunded
		}
		ok, err := s.orderRepo.UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"payment_status": status,
			"updated_at":     time.Now(),
		})
		if err != nil {
			logger.Errorw("refund_rollup_update_failed", "order_id", orderID, "error", err)
			return
		}
		if ok {
			return
		}
	}
	logger.Warnw("refund_rollup_conflict", "order_id", orderID)
}

// Get 获取退款记录
func (s *RefundService) Get(refundID uint) (*models.Refund, error) {
	refund, err := s.refundRepo.GetByID(refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	return refund, nil
}

// List 退款记录列表
func (s *RefundService) List(filter repository.RefundListFilter) ([]models.Refund, int64, error) {
	return s.refundRepo.List(filter)
}

func (s *RefundService) publishRefunded(ctx context.Context, order *models.Order, refund *models.Refund) {
	if s.bus == nil || refund == nil {
		return
	}
	s.bus.Publish(ctx, event.Event{
		Name:    constants.EventPaymentRefunded,
		StoreID: order.StoreID,
		Payload: map[string]interface{}{
			"refund_id": refund.ID,
			"refund_no": refund.RefundNo,
			"order_id":  refund.OrderID,
			"amount":    refund.Amount.String(),
			"currency":  refund.Currency,
			"status":    refund.Status,
		},
	})
}

// generateRefundNo 生成退款单号
func generateRefundNo() string {
	return fmt.Sprintf("RF%s%s",
		time.Now().Format("20060102150405"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
