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
	"github.com/vendora-next/internal/repository"

	"gorm.io/gorm"
)

// ReturnService 退货服务
// requested -> received -> completed，requested 可取消
type ReturnService struct {
	orderRepo  repository.OrderRepository
	returnRepo repository.ReturnRepository
	refundSvc  *RefundService
	bus        *event.Bus
}

// NewReturnService 创建退货服务
func NewReturnService(orderRepo repository.OrderRepository, returnRepo repository.ReturnRepository, refundSvc *RefundService, bus *event.Bus) *ReturnService {
	return &ReturnService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		refundSvc:  refundSvc,
		bus:        bus,
	}
}

// ReturnLineInput 退货明细输入
type ReturnLineInput struct {
	OrderItemID uint
	Quantity    int
}

// RequestReturnInput 申请退货输入
type RequestReturnInput struct {
	OrderID uint
	Reason  string
	Note    string
	Lines   []ReturnLineInput
}

// ReceivedLineInput 收货确认明细输入
type ReceivedLineInput struct {
	OrderItemID      uint
	ReceivedQuantity int
}

// Request 申请退货
// 申请阶段不动台账，仅校验数量并落单
func (s *ReturnService) Request(ctx context.Context, input RequestReturnInput) (*models.ReturnOrder, error) {
	if input.OrderID == 0 || len(input.Lines) == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %s", ErrInvalidTransition, order.Status)
	}

	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
		item := order.ItemByID(line.OrderItemID)
		if item == nil {
			return nil, ErrOrderItemNotFound
		}
		if remaining := RemainingToReturn(item); line.Quantity > remaining {
			return nil, fmt.Errorf("%w: item %d remaining %d, requested %d",
				ErrInsufficientQuantity, line.OrderItemID, remaining, line.Quantity)
		}
	}

	now := time.Now()
	ret := &models.ReturnOrder{
		OrderID:   input.OrderID,
		Status:    constants.ReturnStatusRequested,
		Reason:    strings.TrimSpace(input.Reason),
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	items := make([]models.ReturnItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.ReturnItem{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.returnRepo.WithTx(tx).Create(ret, items)
	})
	if err != nil {
		return nil, err
	}
	ret.Items = items
	logger.Infow("return_requested", "order_id", input.OrderID, "return_id", ret.ID)
	return ret, nil
}

// MarkReceived 仓库确认收货
// 实收数量可以小于申请数量，但不能超过
func (s *ReturnService) MarkReceived(ctx context.Context, returnID uint, lines []ReceivedLineInput) (*models.ReturnOrder, error) {
	ret, err := s.get(returnID)
	if err != nil {
		return nil, err
	}
	if ret.Status != constants.ReturnStatusRequested {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ret.Status, constants.ReturnStatusReceived)
	}

	received := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.ReceivedQuantity < 0 {
			return nil, ErrInvalidInput
		}
		received[line.OrderItemID] = line.ReceivedQuantity
	}
	for i := range ret.Items {
		qty, ok := received[ret.Items[i].OrderItemID]
		if !ok {
			continue
		}
		if qty > ret.Items[i].Quantity {
			return nil, fmt.Errorf("%w: item %d requested %d, received %d",
				ErrInsufficientQuantity, ret.Items[i].OrderItemID, ret.Items[i].Quantity, qty)
		}
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		returnRepo := s.returnRepo.WithTx(tx)
		for i := range ret.Items {
			qty, ok := received[ret.Items[i].OrderItemID]
			if !ok {
				qty = ret.Items[i].Quantity
			}
			if err := returnRepo.UpdateItem(ret.Items[i].ID, map[string]interface{}{
				"received_quantity": qty,
				"updated_at":        now,
			}); err != nil {
				return err
			}
			ret.Items[i].ReceivedQuantity = qty
		}
		return returnRepo.Update(ret.ID, map[string]interface{}{
			"status":      constants.ReturnStatusReceived,
			"received_at": now,
			"updated_at":  now,
		})
	})
	if err != nil {
		return nil, err
	}
	ret.Status = constants.ReturnStatusReceived
	ret.ReceivedAt = &now
	logger.Infow("return_received", "return_id", ret.ID, "order_id", ret.OrderID)
	return ret, nil
}

// Complete 完成退货
// 按实收数量计入台账，创建指定金额的退款，并发出 return.completed 事件
func (s *ReturnService) Complete(ctx context.Context, returnID uint, refundAmount models.Money) (*models.ReturnOrder, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ret, err := s.tryComplete(ctx, returnID, refundAmount)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publishCompleted(ctx, ret)
		logger.Infow("return_completed", "return_id", ret.ID, "order_id", ret.OrderID, "refund_amount", refundAmount.String())
		return ret, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *ReturnService) tryComplete(ctx context.Context, returnID uint, refundAmount models.Money) (*models.ReturnOrder, error) {
	ret, err := s.get(returnID)
	if err != nil {
		return nil, err
	}
	if ret.Status != constants.ReturnStatusReceived {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ret.Status, constants.ReturnStatusCompleted)
	}
	order, err := s.orderRepo.GetByID(ret.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	// 完成时再次校验实收数量仍在台账余量内
	for i := range ret.Items {
		if ret.Items[i].ReceivedQuantity == 0 {
			continue
		}
		item := order.ItemByID(ret.Items[i].OrderItemID)
		if item == nil {
			return nil, ErrOrderItemNotFound
		}
		if remaining := RemainingToReturn(item); ret.Items[i].ReceivedQuantity > remaining {
			return nil, fmt.Errorf("%w: item %d remaining %d, received %d",
				ErrInsufficientQuantity, ret.Items[i].OrderItemID, remaining, ret.Items[i].ReceivedQuantity)
		}
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		returnRepo := s.returnRepo.WithTx(tx)

		for i := range ret.Items {
			if ret.Items[i].ReceivedQuantity == 0 {
				continue
			}
			if err := orderRepo.AddItemQuantities(ret.Items[i].OrderItemID, 0, ret.Items[i].ReceivedQuantity); err != nil {
				return err
			}
		}
		if err := returnRepo.Update(ret.ID, map[string]interface{}{
			"status":        constants.ReturnStatusCompleted,
			"refund_amount": refundAmount,
			"completed_at":  now,
			"updated_at":    now,
		}); err != nil {
			return err
		}

		ok, err := orderRepo.UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"updated_at": now,
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
		return nil, err
	}
	ret.Status = constants.ReturnStatusCompleted
	ret.RefundAmount = refundAmount
	ret.CompletedAt = &now

	// 退款在台账记账之后创建；退款失败不回滚退货完成，由退款记录单独跟踪
	if refundAmount.Decimal.IsPositive() && s.refundSvc != nil {
		refund, err := s.refundSvc.Create(ctx, CreateRefundInput{
			OrderID: ret.OrderID,
			Amount:  refundAmount,
			Reason:  "return " + fmt.Sprint(ret.ID),
		})
		if err != nil {
			logger.Errorw("return_refund_failed", "return_id", ret.ID, "error", err)
		} else {
			refundID := refund.ID
			ret.RefundID = &refundID
			if err := s.returnRepo.Update(ret.ID, map[string]interface{}{"refund_id": refundID}); err != nil {
				logger.Warnw("return_refund_link_failed", "return_id", ret.ID, "error", err)
			}
		}
	}
	return ret, nil
}

// Cancel 取消退货，仅允许从 requested 进入
func (s *ReturnService) Cancel(ctx context.Context, returnID uint) (*models.ReturnOrder, error) {
	ret, err := s.get(returnID)
	if err != nil {
		return nil, err
	}
	if ret.Status != constants.ReturnStatusRequested {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ret.Status, constants.ReturnStatusCancelled)
	}
	now := time.Now()
	if err := s.returnRepo.Update(ret.ID, map[string]interface{}{
		"status":       constants.ReturnStatusCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	}); err != nil {
		return nil, err
	}
	ret.Status = constants.ReturnStatusCancelled
	ret.CancelledAt = &now
	logger.Infow("return_cancelled", "return_id", ret.ID, "order_id", ret.OrderID)
	return ret, nil
}

// Get 获取退货单
func (s *ReturnService) Get(returnID uint) (*models.ReturnOrder, error) {
	return s.get(returnID)
}

// List 退货单列表
func (s *ReturnService) List(filter repository.WorkflowListFilter) ([]models.ReturnOrder, int64, error) {
	return s.returnRepo.List(filter)
}

func (s *ReturnService) get(returnID uint) (*models.ReturnOrder, error) {
	ret, err := s.returnRepo.GetByID(returnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, ErrReturnNotFound
	}
	return ret, nil
}

func (s *ReturnService) publishCompleted(ctx context.Context, ret *models.ReturnOrder) {
	if s.bus == nil || ret == nil {
		return
	}
	lines := make([]map[string]interface{}, 0, len(ret.Items))
	for i := range ret.Items {
		lines = append(lines, map[string]interface{}{
			"order_item_id":     ret.Items[i].OrderItemID,
			"quantity":          ret.Items[i].Quantity,
			"received_quantity": ret.Items[i].ReceivedQuantity,
		})
	}
	s.bus.Publish(ctx, event.Event{
		Name:    constants.EventReturnCompleted,
		StoreID: orderStoreID(s.orderRepo, ret.OrderID),
		Payload: map[string]interface{}{
			"return_id":     ret.ID,
			"order_id":      ret.OrderID,
			"refund_amount": ret.RefundAmount.String(),
			"items":         lines,
		},
	})
}
