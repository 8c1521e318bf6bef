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

// allowedFulfillmentTransitions 交付记录状态机转移表
var allowedFulfillmentTransitions = map[string]map[string]bool{
	constants.FulfillmentStatusCreated: {
		constants.FulfillmentStatusShipped:   true,
		constants.FulfillmentStatusCancelled: true,
	},
	constants.FulfillmentStatusShipped: {
		constants.FulfillmentStatusDelivered: true,
	},
	constants.FulfillmentStatusDelivered: {},
	constants.FulfillmentStatusCancelled: {},
}

// FulfillmentService 交付服务
type FulfillmentService struct {
	orderRepo       repository.OrderRepository
	fulfillmentRepo repository.FulfillmentRepository
	bus             *event.Bus
}

// NewFulfillmentService 创建交付服务
func NewFulfillmentService(orderRepo repository.OrderRepository, fulfillmentRepo repository.FulfillmentRepository, bus *event.Bus) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:       orderRepo,
		fulfillmentRepo: fulfillmentRepo,
		bus:             bus,
	}
}

// FulfillmentLineInput 交付明细输入
type FulfillmentLineInput struct {
	OrderItemID uint
	Quantity    int
}

// CreateFulfillmentInput 创建交付输入
type CreateFulfillmentInput struct {
	OrderID    uint
	AdminID    uint
	Carrier    string
	TrackingNo string
	Lines      []FulfillmentLineInput
}

// Create 创建交付记录
// 所有明细整体校验，任何一行超出剩余可交付数量则全部拒绝
func (s *FulfillmentService) Create(ctx context.Context, input CreateFulfillmentInput) (*models.Fulfillment, error) {
	if input.OrderID == 0 || len(input.Lines) == 0 {
		return nil, ErrInvalidInput
	}
	for attempt := 0; attempt < 2; attempt++ {
		fulfillment, err := s.tryCreate(input)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, constants.EventFulfillmentCreated, fulfillment)
		logger.Infow("fulfillment_created", "order_id", input.OrderID, "fulfillment_id", fulfillment.ID)
		return fulfillment, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *FulfillmentService) tryCreate(input CreateFulfillmentInput) (*models.Fulfillment, error) {
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if IsTerminalOrderStatus(order.Status) {
		return nil, fmt.Errorf("%w: order %s", ErrInvalidTransition, order.Status)
	}

	// 逐行校验剩余可交付数量
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
		item := order.ItemByID(line.OrderItemID)
		if item == nil {
			return nil, ErrOrderItemNotFound
		}
		if remaining := RemainingToFulfill(item); line.Quantity > remaining {
			return nil, fmt.Errorf("%w: item %d remaining %d, requested %d",
				ErrInsufficientQuantity, line.OrderItemID, remaining, line.Quantity)
		}
	}

	now := time.Now()
	fulfillment := &models.Fulfillment{
		OrderID:    input.OrderID,
		Status:     constants.FulfillmentStatusCreated,
		Carrier:    strings.TrimSpace(input.Carrier),
		TrackingNo: strings.TrimSpace(input.TrackingNo),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.AdminID > 0 {
		fulfillment.CreatedBy = &input.AdminID
	}
	items := make([]models.FulfillmentItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.FulfillmentItem{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		fulfillmentRepo := s.fulfillmentRepo.WithTx(tx)

		if err := fulfillmentRepo.Create(fulfillment, items); err != nil {
			return err
		}
		for _, line := range input.Lines {
			if err := orderRepo.AddItemQuantities(line.OrderItemID, line.Quantity, 0); err != nil {
				return err
			}
			item := order.ItemByID(line.OrderItemID)
			item.FulfilledQuantity += line.Quantity
		}

		// 版本守卫：订单在读取后被其他写入方修改则整体回滚
		ok, err := orderRepo.UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"fulfillment_status": DeriveFulfillmentState(order.Items),
			"updated_at":         now,
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
	fulfillment.Items = items
	return fulfillment, nil
}

// Ship 标记发货
func (s *FulfillmentService) Ship(ctx context.Context, fulfillmentID uint, carrier, trackingNo string) (*models.Fulfillment, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"shipped_at": now,
		"updated_at": now,
	}
	if strings.TrimSpace(carrier) != "" {
		updates["carrier"] = strings.TrimSpace(carrier)
	}
	if strings.TrimSpace(trackingNo) != "" {
		updates["tracking_no"] = strings.TrimSpace(trackingNo)
	}
	return s.transition(ctx, fulfillmentID, constants.FulfillmentStatusShipped, updates)
}

// Deliver 标记签收
func (s *FulfillmentService) Deliver(ctx context.Context, fulfillmentID uint) (*models.Fulfillment, error) {
	now := time.Now()
	return s.transition(ctx, fulfillmentID, constants.FulfillmentStatusDelivered, map[string]interface{}{
		"delivered_at": now,
		"updated_at":   now,
	})
}

// Cancel 取消交付并释放已占用的交付数量
func (s *FulfillmentService) Cancel(ctx context.Context, fulfillmentID uint) (*models.Fulfillment, error) {
	for attempt := 0; attempt < 2; attempt++ {
		fulfillment, err := s.tryCancel(fulfillmentID)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.Infow("fulfillment_cancelled", "fulfillment_id", fulfillmentID, "order_id", fulfillment.OrderID)
		return fulfillment, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *FulfillmentService) tryCancel(fulfillmentID uint) (*models.Fulfillment, error) {
	fulfillment, err := s.fulfillmentRepo.GetByID(fulfillmentID)
	if err != nil {
		return nil, err
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}
	if !allowedFulfillmentTransitions[fulfillment.Status][constants.FulfillmentStatusCancelled] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fulfillment.Status, constants.FulfillmentStatusCancelled)
	}
	order, err := s.orderRepo.GetByID(fulfillment.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		fulfillmentRepo := s.fulfillmentRepo.WithTx(tx)

		if err := fulfillmentRepo.Update(fulfillment.ID, map[string]interface{}{
			"status":       constants.FulfillmentStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		}); err != nil {
			return err
		}
		for i := range fulfillment.Items {
			line := fulfillment.Items[i]
			if err := orderRepo.AddItemQuantities(line.OrderItemID, -line.Quantity, 0); err != nil {
				return err
			}
			if item := order.ItemByID(line.OrderItemID); item != nil {
				item.FulfilledQuantity -= line.Quantity
			}
		}

		ok, err := orderRepo.UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"fulfillment_status": DeriveFulfillmentState(order.Items),
			"updated_at":         now,
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
	fulfillment.Status = constants.FulfillmentStatusCancelled
	fulfillment.CancelledAt = &now
	return fulfillment, nil
}

// Get 获取交付记录
func (s *FulfillmentService) Get(fulfillmentID uint) (*models.Fulfillment, error) {
	fulfillment, err := s.fulfillmentRepo.GetByID(fulfillmentID)
	if err != nil {
		return nil, err
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}
	return fulfillment, nil
}

// List 交付记录列表
func (s *FulfillmentService) List(filter repository.FulfillmentListFilter) ([]models.Fulfillment, int64, error) {
	return s.fulfillmentRepo.List(filter)
}

func (s *FulfillmentService) transition(ctx context.Context, fulfillmentID uint, next string, updates map[string]interface{}) (*models.Fulfillment, error) {
	fulfillment, err := s.fulfillmentRepo.GetByID(fulfillmentID)
	if err != nil {
		return nil, err
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}
	if !allowedFulfillmentTransitions[fulfillment.Status][next] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fulfillment.Status, next)
	}
	updates["status"] = next
	// 条件更新保证并发转移只有一方命中
	ok, err := s.fulfillmentRepo.UpdateFromStatus(fulfillment.ID, fulfillment.Status, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fulfillment.Status, next)
	}
	fulfillment.Status = next
	logger.Infow("fulfillment_status_updated", "fulfillment_id", fulfillmentID, "status", next)
	return fulfillment, nil
}

func (s *FulfillmentService) publish(ctx context.Context, name string, fulfillment *models.Fulfillment) {
	if s.bus == nil || fulfillment == nil {
		return
	}
	lines := make([]map[string]interface{}, 0, len(fulfillment.Items))
	for i := range fulfillment.Items {
		lines = append(lines, map[string]interface{}{
			"order_item_id": fulfillment.Items[i].OrderItemID,
			"quantity":      fulfillment.Items[i].Quantity,
		})
	}
	s.bus.Publish(ctx, event.Event{
		Name:    name,
		StoreID: orderStoreID(s.orderRepo, fulfillment.OrderID),
		Payload: map[string]interface{}{
			"fulfillment_id": fulfillment.ID,
			"order_id":       fulfillment.OrderID,
			"status":         fulfillment.Status,
			"items":          lines,
		},
	})
}
