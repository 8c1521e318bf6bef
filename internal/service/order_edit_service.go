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

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allowedOrderEditTransitions 改单状态机转移表
var allowedOrderEditTransitions = map[string]map[string]bool{
	constants.OrderEditStatusCreated: {
		constants.OrderEditStatusRequested: true,
	},
	constants.OrderEditStatusRequested: {
		constants.OrderEditStatusConfirmed: true,
		constants.OrderEditStatusDeclined:  true,
	},
	constants.OrderEditStatusConfirmed: {},
	constants.OrderEditStatusDeclined:  {},
}

// OrderEditService 改单服务
// 变更先以草稿记录，请求确认后才可应用；确认时原子应用全部变更且仅应用一次
type OrderEditService struct {
	orderRepo   repository.OrderRepository
	editRepo    repository.OrderEditRepository
	productRepo repository.ProductRepository
	bus         *event.Bus
}

// NewOrderEditService 创建改单服务
func NewOrderEditService(orderRepo repository.OrderRepository, editRepo repository.OrderEditRepository, productRepo repository.ProductRepository, bus *event.Bus) *OrderEditService {
	return &OrderEditService{
		orderRepo:   orderRepo,
		editRepo:    editRepo,
		productRepo: productRepo,
		bus:         bus,
	}
}

// OrderEditChangeInput 变更明细输入
type OrderEditChangeInput struct {
	Type        string
	OrderItemID uint // remove/update_quantity 必填
	ProductID   uint // add 必填
	Quantity    int
}

// CreateOrderEditInput 创建改单输入
type CreateOrderEditInput struct {
	OrderID   uint
	Note      string
	CreatedBy *uint
	Changes   []OrderEditChangeInput
}

// Create 创建改单草稿并计算差价预览
func (s *OrderEditService) Create(ctx context.Context, input CreateOrderEditInput) (*models.OrderEdit, error) {
	if input.OrderID == 0 || len(input.Changes) == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !orderEditable(order) {
		return nil, fmt.Errorf("%w: order status %s", ErrOrderNotEditable, order.Status)
	}

	changes, difference, err := s.buildChanges(order, input.Changes)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	edit := &models.OrderEdit{
		OrderID:          input.OrderID,
		Status:           constants.OrderEditStatusCreated,
		Note:             strings.TrimSpace(input.Note),
		DifferenceAmount: models.NewMoneyFromDecimal(difference),
		CreatedBy:        input.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.editRepo.WithTx(tx).Create(edit, changes)
	})
	if err != nil {
		return nil, err
	}
	edit.Changes = changes
	logger.Infow("order_edit_created",
		"order_id", input.OrderID,
		"order_edit_id", edit.ID,
		"change_count", len(changes),
	)
	return edit, nil
}

// RequestConfirmation 将草稿提交确认
func (s *OrderEditService) RequestConfirmation(ctx context.Context, editID uint) (*models.OrderEdit, error) {
	edit, err := s.get(editID)
	if err != nil {
		return nil, err
	}
	if !allowedOrderEditTransitions[edit.Status][constants.OrderEditStatusRequested] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, edit.Status, constants.OrderEditStatusRequested)
	}
	now := time.Now()
	if err := s.editRepo.Update(edit.ID, map[string]interface{}{
		"status":       constants.OrderEditStatusRequested,
		"requested_at": now,
		"updated_at":   now,
	}); err != nil {
		return nil, err
	}
	edit.Status = constants.OrderEditStatusRequested
	edit.RequestedAt = &now
	logger.Infow("order_edit_requested", "order_edit_id", edit.ID)
	return edit, nil
}

// Confirm 确认改单并原子应用全部变更
// 再次确认已确认/已拒绝的改单返回非法转移错误，不会重复应用
func (s *OrderEditService) Confirm(ctx context.Context, editID uint) (*models.OrderEdit, error) {
	for attempt := 0; attempt < 2; attempt++ {
		edit, err := s.tryConfirm(ctx, editID)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, edit)
		logger.Infow("order_edit_confirmed",
			"order_edit_id", edit.ID,
			"order_id", edit.OrderID,
			"difference", edit.DifferenceAmount.String(),
		)
		return edit, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *OrderEditService) tryConfirm(ctx context.Context, editID uint) (*models.OrderEdit, error) {
	edit, err := s.get(editID)
	if err != nil {
		return nil, err
	}
	if !allowedOrderEditTransitions[edit.Status][constants.OrderEditStatusConfirmed] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, edit.Status, constants.OrderEditStatusConfirmed)
	}
	order, err := s.orderRepo.GetByID(edit.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !orderEditable(order) {
		return nil, fmt.Errorf("%w: order status %s", ErrOrderNotEditable, order.Status)
	}

	// 以确认时刻的订单快照重新校验变更
	oldTotal := order.TotalAmount.Decimal
	newSubtotal := order.SubtotalAmount.Decimal
	now := time.Now()

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		editRepo := s.editRepo.WithTx(tx)

		for i := range edit.Changes {
			change := edit.Changes[i]
			switch change.Type {
			case constants.OrderEditChangeAdd:
				if change.ProductID == nil || change.Quantity <= 0 {
					return ErrInvalidInput
				}
				product, err := s.productRepo.GetByID(*change.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return ErrProductNotFound
				}
				lineTotal := change.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(change.Quantity)))
				item := &models.OrderItem{
					OrderID:    order.ID,
					ProductID:  *change.ProductID,
					TitleJSON:  product.TitleJSON,
					UnitPrice:  change.UnitPrice,
					Quantity:   change.Quantity,
					TotalPrice: models.NewMoneyFromDecimal(lineTotal),
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := orderRepo.CreateItem(item); err != nil {
					return err
				}
				newSubtotal = newSubtotal.Add(lineTotal)
			case constants.OrderEditChangeRemove:
				if change.OrderItemID == nil {
					return ErrInvalidInput
				}
				item := order.ItemByID(*change.OrderItemID)
				if item == nil {
					return ErrOrderItemNotFound
				}
				if item.FulfilledQuantity > 0 || item.ReturnedQuantity > 0 {
					return fmt.Errorf("%w: item %d already has fulfillment activity",
						ErrOrderNotEditable, item.ID)
				}
				if err := orderRepo.DeleteItem(item.ID); err != nil {
					return err
				}
				newSubtotal = newSubtotal.Sub(item.TotalPrice.Decimal)
			case constants.OrderEditChangeUpdateQuantity:
				if change.OrderItemID == nil || change.Quantity <= 0 {
					return ErrInvalidInput
				}
				item := order.ItemByID(*change.OrderItemID)
				if item == nil {
					return ErrOrderItemNotFound
				}
				if change.Quantity < item.FulfilledQuantity {
					return fmt.Errorf("%w: item %d fulfilled %d exceeds target quantity %d",
						ErrOrderNotEditable, item.ID, item.FulfilledQuantity, change.Quantity)
				}
				newLineTotal := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(change.Quantity)))
				if err := orderRepo.UpdateItem(item.ID, map[string]interface{}{
					"quantity":    change.Quantity,
					"total_price": models.NewMoneyFromDecimal(newLineTotal),
					"updated_at":  now,
				}); err != nil {
					return err
				}
				newSubtotal = newSubtotal.Sub(item.TotalPrice.Decimal).Add(newLineTotal)
			default:
				return fmt.Errorf("%w: unknown change type %s", ErrInvalidInput, change.Type)
			}
		}

		newTotal := newSubtotal.
			Sub(order.DiscountAmount.Decimal).
			Add(order.ShippingAmount.Decimal).
			Add(order.TaxAmount.Decimal)
		difference := newTotal.Sub(oldTotal)

		if err := editRepo.Update(edit.ID, map[string]interface{}{
			"status":            constants.OrderEditStatusConfirmed,
			"difference_amount": models.NewMoneyFromDecimal(difference),
			"confirmed_at":      now,
			"updated_at":        now,
		}); err != nil {
			return err
		}
		edit.DifferenceAmount = models.NewMoneyFromDecimal(difference)

		ok, err := orderRepo.UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"subtotal_amount": models.NewMoneyFromDecimal(newSubtotal),
			"total_amount":    models.NewMoneyFromDecimal(newTotal),
			"updated_at":      now,
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
	edit.Status = constants.OrderEditStatusConfirmed
	edit.ConfirmedAt = &now
	return edit, nil
}

// Decline 拒绝改单
func (s *OrderEditService) Decline(ctx context.Context, editID uint, note string) (*models.OrderEdit, error) {
	edit, err := s.get(editID)
	if err != nil {
		return nil, err
	}
	if !allowedOrderEditTransitions[edit.Status][constants.OrderEditStatusDeclined] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, edit.Status, constants.OrderEditStatusDeclined)
	}
	now := time.Now()
	if err := s.editRepo.Update(edit.ID, map[string]interface{}{
		"status":       constants.OrderEditStatusDeclined,
		"decline_note": strings.TrimSpace(note),
		"declined_at":  now,
		"updated_at":   now,
	}); err != nil {
		return nil, err
	}
	edit.Status = constants.OrderEditStatusDeclined
	edit.DeclineNote = strings.TrimSpace(note)
	edit.DeclinedAt = &now
	logger.Infow("order_edit_declined", "order_edit_id", edit.ID)
	return edit, nil
}

// Get 获取改单记录
func (s *OrderEditService) Get(editID uint) (*models.OrderEdit, error) {
	return s.get(editID)
}

// List 改单记录列表
func (s *OrderEditService) List(filter repository.WorkflowListFilter) ([]models.OrderEdit, int64, error) {
	return s.editRepo.List(filter)
}

func (s *OrderEditService) get(editID uint) (*models.OrderEdit, error) {
	edit, err := s.editRepo.GetByID(editID)
	if err != nil {
		return nil, err
	}
	if edit == nil {
		return nil, ErrOrderEditNotFound
	}
	return edit, nil
}

// buildChanges 校验变更输入并预计算差价
func (s *OrderEditService) buildChanges(order *models.Order, inputs []OrderEditChangeInput) ([]models.OrderEditChange, decimal.Decimal, error) {
	changes := make([]models.OrderEditChange, 0, len(inputs))
	difference := decimal.Zero
	for _, in := range inputs {
		switch in.Type {
		case constants.OrderEditChangeAdd:
			if in.ProductID == 0 || in.Quantity <= 0 {
				return nil, decimal.Zero, ErrInvalidInput
			}
			product, err := s.productRepo.GetByID(in.ProductID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if product == nil {
				return nil, decimal.Zero, ErrProductNotFound
			}
			productID := in.ProductID
			changes = append(changes, models.OrderEditChange{
				Type:      constants.OrderEditChangeAdd,
				ProductID: &productID,
				Quantity:  in.Quantity,
				UnitPrice: product.PriceAmount,
			})
			difference = difference.Add(product.PriceAmount.Decimal.Mul(decimal.NewFromInt(int64(in.Quantity))))
		case constants.OrderEditChangeRemove:
			item := order.ItemByID(in.OrderItemID)
			if item == nil {
				return nil, decimal.Zero, ErrOrderItemNotFound
			}
			if item.FulfilledQuantity > 0 || item.ReturnedQuantity > 0 {
				return nil, decimal.Zero, fmt.Errorf("%w: item %d already has fulfillment activity",
					ErrOrderNotEditable, item.ID)
			}
			orderItemID := in.OrderItemID
			changes = append(changes, models.OrderEditChange{
				Type:        constants.OrderEditChangeRemove,
				OrderItemID: &orderItemID,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
			difference = difference.Sub(item.TotalPrice.Decimal)
		case constants.OrderEditChangeUpdateQuantity:
			if in.Quantity <= 0 {
				return nil, decimal.Zero, ErrInvalidInput
			}
			item := order.ItemByID(in.OrderItemID)
			if item == nil {
				return nil, decimal.Zero, ErrOrderItemNotFound
			}
			if in.Quantity < item.FulfilledQuantity {
				return nil, decimal.Zero, fmt.Errorf("%w: item %d fulfilled %d exceeds target quantity %d",
					ErrOrderNotEditable, item.ID, item.FulfilledQuantity, in.Quantity)
			}
			orderItemID := in.OrderItemID
			changes = append(changes, models.OrderEditChange{
				Type:        constants.OrderEditChangeUpdateQuantity,
				OrderItemID: &orderItemID,
				Quantity:    in.Quantity,
				UnitPrice:   item.UnitPrice,
			})
			oldLine := item.TotalPrice.Decimal
			newLine := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(in.Quantity)))
			difference = difference.Add(newLine.Sub(oldLine))
		default:
			return nil, decimal.Zero, fmt.Errorf("%w: unknown change type %s", ErrInvalidInput, in.Type)
		}
	}
	return changes, difference, nil
}

// orderEditable 终态订单不可改
func orderEditable(order *models.Order) bool {
	return !IsTerminalOrderStatus(order.Status)
}

func (s *OrderEditService) publish(ctx context.Context, edit *models.OrderEdit) {
	if s.bus == nil || edit == nil {
		return
	}
	s.bus.Publish(ctx, event.Event{
		Name:    constants.EventOrderUpdated,
		StoreID: orderStoreID(s.orderRepo, edit.OrderID),
		Payload: map[string]interface{}{
			"order_id":          edit.OrderID,
			"order_edit_id":     edit.ID,
			"status":            edit.Status,
			"difference_amount": edit.DifferenceAmount.String(),
			"source":            "order_edit",
		},
	})
}
