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

// allowedExchangeTransitions 换货状态机转移表
var allowedExchangeTransitions = map[string]map[string]bool{
	constants.ExchangeStatusCreated: {
		constants.ExchangeStatusProcessing: true,
		constants.ExchangeStatusCompleted:  true,
		constants.ExchangeStatusCancelled:  true,
	},
	constants.ExchangeStatusProcessing: {
		constants.ExchangeStatusCompleted: true,
		constants.ExchangeStatusCancelled: true,
	},
	constants.ExchangeStatusCompleted: {},
	constants.ExchangeStatusCancelled: {},
}

// ExchangeService 换货服务
// differenceAmount = 换入商品总价 - 换出商品价值；完成前差价必须结清（或差价不为正）
type ExchangeService struct {
	orderRepo    repository.OrderRepository
	exchangeRepo repository.ExchangeRepository
	productRepo  repository.ProductRepository
	refundSvc    *RefundService
	bus          *event.Bus
}

// NewExchangeService 创建换货服务
func NewExchangeService(orderRepo repository.OrderRepository, exchangeRepo repository.ExchangeRepository, productRepo repository.ProductRepository, refundSvc *RefundService, bus *event.Bus) *ExchangeService {
	return &ExchangeService{
		orderRepo:    orderRepo,
		exchangeRepo: exchangeRepo,
		productRepo:  productRepo,
		refundSvc:    refundSvc,
		bus:          bus,
	}
}

// ExchangeReturnLineInput 退回明细输入
type ExchangeReturnLineInput struct {
	OrderItemID uint
	Quantity    int
}

// ExchangeNewLineInput 换出新品明细输入
type ExchangeNewLineInput struct {
	ProductID uint
	Quantity  int
}

// CreateExchangeInput 创建换货输入
type CreateExchangeInput struct {
	OrderID     uint
	Note        string
	ReturnLines []ExchangeReturnLineInput
	NewLines    []ExchangeNewLineInput
}

// Create 创建换货单并计算差价
func (s *ExchangeService) Create(ctx context.Context, input CreateExchangeInput) (*models.Exchange, error) {
	if input.OrderID == 0 || len(input.ReturnLines) == 0 || len(input.NewLines) == 0 {
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

	returnValue := decimal.Zero
	items := make([]models.ExchangeItem, 0, len(input.ReturnLines)+len(input.NewLines))
	for _, line := range input.ReturnLines {
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
		lineValue := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
		returnValue = returnValue.Add(lineValue)
		orderItemID := line.OrderItemID
		items = append(items, models.ExchangeItem{
			Direction:   constants.ExchangeDirectionIn,
			OrderItemID: &orderItemID,
			Quantity:    line.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	newValue := decimal.Zero
	for _, line := range input.NewLines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		lineValue := product.PriceAmount.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
		newValue = newValue.Add(lineValue)
		productID := line.ProductID
		items = append(items, models.ExchangeItem{
			Direction: constants.ExchangeDirectionOut,
			ProductID: &productID,
			Quantity:  line.Quantity,
			UnitPrice: product.PriceAmount,
		})
	}

	difference := newValue.Sub(returnValue)
	paymentStatus := constants.ExchangePaymentNotRequired
	if difference.IsPositive() {
		paymentStatus = constants.ExchangePaymentAwaiting
	}

	now := time.Now()
	exchange := &models.Exchange{
		OrderID:          input.OrderID,
		Status:           constants.ExchangeStatusCreated,
		PaymentStatus:    paymentStatus,
		DifferenceAmount: models.NewMoneyFromDecimal(difference),
		Currency:         order.Currency,
		Note:             strings.TrimSpace(input.Note),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.exchangeRepo.WithTx(tx).Create(exchange, items)
	})
	if err != nil {
		return nil, err
	}
	exchange.Items = items
	logger.Infow("exchange_created",
		"order_id", input.OrderID,
		"exchange_id", exchange.ID,
		"difference", exchange.DifferenceAmount.String(),
	)
	return exchange, nil
}

// Process 标记处理中
func (s *ExchangeService) Process(ctx context.Context, exchangeID uint) (*models.Exchange, error) {
	return s.transition(exchangeID, constants.ExchangeStatusProcessing, map[string]interface{}{})
}

// MarkDifferencePaid 差价已支付
func (s *ExchangeService) MarkDifferencePaid(ctx context.Context, exchangeID uint) (*models.Exchange, error) {
	exchange, err := s.get(exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.PaymentStatus != constants.ExchangePaymentAwaiting {
		return nil, fmt.Errorf("%w: payment %s", ErrInvalidTransition, exchange.PaymentStatus)
	}
	if err := s.exchangeRepo.Update(exchange.ID, map[string]interface{}{
		"payment_status": constants.ExchangePaymentPaid,
		"updated_at":     time.Now(),
	}); err != nil {
		return nil, err
	}
	exchange.PaymentStatus = constants.ExchangePaymentPaid
	logger.Infow("exchange_difference_paid", "exchange_id", exchange.ID)
	return exchange, nil
}

// Complete 完成换货
// 差价为正时要求已支付；差价为负时向客户退差价；退回明细计入可退货台账
func (s *ExchangeService) Complete(ctx context.Context, exchangeID uint) (*models.Exchange, error) {
	for attempt := 0; attempt < 2; attempt++ {
		exchange, err := s.tryComplete(ctx, exchangeID)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, exchange)
		logger.Infow("exchange_completed", "exchange_id", exchange.ID, "order_id", exchange.OrderID)
		return exchange, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *ExchangeService) tryComplete(ctx context.Context, exchangeID uint) (*models.Exchange, error) {
	exchange, err := s.get(exchangeID)
	if err != nil {
		return nil, err
	}
	if !allowedExchangeTransitions[exchange.Status][constants.ExchangeStatusCompleted] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, exchange.Status, constants.ExchangeStatusCompleted)
	}
	if exchange.DifferenceAmount.Decimal.IsPositive() &&
		exchange.PaymentStatus != constants.ExchangePaymentPaid {
		return nil, fmt.Errorf("%w: difference %s not settled",
			ErrInvalidTransition, exchange.DifferenceAmount.String())
	}
	order, err := s.orderRepo.GetByID(exchange.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		exchangeRepo := s.exchangeRepo.WithTx(tx)

		for i := range exchange.Items {
			item := exchange.Items[i]
			if item.Direction != constants.ExchangeDirectionIn || item.OrderItemID == nil {
				continue
			}
			if err := orderRepo.AddItemQuantities(*item.OrderItemID, 0, item.Quantity); err != nil {
				return err
			}
		}
		if err := exchangeRepo.Update(exchange.ID, map[string]interface{}{
			"status":       constants.ExchangeStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
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
	exchange.Status = constants.ExchangeStatusCompleted
	exchange.CompletedAt = &now

	// 差价为负时向客户退还差额
	if exchange.DifferenceAmount.Decimal.IsNegative() && s.refundSvc != nil {
		refundAmount := models.NewMoneyFromDecimal(exchange.DifferenceAmount.Decimal.Neg())
		refund, err := s.refundSvc.Create(ctx, CreateRefundInput{
			OrderID: exchange.OrderID,
			Amount:  refundAmount,
			Reason:  "exchange " + fmt.Sprint(exchange.ID),
		})
		if err != nil {
			logger.Errorw("exchange_refund_failed", "exchange_id", exchange.ID, "error", err)
		} else {
			refundID := refund.ID
			exchange.RefundID = &refundID
			if err := s.exchangeRepo.Update(exchange.ID, map[string]interface{}{
				"refund_id":      refundID,
				"payment_status": constants.ExchangePaymentRefunded,
			}); err != nil {
				logger.Warnw("exchange_refund_link_failed", "exchange_id", exchange.ID, "error", err)
			} else {
				exchange.PaymentStatus = constants.ExchangePaymentRefunded
			}
		}
	}
	return exchange, nil
}

// Cancel 取消换货
func (s *ExchangeService) Cancel(ctx context.Context, exchangeID uint) (*models.Exchange, error) {
	now := time.Now()
	return s.transition(exchangeID, constants.ExchangeStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
	})
}

// Get 获取换货单
func (s *ExchangeService) Get(exchangeID uint) (*models.Exchange, error) {
	return s.get(exchangeID)
}

// List 换货单列表
func (s *ExchangeService) List(filter repository.WorkflowListFilter) ([]models.Exchange, int64, error) {
	return s.exchangeRepo.List(filter)
}

func (s *ExchangeService) get(exchangeID uint) (*models.Exchange, error) {
	exchange, err := s.exchangeRepo.GetByID(exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange == nil {
		return nil, ErrExchangeNotFound
	}
	return exchange, nil
}

func (s *ExchangeService) transition(exchangeID uint, next string, updates map[string]interface{}) (*models.Exchange, error) {
	exchange, err := s.get(exchangeID)
	if err != nil {
		return nil, err
	}
	if !allowedExchangeTransitions[exchange.Status][next] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, exchange.Status, next)
	}
	updates["status"] = next
	updates["updated_at"] = time.Now()
	if err := s.exchangeRepo.Update(exchange.ID, updates); err != nil {
		return nil, err
	}
	exchange.Status = next
	logger.Infow("exchange_status_updated", "exchange_id", exchange.ID, "status", next)
	return exchange, nil
}

func (s *ExchangeService) publish(ctx context.Context, exchange *models.Exchange) {
	if s.bus == nil || exchange == nil {
		return
	}
	s.bus.Publish(ctx, event.Event{
		Name:    constants.EventOrderUpdated,
		StoreID: orderStoreID(s.orderRepo, exchange.OrderID),
		Payload: map[string]interface{}{
			"order_id":          exchange.OrderID,
			"exchange_id":       exchange.ID,
			"status":            exchange.Status,
			"difference_amount": exchange.DifferenceAmount.String(),
			"source":            "exchange",
		},
	})
}
