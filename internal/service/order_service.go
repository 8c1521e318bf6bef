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
	"github.com/vendora-next/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errStaleOrder 版本校验失败，调用方内部重试一次后升级为 ErrPersistenceConflict
var errStaleOrder = errors.New("stale order version")

// allowedOrderTransitions 订单状态机转移表
// cancelled 可以从任意非终态进入，在 canTransitionTo 单独处理
var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPending:    {constants.OrderStatusProcessing: true},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped: true},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered: true},
	constants.OrderStatusDelivered:  {constants.OrderStatusCompleted: true},
	constants.OrderStatusCompleted:  {},
	constants.OrderStatusCancelled:  {},
}

// IsTerminalOrderStatus 判断订单状态是否为终态
func IsTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusCompleted || status == constants.OrderStatusCancelled
}

// canTransitionTo 判断订单状态转移是否合法
func canTransitionTo(current, next string) bool {
	if next == constants.OrderStatusCancelled {
		return !IsTerminalOrderStatus(current)
	}
	allowed, ok := allowedOrderTransitions[current]
	if !ok {
		return false
	}
	return allowed[next]
}

// OrderService 订单服务
type OrderService struct {
	orderRepo       repository.OrderRepository
	fulfillmentRepo repository.FulfillmentRepository
	taxCalc         tax.Calculator
	bus             *event.Bus
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, fulfillmentRepo repository.FulfillmentRepository, taxCalc tax.Calculator, bus *event.Bus) *OrderService {
	if taxCalc == nil {
		taxCalc = tax.Zero()
	}
	return &OrderService{
		orderRepo:       orderRepo,
		fulfillmentRepo: fulfillmentRepo,
		taxCalc:         taxCalc,
		bus:             bus,
	}
}

// CreateOrderItemInput 创建订单的订单项输入
type CreateOrderItemInput struct {
	ProductID uint
	Title     models.JSON
	UnitPrice models.Money
	Quantity  int
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	StoreID        uint
	CustomerID     uint
	Currency       string
	ShippingAddr   tax.Address
	ShippingAmount models.Money
	DiscountAmount models.Money
	TaxAmount      *models.Money // 为空时按计税器计算
	Items          []CreateOrderItemInput
}

// Create 创建订单并发出 order.created 事件
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrInvalidInput
	}
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	taxLines := make([]tax.Line, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
		lineTotal := in.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(in.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:  in.ProductID,
			TitleJSON:  in.Title,
			UnitPrice:  in.UnitPrice,
			Quantity:   in.Quantity,
			TotalPrice: models.NewMoneyFromDecimal(lineTotal),
		})
		taxLines = append(taxLines, tax.Line{
			ProductID: in.ProductID,
			UnitPrice: in.UnitPrice.Decimal,
			Quantity:  in.Quantity,
		})
	}
	taxAmount := decimal.Zero
	if input.TaxAmount != nil {
		taxAmount = input.TaxAmount.Decimal
	} else {
		taxAmount = s.taxCalc(input.ShippingAddr, taxLines)
	}
	total := subtotal.
		Sub(input.DiscountAmount.Decimal).
		Add(input.ShippingAmount.Decimal).
		Add(taxAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	storeID := input.StoreID
	if storeID == 0 {
		storeID = 1
	}
	order := &models.Order{
		OrderNo:           generateOrderNo(),
		StoreID:           storeID,
		CustomerID:        input.CustomerID,
		Currency:          currency,
		SubtotalAmount:    models.NewMoneyFromDecimal(subtotal),
		DiscountAmount:    input.DiscountAmount,
		ShippingAmount:    input.ShippingAmount,
		TaxAmount:         models.NewMoneyFromDecimal(taxAmount),
		TotalAmount:       models.NewMoneyFromDecimal(total),
		Status:            constants.OrderStatusPending,
		PaymentStatus:     constants.PaymentStatusPending,
		FulfillmentStatus: constants.FulfillmentStateUnfulfilled,
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, items)
	})
	if err != nil {
		return nil, err
	}
	order.Items = items

	s.publish(ctx, constants.EventOrderCreated, order)
	logger.Infow("order_created", "order_id", order.ID, "order_no", order.OrderNo, "total", order.TotalAmount.String())
	return order, nil
}

// Get 获取订单（含订单项）
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetDetail 获取订单完整详情（含售后关联）
func (s *OrderService) GetDetail(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetDetail(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 管理端订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// UpdateStatus 沿状态机推进订单状态
// 版本冲突时内部重试一次，仍冲突则返回 ErrPersistenceConflict
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, next string) (*models.Order, error) {
	if next == constants.OrderStatusCancelled {
		return s.Cancel(ctx, orderID)
	}
	for attempt := 0; attempt < 2; attempt++ {
		order, err := s.tryUpdateStatus(orderID, next)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, constants.EventOrderUpdated, order)
		logger.Infow("order_status_updated", "order_id", order.ID, "status", next)
		return order, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *OrderService) tryUpdateStatus(orderID uint, next string) (*models.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if !canTransitionTo(order.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.WithTx(tx).UpdateGuarded(order.ID, order.Version, updates)
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
	order.Status = next
	order.Version++
	return order, nil
}

// Cancel 取消订单
// 从任意非终态进入，且只能进入一次；未签收的交付记录级联取消
func (s *OrderService) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		order, err := s.tryCancel(orderID)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, constants.EventOrderCancelled, order)
		logger.Infow("order_cancelled", "order_id", order.ID, "order_no", order.OrderNo)
		return order, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *OrderService) tryCancel(orderID uint) (*models.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if IsTerminalOrderStatus(order.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, constants.OrderStatusCancelled)
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		fulfillmentRepo := s.fulfillmentRepo.WithTx(tx)

		ok, err := orderRepo.UpdateGuarded(order.ID, order.Version, map[string]interface{}{
			"status":       constants.OrderStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errStaleOrder
		}

		active, err := fulfillmentRepo.ListActiveByOrder(order.ID)
		if err != nil {
			return err
		}
		for i := range active {
			if active[i].Status == constants.FulfillmentStatusDelivered {
				continue
			}
			if err := fulfillmentRepo.Update(active[i].ID, map[string]interface{}{
				"status":       constants.FulfillmentStatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			}); err != nil {
				return err
			}
			for j := range active[i].Items {
				item := active[i].Items[j]
				if err := orderRepo.AddItemQuantities(item.OrderItemID, -item.Quantity, 0); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now
	order.Version++
	return order, nil
}

// MarkPaid 标记订单已支付并发出 payment.completed 事件
func (s *OrderService) MarkPaid(ctx context.Context, orderID uint) (*models.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		order, err := s.tryMarkPaid(orderID)
		if errors.Is(err, errStaleOrder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, constants.EventPaymentCompleted, order)
		logger.Infow("order_paid", "order_id", order.ID, "order_no", order.OrderNo)
		return order, nil
	}
	return nil, ErrPersistenceConflict
}

func (s *OrderService) tryMarkPaid(orderID uint) (*models.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == constants.PaymentStatusPaid {
		return order, nil
	}
	if IsTerminalOrderStatus(order.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, order.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"payment_status": constants.PaymentStatusPaid,
		"paid_at":        now,
		"updated_at":     now,
	}
	// 待处理订单在支付完成后进入 processing
	if order.Status == constants.OrderStatusPending {
		updates["status"] = constants.OrderStatusProcessing
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.WithTx(tx).UpdateGuarded(order.ID, order.Version, updates)
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
	order.PaymentStatus = constants.PaymentStatusPaid
	order.PaidAt = &now
	if order.Status == constants.OrderStatusPending {
		order.Status = constants.OrderStatusProcessing
	}
	order.Version++
	return order, nil
}

// publish 发布订单生命周期事件
func (s *OrderService) publish(ctx context.Context, name string, order *models.Order) {
	if s.bus == nil || order == nil {
		return
	}
	s.bus.Publish(ctx, event.Event{
		Name:    name,
		StoreID: order.StoreID,
		Payload: map[string]interface{}{
			"order_id":       order.ID,
			"order_no":       order.OrderNo,
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"total_amount":   order.TotalAmount.String(),
			"currency":       order.Currency,
		},
	})
}

// orderStoreID 取订单所属店铺，事件按店铺隔离扇出时使用
func orderStoreID(repo repository.OrderRepository, orderID uint) uint {
	order, err := repo.GetByID(orderID)
	if err != nil || order == nil {
		return 0
	}
	return order.StoreID
}

// generateOrderNo 生成订单号
func generateOrderNo() string {
	return fmt.Sprintf("VN%s%s",
		time.Now().Format("20060102150405"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
