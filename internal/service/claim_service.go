package service

import (
	"context"
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

// allowedClaimTransitions 索赔状态机转移表
var allowedClaimTransitions = map[string]map[string]bool{
	constants.ClaimStatusCreated: {
		constants.ClaimStatusProcessing: true,
		constants.ClaimStatusCompleted:  true,
		constants.ClaimStatusCancelled:  true,
	},
	constants.ClaimStatusProcessing: {
		constants.ClaimStatusCompleted: true,
		constants.ClaimStatusCancelled: true,
	},
	constants.ClaimStatusCompleted: {},
	constants.ClaimStatusCancelled: {},
}

// ClaimService 售后索赔服务
// refund 类型在完成时扣减可退款余额并创建退款；replace 类型不动台账
type ClaimService struct {
	orderRepo repository.OrderRepository
	claimRepo repository.ClaimRepository
	refundSvc *RefundService
	bus       *event.Bus
}

// NewClaimService 创建索赔服务
func NewClaimService(orderRepo repository.OrderRepository, claimRepo repository.ClaimRepository, refundSvc *RefundService, bus *event.Bus) *ClaimService {
	return &ClaimService{
		orderRepo: orderRepo,
		claimRepo: claimRepo,
		refundSvc: refundSvc,
		bus:       bus,
	}
}

// ClaimLineInput 索赔明细输入
type ClaimLineInput struct {
	OrderItemID uint
	Quantity    int
}

// CreateClaimInput 创建索赔输入
type CreateClaimInput struct {
	OrderID uint
	Type    string
	Reason  string
	Note    string
	Lines   []ClaimLineInput
}

// Create 创建索赔
func (s *ClaimService) Create(ctx context.Context, input CreateClaimInput) (*models.Claim, error) {
	if input.OrderID == 0 || len(input.Lines) == 0 {
		return nil, ErrInvalidInput
	}
	if input.Type != constants.ClaimTypeRefund && input.Type != constants.ClaimTypeReplace {
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
		if order.ItemByID(line.OrderItemID) == nil {
			return nil, ErrOrderItemNotFound
		}
	}

	now := time.Now()
	claim := &models.Claim{
		OrderID:   input.OrderID,
		Type:      input.Type,
		Status:    constants.ClaimStatusCreated,
		Reason:    strings.TrimSpace(input.Reason),
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	items := make([]models.ClaimItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.ClaimItem{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.claimRepo.WithTx(tx).Create(claim, items)
	})
	if err != nil {
		return nil, err
	}
	claim.Items = items
	logger.Infow("claim_created", "order_id", input.OrderID, "claim_id", claim.ID, "type", claim.Type)
	return claim, nil
}

// Process 标记处理中
func (s *ClaimService) Process(ctx context.Context, claimID uint) (*models.Claim, error) {
	return s.transition(claimID, constants.ClaimStatusProcessing, map[string]interface{}{})
}

// Complete 完成索赔
// refund 类型创建指定金额的退款并关联到索赔记录
func (s *ClaimService) Complete(ctx context.Context, claimID uint, refundAmount models.Money) (*models.Claim, error) {
	claim, err := s.get(claimID)
	if err != nil {
		return nil, err
	}
	if !allowedClaimTransitions[claim.Status][constants.ClaimStatusCompleted] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, claim.Status, constants.ClaimStatusCompleted)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       constants.ClaimStatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	}

	if claim.Type == constants.ClaimTypeRefund {
		if !refundAmount.Decimal.IsPositive() {
			return nil, ErrInvalidInput
		}
		refund, err := s.refundSvc.Create(ctx, CreateRefundInput{
			OrderID: claim.OrderID,
			Amount:  refundAmount,
			Reason:  "claim " + fmt.Sprint(claim.ID),
		})
		if err != nil {
			return nil, err
		}
		updates["refund_amount"] = refundAmount
		updates["refund_id"] = refund.ID
		refundID := refund.ID
		claim.RefundID = &refundID
		claim.RefundAmount = refundAmount
	}

	if err := s.claimRepo.Update(claim.ID, updates); err != nil {
		return nil, err
	}
	claim.Status = constants.ClaimStatusCompleted
	claim.CompletedAt = &now
	logger.Infow("claim_completed", "claim_id", claim.ID, "order_id", claim.OrderID, "type", claim.Type)
	s.publish(ctx, claim)
	return claim, nil
}

// Cancel 取消索赔
func (s *ClaimService) Cancel(ctx context.Context, claimID uint) (*models.Claim, error) {
	now := time.Now()
	return s.transition(claimID, constants.ClaimStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
	})
}

// Get 获取索赔记录
func (s *ClaimService) Get(claimID uint) (*models.Claim, error) {
	return s.get(claimID)
}

// List 索赔记录列表
func (s *ClaimService) List(filter repository.WorkflowListFilter) ([]models.Claim, int64, error) {
	return s.claimRepo.List(filter)
}

func (s *ClaimService) get(claimID uint) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

func (s *ClaimService) transition(claimID uint, next string, updates map[string]interface{}) (*models.Claim, error) {
	claim, err := s.get(claimID)
	if err != nil {
		return nil, err
	}
	if !allowedClaimTransitions[claim.Status][next] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, claim.Status, next)
	}
	updates["status"] = next
	updates["updated_at"] = time.Now()
	if err := s.claimRepo.Update(claim.ID, updates); err != nil {
		return nil, err
	}
	claim.Status = next
	logger.Infow("claim_status_updated", "claim_id", claim.ID, "status", next)
	return claim, nil
}

func (s *ClaimService) publish(ctx context.Context, claim *models.Claim) {
	if s.bus == nil || claim == nil {
		return
	}
	s.bus.Publish(ctx, event.Event{
		Name:    constants.EventOrderUpdated,
		StoreID: orderStoreID(s.orderRepo, claim.OrderID),
		Payload: map[string]interface{}{
			"order_id": claim.OrderID,
			"claim_id": claim.ID,
			"type":     claim.Type,
			"status":   claim.Status,
			"source":   "claim",
		},
	})
}
