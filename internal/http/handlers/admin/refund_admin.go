package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/vendora-next/internal/http/handlers/shared"
	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateRefundRequest 创建退款请求
type CreateRefundRequest struct {
	OrderID uint                `json:"order_id" binding:"required"`
	Amount  models.Money        `json:"amount" binding:"required"`
	Reason  string              `json:"reason"`
	Note    string              `json:"note"`
	Items   []RefundItemRequest `json:"items"`
}

// RefundItemRequest 退款明细请求
type RefundItemRequest struct {
	OrderItemID uint         `json:"order_item_id" binding:"required"`
	Quantity    int          `json:"quantity" binding:"min=0"`
	Amount      models.Money `json:"amount"`
}

// AdminCreateRefund 创建退款
func (h *Handler) AdminCreateRefund(c *gin.Context) {
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	items := make([]service.RefundItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.RefundItemInput{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Amount:      item.Amount,
		})
	}
	refund, err := h.RefundService.Create(c.Request.Context(), service.CreateRefundInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Reason:  strings.TrimSpace(req.Reason),
		Note:    strings.TrimSpace(req.Note),
		Items:   items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}

// AdminListRefunds 退款记录列表
func (h *Handler) AdminListRefunds(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	refunds, total, err := h.RefundService.List(repository.RefundListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, refunds, response.NewPagination(page, pageSize, total))
}

// AdminGetRefund 退款详情
func (h *Handler) AdminGetRefund(c *gin.Context) {
	refundID, ok := parseIDParam(c)
	if !ok {
		return
	}
	refund, err := h.RefundService.Get(refundID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}
