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

// RequestReturnRequest 申请退货请求
type RequestReturnRequest struct {
	OrderID uint                `json:"order_id" binding:"required"`
	Reason  string              `json:"reason"`
	Note    string              `json:"note"`
	Lines   []ReturnLineRequest `json:"lines" binding:"required,min=1"`
}

// ReturnLineRequest 退货明细请求
type ReturnLineRequest struct {
	OrderItemID uint `json:"order_item_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

// AdminRequestReturn 创建退货申请
func (h *Handler) AdminRequestReturn(c *gin.Context) {
	var req RequestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	lines := make([]service.ReturnLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.ReturnLineInput{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}
	ret, err := h.ReturnService.Request(c.Request.Context(), service.RequestReturnInput{
		OrderID: req.OrderID,
		Reason:  strings.TrimSpace(req.Reason),
		Note:    strings.TrimSpace(req.Note),
		Lines:   lines,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, ret)
}

// AdminListReturns 退货单列表
func (h *Handler) AdminListReturns(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	returns, total, err := h.ReturnService.List(repository.WorkflowListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, returns, response.NewPagination(page, pageSize, total))
}

// AdminGetReturn 退货单详情
func (h *Handler) AdminGetReturn(c *gin.Context) {
	returnID, ok := parseIDParam(c)
	if !ok {
		return
	}
	ret, err := h.ReturnService.Get(returnID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, ret)
}

// ReceiveReturnRequest 收货确认请求，明细缺省时按申请数量全收
type ReceiveReturnRequest struct {
	Lines []ReceivedLineRequest `json:"lines"`
}

// ReceivedLineRequest 收货确认明细请求
type ReceivedLineRequest struct {
	OrderItemID      uint `json:"order_item_id" binding:"required"`
	ReceivedQuantity int  `json:"received_quantity" binding:"min=0"`
}

// AdminReceiveReturn 标记退货已收货
func (h *Handler) AdminReceiveReturn(c *gin.Context) {
	returnID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ReceiveReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	lines := make([]service.ReceivedLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.ReceivedLineInput{
			OrderItemID:      line.OrderItemID,
			ReceivedQuantity: line.ReceivedQuantity,
		})
	}
	ret, err := h.ReturnService.MarkReceived(c.Request.Context(), returnID, lines)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, ret)
}

// CompleteReturnRequest 完成退货请求
type CompleteReturnRequest struct {
	RefundAmount models.Money `json:"refund_amount"`
}

// AdminCompleteReturn 完成退货并创建退款
func (h *Handler) AdminCompleteReturn(c *gin.Context) {
	returnID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CompleteReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	ret, err := h.ReturnService.Complete(c.Request.Context(), returnID, req.RefundAmount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, ret)
}

// AdminCancelReturn 取消退货申请
func (h *Handler) AdminCancelReturn(c *gin.Context) {
	returnID, ok := parseIDParam(c)
	if !ok {
		return
	}
	ret, err := h.ReturnService.Cancel(c.Request.Context(), returnID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, ret)
}
