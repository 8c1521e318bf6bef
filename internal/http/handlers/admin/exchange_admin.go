package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/vendora-next/internal/http/handlers/shared"
	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateExchangeRequest 创建换货请求
type CreateExchangeRequest struct {
	OrderID     uint                        `json:"order_id" binding:"required"`
	Note        string                      `json:"note"`
	ReturnLines []ExchangeReturnLineRequest `json:"return_lines" binding:"required,min=1"`
	NewLines    []ExchangeNewLineRequest    `json:"new_lines" binding:"required,min=1"`
}

// ExchangeReturnLineRequest 换货退回明细请求
type ExchangeReturnLineRequest struct {
	OrderItemID uint `json:"order_item_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

// ExchangeNewLineRequest 换货换出明细请求
type ExchangeNewLineRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// AdminCreateExchange 创建换货单
func (h *Handler) AdminCreateExchange(c *gin.Context) {
	var req CreateExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	returnLines := make([]service.ExchangeReturnLineInput, 0, len(req.ReturnLines))
	for _, line := range req.ReturnLines {
		returnLines = append(returnLines, service.ExchangeReturnLineInput{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}
	newLines := make([]service.ExchangeNewLineInput, 0, len(req.NewLines))
	for _, line := range req.NewLines {
		newLines = append(newLines, service.ExchangeNewLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	exchange, err := h.ExchangeService.Create(c.Request.Context(), service.CreateExchangeInput{
		OrderID:     req.OrderID,
		Note:        strings.TrimSpace(req.Note),
		ReturnLines: returnLines,
		NewLines:    newLines,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, exchange)
}

// AdminListExchanges 换货单列表
func (h *Handler) AdminListExchanges(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	exchanges, total, err := h.ExchangeService.List(repository.WorkflowListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, exchanges, response.NewPagination(page, pageSize, total))
}

// AdminGetExchange 换货单详情
func (h *Handler) AdminGetExchange(c *gin.Context) {
	exchangeID, ok := parseIDParam(c)
	if !ok {
		return
	}
	exchange, err := h.ExchangeService.Get(exchangeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, exchange)
}

// AdminProcessExchange 换货单进入处理中
func (h *Handler) AdminProcessExchange(c *gin.Context) {
	exchangeID, ok := parseIDParam(c)
	if !ok {
		return
	}
	exchange, err := h.ExchangeService.Process(c.Request.Context(), exchangeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, exchange)
}

// AdminPayExchangeDifference 标记差价已支付
func (h *Handler) AdminPayExchangeDifference(c *gin.Context) {
	exchangeID, ok := parseIDParam(c)
	if !ok {
		return
	}
	exchange, err := h.ExchangeService.MarkDifferencePaid(c.Request.Context(), exchangeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, exchange)
}

// AdminCompleteExchange 完成换货单
func (h *Handler) AdminCompleteExchange(c *gin.Context) {
	exchangeID, ok := parseIDParam(c)
	if !ok {
		return
	}
	exchange, err := h.ExchangeService.Complete(c.Request.Context(), exchangeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, exchange)
}

// AdminCancelExchange 取消换货单
func (h *Handler) AdminCancelExchange(c *gin.Context) {
	exchangeID, ok := parseIDParam(c)
	if !ok {
		return
	}
	exchange, err := h.ExchangeService.Cancel(c.Request.Context(), exchangeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, exchange)
}
