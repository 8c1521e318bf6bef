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

// CreateFulfillmentRequest 创建交付请求
type CreateFulfillmentRequest struct {
	OrderID    uint                     `json:"order_id" binding:"required"`
	Carrier    string                   `json:"carrier"`
	TrackingNo string                   `json:"tracking_no"`
	Lines      []FulfillmentLineRequest `json:"lines" binding:"required,min=1"`
}

// FulfillmentLineRequest 交付明细请求
type FulfillmentLineRequest struct {
	OrderItemID uint `json:"order_item_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

// AdminCreateFulfillment 创建交付记录
func (h *Handler) AdminCreateFulfillment(c *gin.Context) {
	var req CreateFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	adminID, ok := currentAdminID(c)
	if !ok {
		return
	}

	lines := make([]service.FulfillmentLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.FulfillmentLineInput{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}
	fulfillment, err := h.FulfillmentService.Create(c.Request.Context(), service.CreateFulfillmentInput{
		OrderID:    req.OrderID,
		AdminID:    adminID,
		Carrier:    strings.TrimSpace(req.Carrier),
		TrackingNo: strings.TrimSpace(req.TrackingNo),
		Lines:      lines,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, fulfillment)
}

// AdminListFulfillments 交付记录列表
func (h *Handler) AdminListFulfillments(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	fulfillments, total, err := h.FulfillmentService.List(repository.FulfillmentListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, fulfillments, response.NewPagination(page, pageSize, total))
}

// AdminGetFulfillment 交付记录详情
func (h *Handler) AdminGetFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c)
	if !ok {
		return
	}
	fulfillment, err := h.FulfillmentService.Get(fulfillmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, fulfillment)
}

// ShipFulfillmentRequest 发货请求
type ShipFulfillmentRequest struct {
	Carrier    string `json:"carrier"`
	TrackingNo string `json:"tracking_no"`
}

// AdminShipFulfillment 标记交付已发货
func (h *Handler) AdminShipFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ShipFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	fulfillment, err := h.FulfillmentService.Ship(c.Request.Context(), fulfillmentID, req.Carrier, req.TrackingNo)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, fulfillment)
}

// AdminDeliverFulfillment 标记交付已签收
func (h *Handler) AdminDeliverFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c)
	if !ok {
		return
	}
	fulfillment, err := h.FulfillmentService.Deliver(c.Request.Context(), fulfillmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, fulfillment)
}

// AdminCancelFulfillment 取消交付
func (h *Handler) AdminCancelFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c)
	if !ok {
		return
	}
	fulfillment, err := h.FulfillmentService.Cancel(c.Request.Context(), fulfillmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, fulfillment)
}
