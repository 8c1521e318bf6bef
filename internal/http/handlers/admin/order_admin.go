package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/vendora-next/internal/http/handlers/shared"
	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	StoreID        uint                     `json:"store_id"`
	CustomerID     uint                     `json:"customer_id"`
	Currency       string                   `json:"currency"`
	ShippingAmount models.Money             `json:"shipping_amount"`
	DiscountAmount models.Money             `json:"discount_amount"`
	TaxAmount      *models.Money            `json:"tax_amount"`
	Items          []CreateOrderItemRequest `json:"items" binding:"required,min=1"`
}

// CreateOrderItemRequest 创建订单的订单项请求
type CreateOrderItemRequest struct {
	ProductID uint         `json:"product_id" binding:"required"`
	Title     models.JSON  `json:"title"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity" binding:"required,min=1"`
}

// AdminCreateOrder 管理端创建订单
func (h *Handler) AdminCreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItemInput{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.Create(c.Request.Context(), service.CreateOrderInput{
		StoreID:        req.StoreID,
		CustomerID:     req.CustomerID,
		Currency:       req.Currency,
		ShippingAmount: req.ShippingAmount,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
		Items:          items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	var customerID uint
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			customerID = uint(parsed)
		}
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		CustomerID:    customerID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情（含售后关联）
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetDetail(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest 更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateOrderStatus 沿状态机推进订单状态
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), orderID, strings.TrimSpace(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminCancelOrder 取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.OrderService.Cancel(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminMarkOrderPaid 标记订单已支付
func (h *Handler) AdminMarkOrderPaid(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.OrderService.MarkPaid(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
