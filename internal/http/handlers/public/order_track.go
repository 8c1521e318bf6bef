package public

import (
	"strings"
	"time"

	handlershared "github.com/vendora-next/internal/http/handlers/shared"
	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/models"

	"github.com/gin-gonic/gin"
)

// OrderTrackView 买家侧订单跟踪视图，只暴露交付进度相关字段
type OrderTrackView struct {
	OrderNo           string              `json:"order_no"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"payment_status"`
	FulfillmentStatus string              `json:"fulfillment_status"`
	Currency          string              `json:"currency"`
	Total             models.Money        `json:"total"`
	Items             []OrderTrackItem    `json:"items"`
	Shipments         []OrderTrackShipped `json:"shipments"`
	CreatedAt         time.Time           `json:"created_at"`
}

// OrderTrackItem 订单项进度
type OrderTrackItem struct {
	Title             models.JSON `json:"title"`
	Quantity          int         `json:"quantity"`
	FulfilledQuantity int         `json:"fulfilled_quantity"`
	ReturnedQuantity  int         `json:"returned_quantity"`
}

// OrderTrackShipped 交付记录进度
type OrderTrackShipped struct {
	Status      string     `json:"status"`
	Carrier     string     `json:"carrier,omitempty"`
	TrackingNo  string     `json:"tracking_no,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// TrackOrder 按订单号查询订单交付进度
func (h *Handler) TrackOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		handlershared.RespondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}
	order, err := h.OrderRepo.GetByOrderNo(orderNo)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if order == nil {
		handlershared.RespondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}

	view := OrderTrackView{
		OrderNo:           order.OrderNo,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		Currency:          order.Currency,
		Total:             order.TotalAmount,
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, OrderTrackItem{
			Title:             item.TitleJSON,
			Quantity:          item.Quantity,
			FulfilledQuantity: item.FulfilledQuantity,
			ReturnedQuantity:  item.ReturnedQuantity,
		})
	}
	for _, f := range order.Fulfillments {
		view.Shipments = append(view.Shipments, OrderTrackShipped{
			Status:      f.Status,
			Carrier:     f.Carrier,
			TrackingNo:  f.TrackingNo,
			ShippedAt:   f.ShippedAt,
			DeliveredAt: f.DeliveredAt,
		})
	}
	response.Success(c, view)
}
