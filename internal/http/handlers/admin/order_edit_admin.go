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

// CreateOrderEditRequest 创建改单请求
type CreateOrderEditRequest struct {
	OrderID uint                     `json:"order_id" binding:"required"`
	Note    string                   `json:"note"`
	Changes []OrderEditChangeRequest `json:"changes" binding:"required,min=1"`
}

// OrderEditChangeRequest 改单变更项请求
type OrderEditChangeRequest struct {
	Type        string `json:"type" binding:"required,oneof=add remove update_quantity"`
	OrderItemID uint   `json:"order_item_id"`
	ProductID   uint   `json:"product_id"`
	Quantity    int    `json:"quantity"`
}

// AdminCreateOrderEdit 创建改单草稿
func (h *Handler) AdminCreateOrderEdit(c *gin.Context) {
	var req CreateOrderEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	changes := make([]service.OrderEditChangeInput, 0, len(req.Changes))
	for _, change := range req.Changes {
		changes = append(changes, service.OrderEditChangeInput{
			Type:        change.Type,
			OrderItemID: change.OrderItemID,
			ProductID:   change.ProductID,
			Quantity:    change.Quantity,
		})
	}
	adminID, ok := currentAdminID(c)
	if !ok {
		return
	}
	edit, err := h.OrderEditService.Create(c.Request.Context(), service.CreateOrderEditInput{
		OrderID:   req.OrderID,
		Note:      strings.TrimSpace(req.Note),
		CreatedBy: &adminID,
		Changes:   changes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, edit)
}

// AdminListOrderEdits 改单记录列表
func (h *Handler) AdminListOrderEdits(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	edits, total, err := h.OrderEditService.List(repository.WorkflowListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, edits, response.NewPagination(page, pageSize, total))
}

// AdminGetOrderEdit 改单详情
func (h *Handler) AdminGetOrderEdit(c *gin.Context) {
	editID, ok := parseIDParam(c)
	if !ok {
		return
	}
	edit, err := h.OrderEditService.Get(editID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, edit)
}

// AdminRequestOrderEdit 改单提交确认
func (h *Handler) AdminRequestOrderEdit(c *gin.Context) {
	editID, ok := parseIDParam(c)
	if !ok {
		return
	}
	edit, err := h.OrderEditService.RequestConfirmation(c.Request.Context(), editID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, edit)
}

// AdminConfirmOrderEdit 确认并应用改单
func (h *Handler) AdminConfirmOrderEdit(c *gin.Context) {
	editID, ok := parseIDParam(c)
	if !ok {
		return
	}
	edit, err := h.OrderEditService.Confirm(c.Request.Context(), editID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, edit)
}

// DeclineOrderEditRequest 拒绝改单请求
type DeclineOrderEditRequest struct {
	Note string `json:"note"`
}

// AdminDeclineOrderEdit 拒绝改单
func (h *Handler) AdminDeclineOrderEdit(c *gin.Context) {
	editID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req DeclineOrderEditRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	edit, err := h.OrderEditService.Decline(c.Request.Context(), editID, strings.TrimSpace(req.Note))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, edit)
}
