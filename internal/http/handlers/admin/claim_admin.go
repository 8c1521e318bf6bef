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

// CreateClaimRequest 创建索赔请求
type CreateClaimRequest struct {
	OrderID uint               `json:"order_id" binding:"required"`
	Type    string             `json:"type" binding:"required,oneof=refund replace"`
	Reason  string             `json:"reason"`
	Note    string             `json:"note"`
	Lines   []ClaimLineRequest `json:"lines" binding:"required,min=1"`
}

// ClaimLineRequest 索赔明细请求
type ClaimLineRequest struct {
	OrderItemID uint `json:"order_item_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

// AdminCreateClaim 创建索赔单
func (h *Handler) AdminCreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	lines := make([]service.ClaimLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.ClaimLineInput{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}
	claim, err := h.ClaimService.Create(c.Request.Context(), service.CreateClaimInput{
		OrderID: req.OrderID,
		Type:    req.Type,
		Reason:  strings.TrimSpace(req.Reason),
		Note:    strings.TrimSpace(req.Note),
		Lines:   lines,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, claim)
}

// AdminListClaims 索赔单列表
func (h *Handler) AdminListClaims(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	claims, total, err := h.ClaimService.List(repository.WorkflowListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
		Status:   strings.TrimSpace(c.Query("status")),
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, claims, response.NewPagination(page, pageSize, total))
}

// AdminGetClaim 索赔单详情
func (h *Handler) AdminGetClaim(c *gin.Context) {
	claimID, ok := parseIDParam(c)
	if !ok {
		return
	}
	claim, err := h.ClaimService.Get(claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, claim)
}

// AdminProcessClaim 索赔单进入处理中
func (h *Handler) AdminProcessClaim(c *gin.Context) {
	claimID, ok := parseIDParam(c)
	if !ok {
		return
	}
	claim, err := h.ClaimService.Process(c.Request.Context(), claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, claim)
}

// CompleteClaimRequest 完成索赔请求，退款金额仅退款型索赔生效
type CompleteClaimRequest struct {
	RefundAmount models.Money `json:"refund_amount"`
}

// AdminCompleteClaim 完成索赔单
func (h *Handler) AdminCompleteClaim(c *gin.Context) {
	claimID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CompleteClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	claim, err := h.ClaimService.Complete(c.Request.Context(), claimID, req.RefundAmount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, claim)
}

// AdminCancelClaim 取消索赔单
func (h *Handler) AdminCancelClaim(c *gin.Context) {
	claimID, ok := parseIDParam(c)
	if !ok {
		return
	}
	claim, err := h.ClaimService.Cancel(c.Request.Context(), claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, claim)
}
