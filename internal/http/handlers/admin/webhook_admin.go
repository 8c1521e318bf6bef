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

// CreateWebhookRequest 创建回调订阅请求
type CreateWebhookRequest struct {
	StoreID uint     `json:"store_id"`
	Name    string   `json:"name"`
	URL     string   `json:"url" binding:"required,url"`
	Secret  string   `json:"secret"`
	Events  []string `json:"events" binding:"required,min=1"`
}

// AdminCreateWebhook 创建回调订阅
func (h *Handler) AdminCreateWebhook(c *gin.Context) {
	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	hook, err := h.WebhookService.Create(c.Request.Context(), service.CreateWebhookInput{
		StoreID: req.StoreID,
		Name:    strings.TrimSpace(req.Name),
		URL:     req.URL,
		Secret:  req.Secret,
		Events:  req.Events,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, hook)
}

// AdminListWebhooks 回调订阅列表
func (h *Handler) AdminListWebhooks(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	var storeID uint
	if raw := strings.TrimSpace(c.Query("store_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			storeID = uint(parsed)
		}
	}
	hooks, total, err := h.WebhookService.List(repository.WebhookListFilter{
		Page:       page,
		PageSize:   pageSize,
		StoreID:    storeID,
		Event:      strings.TrimSpace(c.Query("event")),
		OnlyActive: c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, hooks, response.NewPagination(page, pageSize, total))
}

// AdminGetWebhook 回调订阅详情
func (h *Handler) AdminGetWebhook(c *gin.Context) {
	webhookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	hook, err := h.WebhookService.Get(webhookID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, hook)
}

// UpdateWebhookRequest 更新回调订阅请求，指针字段缺省时不变更
type UpdateWebhookRequest struct {
	Name     *string  `json:"name"`
	URL      *string  `json:"url"`
	Secret   *string  `json:"secret"`
	Events   []string `json:"events"`
	IsActive *bool    `json:"is_active"`
}

// AdminUpdateWebhook 更新回调订阅
func (h *Handler) AdminUpdateWebhook(c *gin.Context) {
	webhookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	hook, err := h.WebhookService.Update(c.Request.Context(), webhookID, service.UpdateWebhookInput{
		Name:     req.Name,
		URL:      req.URL,
		Secret:   req.Secret,
		Events:   req.Events,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, hook)
}

// AdminDeleteWebhook 删除回调订阅
func (h *Handler) AdminDeleteWebhook(c *gin.Context) {
	webhookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.WebhookService.Delete(c.Request.Context(), webhookID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminTestWebhook 发送测试事件并返回投递结果
func (h *Handler) AdminTestWebhook(c *gin.Context) {
	webhookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.WebhookService.SendTest(c.Request.Context(), webhookID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// AdminListWebhookLogs 投递日志列表
func (h *Handler) AdminListWebhookLogs(c *gin.Context) {
	webhookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	logs, total, err := h.WebhookService.Logs(repository.WebhookLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		WebhookID: webhookID,
		Event:     strings.TrimSpace(c.Query("event")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}
