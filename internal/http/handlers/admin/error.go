package admin

import (
	"errors"

	handlershared "github.com/vendora-next/internal/http/handlers/shared"
	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// respondServiceError 将服务层错误映射为统一响应
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderItemNotFound),
		errors.Is(err, service.ErrFulfillmentNotFound),
		errors.Is(err, service.ErrReturnNotFound),
		errors.Is(err, service.ErrClaimNotFound),
		errors.Is(err, service.ErrExchangeNotFound),
		errors.Is(err, service.ErrOrderEditNotFound),
		errors.Is(err, service.ErrRefundNotFound),
		errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "error.not_found", nil)
	case errors.Is(err, service.ErrWebhookNotFound):
		respondError(c, response.CodeNotFound, "error.webhook_not_found", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(c, response.CodeUnprocessable, "error.invalid_transition", err)
	case errors.Is(err, service.ErrInsufficientQuantity):
		respondError(c, response.CodeUnprocessable, "error.insufficient_quantity", err)
	case errors.Is(err, service.ErrOrderNotEditable):
		respondError(c, response.CodeUnprocessable, "error.order_not_editable", err)
	case errors.Is(err, service.ErrPersistenceConflict):
		respondError(c, response.CodeConflict, "error.conflict", err)
	case errors.Is(err, service.ErrDeliveryFailed):
		respondError(c, response.CodeInternal, "error.delivery_failed", err)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}
