package admin

import (
	handlershared "github.com/vendora-next/internal/http/handlers/shared"
	"github.com/vendora-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// currentAdminID 从上下文读取当前管理员 ID
func currentAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.invalid_params", "error.internal")
}

// parseIDParam 解析路径中的资源 ID
func parseIDParam(c *gin.Context) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return 0, false
	}
	return id, true
}
