package i18n

import (
	"fmt"
	"strings"

	"github.com/vendora-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// messages 按语言分组的文案表
var messages = map[string]map[string]string{
	constants.LocaleZhCN: {
		"error.invalid_params":         "请求参数错误",
		"error.not_found":              "资源不存在",
		"error.internal":               "服务器内部错误",
		"error.unauthorized":           "未登录或登录已过期",
		"error.forbidden":              "没有操作权限",
		"error.rate_limited":           "操作过于频繁，请稍后再试",
		"error.login_too_many":         "登录尝试过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable": "限流服务暂不可用",
		"error.login_failed":           "账号或密码错误",
		"error.jwt_secret_missing":     "服务端JWT密钥未配置",
		"error.token_invalid":          "登录凭证无效",
		"error.token_revoked":          "登录凭证已失效，请重新登录",
		"error.auth_header_missing":    "缺少认证头",
		"error.auth_header_invalid":    "认证头格式错误",
		"error.invalid_transition":     "当前状态不允许该操作",
		"error.insufficient_quantity":  "可用数量不足",
		"error.order_not_editable":     "订单当前不可编辑",
		"error.delivery_failed":        "回调投递失败",
		"error.conflict":               "数据已被修改，请重试",
		"error.order_not_found":        "订单不存在",
		"error.webhook_not_found":      "回调订阅不存在",
	},
	constants.LocaleEnUS: {
		"error.invalid_params":         "invalid request parameters",
		"error.not_found":              "resource not found",
		"error.internal":               "internal server error",
		"error.unauthorized":           "not logged in or session expired",
		"error.forbidden":              "permission denied",
		"error.rate_limited":           "too many requests, try again later",
		"error.login_too_many":         "too many login attempts, retry in %d seconds",
		"error.rate_limit_unavailable": "rate limiter temporarily unavailable",
		"error.login_failed":           "incorrect username or password",
		"error.jwt_secret_missing":     "server JWT secret not configured",
		"error.token_invalid":          "invalid credential",
		"error.token_revoked":          "credential revoked, please login again",
		"error.auth_header_missing":    "missing authorization header",
		"error.auth_header_invalid":    "malformed authorization header",
		"error.invalid_transition":     "operation not allowed in current state",
		"error.insufficient_quantity":  "insufficient remaining quantity",
		"error.order_not_editable":     "order is not editable",
		"error.delivery_failed":        "webhook delivery failed",
		"error.conflict":               "record was modified concurrently, please retry",
		"error.order_not_found":        "order not found",
		"error.webhook_not_found":      "webhook not found",
	},
}

// ResolveLocale 解析请求语言（query > header > 默认）
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleDefault
	}
	if locale := normalizeLocale(c.Query("locale")); locale != "" {
		return locale
	}
	if locale := normalizeLocale(c.GetHeader("Accept-Language")); locale != "" {
		return locale
	}
	return constants.LocaleDefault
}

// T 按语言取文案，未命中时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[constants.LocaleDefault][key]; ok {
		return msg
	}
	return key
}

// Sprintf 按语言取文案并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func normalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// Accept-Language 可能携带权重列表，取第一个
	if idx := strings.IndexAny(raw, ",;"); idx > 0 {
		raw = raw[:idx]
	}
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(lower, "zh"):
		return constants.LocaleZhCN
	case strings.HasPrefix(lower, "en"):
		return constants.LocaleEnUS
	}
	return ""
}
