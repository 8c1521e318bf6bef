package payment

import (
	"fmt"
	"strings"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"
)

// NewGateway 按配置选择支付网关实现
func NewGateway(cfg config.PaymentConfig) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Gateway)) {
	case "", constants.PaymentGatewayOffline:
		return NewOfflineGateway(), nil
	case constants.PaymentGatewayWechat:
		return NewWechatGateway(cfg.Wechat)
	default:
		return nil, fmt.Errorf("unsupported payment gateway: %s", cfg.Gateway)
	}
}
