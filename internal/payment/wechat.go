package payment

import (
	"context"
	"os"
	"strings"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/payment/wechatpay"
)

// WechatGateway 微信支付网关
type WechatGateway struct {
	cfg *wechatpay.Config
}

// NewWechatGateway 从应用配置创建微信支付网关
func NewWechatGateway(cfg config.WechatPayConfig) (*WechatGateway, error) {
	privateKey := ""
	if path := strings.TrimSpace(cfg.PrivateKeyPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		privateKey = string(data)
	}
	wcfg := &wechatpay.Config{
		MerchantID:         cfg.MchID,
		MerchantSerialNo:   cfg.MchCertSerialNo,
		MerchantPrivateKey: privateKey,
		APIV3Key:           cfg.MchAPIv3Key,
	}
	if err := wechatpay.ValidateConfig(wcfg); err != nil {
		return nil, err
	}
	return &WechatGateway{cfg: wcfg}, nil
}

// Name 网关标识
func (g *WechatGateway) Name() string {
	return constants.PaymentGatewayWechat
}

// Refund 通过微信商户平台退款
func (g *WechatGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	result, err := wechatpay.CreateRefund(ctx, g.cfg, wechatpay.RefundInput{
		OrderNo:  req.OrderNo,
		RefundNo: req.RefundNo,
		Total:    req.Total.String(),
		Amount:   req.Amount.String(),
		Currency: req.Currency,
		Reason:   req.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &RefundResult{
		GatewayTxID: result.RefundID,
		Status:      result.Status,
	}, nil
}
