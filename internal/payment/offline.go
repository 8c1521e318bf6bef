package payment

import (
	"context"
	"fmt"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/logger"
)

// OfflineGateway 线下网关
// 不对接外部系统，退款视为由运营人员线下完成
type OfflineGateway struct{}

// NewOfflineGateway 创建线下网关
func NewOfflineGateway() *OfflineGateway {
	return &OfflineGateway{}
}

// Name 网关标识
func (g *OfflineGateway) Name() string {
	return constants.PaymentGatewayOffline
}

// Refund 线下退款直接记为成功
func (g *OfflineGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	logger.Infow("offline_refund_recorded",
		"order_no", req.OrderNo,
		"refund_no", req.RefundNo,
		"amount", req.Amount.String(),
	)
	return &RefundResult{
		GatewayTxID: fmt.Sprintf("offline-%s", req.RefundNo),
		Status:      "SUCCESS",
	}, nil
}
