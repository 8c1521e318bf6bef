package payment

import (
	"context"

	"github.com/vendora-next/internal/models"
)

// RefundRequest 退款请求
type RefundRequest struct {
	OrderNo  string       // 原订单号
	RefundNo string       // 退款单号
	Total    models.Money // 原订单总额
	Amount   models.Money // 本次退款金额
	Currency string       // 币种
	Reason   string       // 退款原因
}

// RefundResult 退款结果
type RefundResult struct {
	GatewayTxID string // 网关退款流水号
	Status      string // 网关返回的退款状态
}

// Gateway 支付网关能力接口
type Gateway interface {
	Name() string
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
