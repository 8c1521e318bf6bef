package tax

import "github.com/shopspring/decimal"

// Address 计税地址
type Address struct {
	Country  string
	Province string
	City     string
	PostCode string
}

// Line 计税商品行
type Line struct {
	ProductID uint
	UnitPrice decimal.Decimal
	Quantity  int
}

// Calculator 税费计算器
// 订单创建时对商品行计算应收税费，返回税额
type Calculator func(addr Address, lines []Line) decimal.Decimal

// Zero 不计税
func Zero() Calculator {
	return func(Address, []Line) decimal.Decimal {
		return decimal.Zero
	}
}

// FlatRate 按统一税率计税（rate 取 0.06 表示 6%）
func FlatRate(rate decimal.Decimal) Calculator {
	return func(_ Address, lines []Line) decimal.Decimal {
		subtotal := decimal.Zero
		for _, line := range lines {
			if line.Quantity <= 0 {
				continue
			}
			subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		return subtotal.Mul(rate).Round(2)
	}
}
