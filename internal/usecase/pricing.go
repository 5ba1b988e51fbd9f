package usecase

import (
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 単一通貨の価格設定
type Pricing struct {
	Currency string
	// 0.10 なら10%
	TaxRate     decimal.Decimal
	ShippingFee int64
	// 0なら送料無料なし
	FreeShippingThreshold int64
}

// Totals は小計と割引額から税と送料を計算する。税は (小計-割引) に税率を掛けて切り捨て。
func (p Pricing) Totals(subtotal, discount int64) (model.OrderTotals, error) {
	taxable := subtotal - discount
	tax := int64(0)
	if taxable > 0 {
		tax = decimal.NewFromInt(taxable).Mul(p.TaxRate).Floor().IntPart()
	}

	shipping := p.ShippingFee
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		shipping = 0
	}

	return model.NewOrderTotals(subtotal, discount, tax, shipping)
}
