package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTotals = errors.New("invalid order totals")

// 金額はすべて最小通貨単位（円なら1円、USDなら1セント）
type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64       `gorm:"not null;uniqueIndex:idx_orders_user_idem,priority:1" json:"user_id"`
	Subtotal       int64       `gorm:"not null" json:"subtotal"`
	Discount       int64       `gorm:"not null;default:0" json:"discount"`
	Tax            int64       `gorm:"not null;default:0" json:"tax"`
	Shipping       int64       `gorm:"not null;default:0" json:"shipping"`
	Total          int64       `gorm:"not null" json:"total"`
	Currency       string      `gorm:"type:char(3);not null" json:"currency"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	// ユーザー単位でキーを一意にする
	IdempotencyKey string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_idem,priority:2" json:"-"`
	CreatedAt      time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty"`
}

// 注文金額の内訳
type OrderTotals struct {
	Subtotal int64
	Discount int64
	Tax      int64
	Shipping int64
	Total    int64
}

// NewOrderTotals は total = subtotal - discount + tax + shipping で組み立てる。
func NewOrderTotals(subtotal, discount, tax, shipping int64) (OrderTotals, error) {
	t := OrderTotals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal - discount + tax + shipping,
	}
	if err := t.Validate(); err != nil {
		return OrderTotals{}, err
	}
	return t, nil
}

func (t OrderTotals) Validate() error {
	if t.Subtotal < 0 || t.Discount < 0 || t.Tax < 0 || t.Shipping < 0 {
		return fmt.Errorf("%w: negative component", ErrInvalidTotals)
	}
	if t.Discount > t.Subtotal {
		return fmt.Errorf("%w: discount %d exceeds subtotal %d", ErrInvalidTotals, t.Discount, t.Subtotal)
	}
	if t.Total != t.Subtotal-t.Discount+t.Tax+t.Shipping {
		return fmt.Errorf("%w: total %d does not match components", ErrInvalidTotals, t.Total)
	}
	return nil
}

func (o Order) Totals() OrderTotals {
	return OrderTotals{
		Subtotal: o.Subtotal,
		Discount: o.Discount,
		Tax:      o.Tax,
		Shipping: o.Shipping,
		Total:    o.Total,
	}
}

func (o *Order) ApplyTotals(t OrderTotals) {
	o.Subtotal = t.Subtotal
	o.Discount = t.Discount
	o.Tax = t.Tax
	o.Shipping = t.Shipping
	o.Total = t.Total
}
