package usecase

import (
	"time"

	"storefront/internal/domain/model"
)

type OrderItemOutput struct {
	SizeVariantID int64  `json:"size_variant_id"`
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	Size          string `json:"size"`
	Price         int64  `json:"price"`
	Quantity      int64  `json:"quantity"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Status      string            `json:"status"`
	Currency    string            `json:"currency"`
	Subtotal    int64             `json:"subtotal"`
	Discount    int64             `json:"discount"`
	Tax         int64             `json:"tax"`
	Shipping    int64             `json:"shipping"`
	Total       int64             `json:"total"`
	CreatedAt   time.Time         `json:"created_at"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	Items       []OrderItemOutput `json:"items"`
}

type OrderEventOutput struct {
	ID        int64           `json:"id"`
	Kind      string          `json:"kind"`
	Message   string          `json:"message"`
	Meta      model.EventMeta `json:"meta"`
	CreatedAt time.Time       `json:"created_at"`
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			SizeVariantID: it.SizeVariantID,
			ProductID:     it.ProductID,
			Name:          it.ProductNameSnapshot,
			Size:          it.SizeLabelSnapshot,
			Price:         it.UnitPrice,
			Quantity:      it.Quantity,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		Currency:    o.Currency,
		Subtotal:    o.Subtotal,
		Discount:    o.Discount,
		Tax:         o.Tax,
		Shipping:    o.Shipping,
		Total:       o.Total,
		CreatedAt:   o.CreatedAt,
		PaidAt:      o.PaidAt,
		CancelledAt: o.CancelledAt,
		Items:       outItems,
	}
}

func toEventOutputs(events []model.OrderEvent) []OrderEventOutput {
	out := make([]OrderEventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, OrderEventOutput{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Message:   e.Message,
			Meta:      e.Meta.Clone(),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
