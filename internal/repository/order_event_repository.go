package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 追記専用。更新・削除は持たない。
type OrderEventRepository interface {
	Append(ctx context.Context, event model.OrderEvent) (model.OrderEvent, error)
	// created_at昇順（同時刻はid昇順）
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error)
}
