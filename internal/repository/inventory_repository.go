package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// サイズ在庫の永続化。条件付き減算の方言差はここの実装に閉じ込める。
type InventoryRepository interface {
	FindByID(ctx context.Context, sizeVariantID int64) (model.SizeVariant, error)

	// stock >= qty のときだけ1文で減算し、更新行数を返す
	DecrementIfEnough(ctx context.Context, sizeVariantID int64, qty int64) (int64, error)

	// 在庫戻し（キャンセル・入荷）
	IncreaseStock(ctx context.Context, sizeVariantID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
