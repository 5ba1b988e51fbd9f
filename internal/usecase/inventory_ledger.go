package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

// 在庫の条件付き減算。リトライはしない。
// 失敗時にトランザクションを巻き戻すかどうかは呼び出し側が決める。
type InventoryLedger struct {
	log     *slog.Logger
	metrics *metrics.OrderMetrics
}

func NewInventoryLedger(log *slog.Logger, m *metrics.OrderMetrics) *InventoryLedger {
	return &InventoryLedger{log: log, metrics: m}
}

// DecrementStock は r のトランザクション内で在庫をqty減らす。
// 更新行がちょうど1行のときだけ成功。
func (l *InventoryLedger) DecrementStock(ctx context.Context, r repo.TxRepos, sizeVariantID int64, qty int64) error {
	if qty <= 0 {
		return nil
	}

	affected, err := r.Inventory().DecrementIfEnough(ctx, sizeVariantID, qty)
	if err != nil {
		l.metrics.ObserveDecrement("error")
		return err
	}
	switch {
	case affected == 1:
		l.metrics.ObserveDecrement("ok")
		return nil
	case affected > 1:
		l.metrics.ObserveDecrement("error")
		return fmt.Errorf("stock decrement for size variant %d affected %d rows", sizeVariantID, affected)
	}

	//0行: 行が無いのか在庫不足かを見分ける
	if _, err := r.Inventory().FindByID(ctx, sizeVariantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.metrics.ObserveDecrement("not_found")
			return notFound("size variant", sizeVariantID)
		}
		l.metrics.ObserveDecrement("error")
		return err
	}
	l.metrics.ObserveDecrement("insufficient")
	l.log.InfoContext(ctx, "insufficient stock", "size_variant_id", sizeVariantID, "requested", qty)
	return &InsufficientStockError{SizeVariantID: sizeVariantID, Requested: qty}
}

// ReleaseStock はキャンセル時に引当分を戻す
func (l *InventoryLedger) ReleaseStock(ctx context.Context, r repo.TxRepos, sizeVariantID int64, qty int64) error {
	if qty <= 0 {
		return nil
	}
	if err := r.Inventory().IncreaseStock(ctx, sizeVariantID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("size variant", sizeVariantID)
		}
		return err
	}
	return nil
}
