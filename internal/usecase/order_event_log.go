package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 注文イベントの追記と時系列の読み出し。更新・削除はしない。
// 所有者チェックは呼び出し側の責任。
type OrderEventLog struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewOrderEventLog(tx repo.TransactionManager, clock Clock) *OrderEventLog {
	return &OrderEventLog{tx: tx, clock: clock}
}

var ErrInvalidEventKind = errors.New("invalid event kind")

// Append は r のトランザクション内で1件追記する。注文が無ければErrNotFound。
func (l *OrderEventLog) Append(ctx context.Context, r repo.TxRepos, orderID int64, kind model.OrderEventKind, message string, meta model.EventMeta) (model.OrderEvent, error) {
	if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.OrderEvent{}, notFound("order", orderID)
		}
		return model.OrderEvent{}, err
	}
	return l.append(ctx, r, orderID, kind, message, meta)
}

// 注文の存在が分かっている場合（遷移直後など）
func (l *OrderEventLog) append(ctx context.Context, r repo.TxRepos, orderID int64, kind model.OrderEventKind, message string, meta model.EventMeta) (model.OrderEvent, error) {
	if !kind.Valid() {
		return model.OrderEvent{}, fmt.Errorf("%w: %q", ErrInvalidEventKind, kind)
	}
	ev, err := r.OrderEvents().Append(ctx, model.OrderEvent{
		OrderID:   orderID,
		Kind:      kind,
		Message:   model.TruncateEventMessage(message),
		Meta:      meta.Clone(),
		CreatedAt: l.clock.Now(),
	})
	if err != nil {
		return model.OrderEvent{}, err
	}
	return ev, nil
}

// Timeline は古い順のイベントを返す。返したスライスは呼び出し側のもの。
func (l *OrderEventLog) Timeline(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	var out []model.OrderEvent
	err := l.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		events, err := l.TimelineTx(ctx, r, orderID)
		if err != nil {
			return err
		}
		out = events
		return nil
	})
	if err != nil {
		return []model.OrderEvent{}, err
	}
	return out, nil
}

func (l *OrderEventLog) TimelineTx(ctx context.Context, r repo.TxRepos, orderID int64) ([]model.OrderEvent, error) {
	events, err := r.OrderEvents().ListByOrderID(ctx, orderID)
	if err != nil {
		return []model.OrderEvent{}, err
	}
	out := make([]model.OrderEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.Clone())
	}
	return out, nil
}
