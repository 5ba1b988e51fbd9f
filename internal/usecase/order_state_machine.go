package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

// 遷移の結果。Changed=falseは同一ステータスへの要求（イベントは記録される）。
type TransitionResult struct {
	Order   model.Order
	Event   model.OrderEvent
	From    model.OrderStatus
	Changed bool
}

type TransitionCommand struct {
	OrderID int64
	Target  model.OrderStatus
	Actor   model.Actor
	Reason  string

	// 同じトランザクション内の追加処理（在庫戻しなど）。errorならロールバック。
	OnApplied func(ctx context.Context, r repo.TxRepos, res TransitionResult) error
}

type OrderStateMachine struct {
	tx         repo.TransactionManager
	events     *OrderEventLog
	clock      Clock
	log        *slog.Logger
	metrics    *metrics.OrderMetrics
	maxRetries int
}

func NewOrderStateMachine(
	tx repo.TransactionManager,
	events *OrderEventLog,
	clock Clock,
	log *slog.Logger,
	m *metrics.OrderMetrics,
	maxRetries int,
) *OrderStateMachine {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &OrderStateMachine{
		tx:         tx,
		events:     events,
		clock:      clock,
		log:        log,
		metrics:    m,
		maxRetries: maxRetries,
	}
}

// RequestTransition は r のトランザクション内でステータス更新とSTATUS_CHANGEイベント1件を書く。
// orderはこのトランザクションで読んだ最新の行であること。
func (m *OrderStateMachine) RequestTransition(ctx context.Context, r repo.TxRepos, order model.Order, target model.OrderStatus, actor model.Actor, reason string) (TransitionResult, error) {
	from := order.Status
	if !from.CanTransitionTo(target) {
		m.metrics.ObserveTransition(string(from), string(target), "rejected")
		return TransitionResult{}, &InvalidTransitionError{From: from, To: target}
	}

	now := m.clock.Now()
	changed := from != target
	if changed {
		if err := r.Orders().UpdateStatus(ctx, order.ID, from, target, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return TransitionResult{}, notFound("order", order.ID)
			}
			return TransitionResult{}, err
		}
		order.Status = target
		order.UpdatedAt = now
		if target == model.OrderStatusPaid && order.PaidAt == nil {
			order.PaidAt = &now
		}
		if target == model.OrderStatusCancelled && order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}

	ev, err := m.events.append(ctx, r, order.ID, model.OrderEventStatusChange,
		model.StatusChangeMessage(from, target),
		model.StatusChangeMeta(from, target, actor, reason),
	)
	if err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{Order: order, Event: ev, From: from, Changed: changed}, nil
}

// Transition はトランザクションを開いて行ロックで読み直し、遷移を適用する。
// コミット競合のときは読み直しから maxRetries 回までやり直す。
func (m *OrderStateMachine) Transition(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	if !cmd.Target.Valid() {
		return TransitionResult{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		res TransitionResult
		err error
	)
	for attempt := 0; ; attempt++ {
		res, err = m.transitionOnce(ctx, cmd)
		if err == nil || !errors.Is(err, ErrTransactionConflict) || attempt >= m.maxRetries || ctx.Err() != nil {
			break
		}
		m.log.WarnContext(ctx, "order transition conflict, retrying",
			"order_id", cmd.OrderID, "to", cmd.Target, "attempt", attempt+1)
	}

	if err != nil {
		if ite, ok := AsInvalidTransition(err); ok {
			m.log.InfoContext(ctx, "order transition rejected",
				"order_id", cmd.OrderID, "from", ite.From, "to", ite.To, "actor_id", cmd.Actor.UserID)
		} else if !errors.Is(err, ErrNotFound) {
			m.metrics.ObserveTransition("", string(cmd.Target), "error")
		}
		return TransitionResult{}, err
	}

	result := "applied"
	if !res.Changed {
		result = "noop"
	}
	m.metrics.ObserveTransition(string(res.From), string(cmd.Target), result)
	m.log.InfoContext(ctx, "order transition accepted",
		"order_id", cmd.OrderID, "from", res.From, "to", cmd.Target, "changed", res.Changed, "actor_id", cmd.Actor.UserID)
	return res, nil
}

func (m *OrderStateMachine) transitionOnce(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	var res TransitionResult
	err := m.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("order", cmd.OrderID)
			}
			return err
		}

		res, err = m.RequestTransition(ctx, r, o, cmd.Target, cmd.Actor, cmd.Reason)
		if err != nil {
			return err
		}
		if cmd.OnApplied != nil {
			return cmd.OnApplied(ctx, r, res)
		}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	return res, nil
}
