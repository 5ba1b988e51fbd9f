package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const maxReasonLen = 255

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	sm     *OrderStateMachine
	events *OrderEventLog
	ledger *InventoryLedger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, sm *OrderStateMachine, events *OrderEventLog, ledger *InventoryLedger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, sm: sm, events: events, ledger: ledger}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type AdminUpdateOrderStatusInput struct {
	Status string
	Reason string
}

type AdminUpdateOrderStatusOutput struct {
	Order   OrderOutput      `json:"order"`
	Event   OrderEventOutput `json:"event"`
	Changed bool             `json:"changed"`
}

type NextStatusesOutput struct {
	OrderID int64    `json:"order_id"`
	Current string   `json:"current"`
	Next    []string `json:"next"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if in.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	f := repo.AdminOrderListFilter{Page: in.Page, Limit: in.Limit, UserID: in.UserID, From: in.From, To: in.To}
	if strings.TrimSpace(in.Status) != "" {
		st, err := model.ParseOrderStatus(in.Status)
		if err != nil {
			return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &st
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ステータス更新。引当済み在庫が戻るべき遷移なら同じトランザクションで戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor model.Actor, orderID int64, in AdminUpdateOrderStatusInput) (AdminUpdateOrderStatusOutput, error) {
	if actor.UserID <= 0 {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if orderID <= 0 {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	target, err := model.ParseOrderStatus(in.Status)
	if err != nil {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	var items []model.OrderItem
	res, err := u.sm.Transition(ctx, TransitionCommand{
		OrderID: orderID,
		Target:  target,
		Actor:   actor,
		Reason:  reason,
		OnApplied: func(ctx context.Context, r repo.TxRepos, res TransitionResult) error {
			var err error
			items, err = r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			if !res.Changed || !releasesStock(res.From, res.Order.Status) {
				return nil
			}
			for _, it := range items {
				if err := u.ledger.ReleaseStock(ctx, r, it.SizeVariantID, it.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return AdminUpdateOrderStatusOutput{}, err
	}

	return AdminUpdateOrderStatusOutput{
		Order:   toOrderOutput(res.Order, items),
		Event:   toEventOutputs([]model.OrderEvent{res.Event})[0],
		Changed: res.Changed,
	}, nil
}

// 出荷前に終わる注文は在庫を戻す
func releasesStock(from, to model.OrderStatus) bool {
	switch to {
	case model.OrderStatusCancelled:
		return true
	case model.OrderStatusRefunded:
		return from == model.OrderStatusPaid || from == model.OrderStatusFulfilling
	}
	return false
}

// 管理者メモ（NOTE）。訂正も新しいNOTEで残す。
func (u *AdminOrderUsecase) AddNote(ctx context.Context, actor model.Actor, orderID int64, message string) (OrderEventOutput, error) {
	if actor.UserID <= 0 {
		return OrderEventOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return OrderEventOutput{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if orderID <= 0 {
		return OrderEventOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	msg := strings.TrimSpace(message)
	if msg == "" {
		return OrderEventOutput{}, NewHTTPError(http.StatusBadRequest, "message required")
	}

	var out OrderEventOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ev, err := u.events.Append(ctx, r, orderID, model.OrderEventNote, msg, model.NoteMeta(actor.UserID))
		if err != nil {
			return err
		}
		out = toEventOutputs([]model.OrderEvent{ev})[0]
		return nil
	})
	if err != nil {
		return OrderEventOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) Timeline(ctx context.Context, orderID int64) ([]OrderEventOutput, error) {
	if orderID <= 0 {
		return []OrderEventOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out []OrderEventOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("order", orderID)
			}
			return err
		}
		events, err := u.events.TimelineTx(ctx, r, orderID)
		if err != nil {
			return err
		}
		out = toEventOutputs(events)
		return nil
	})
	if err != nil {
		return []OrderEventOutput{}, err
	}
	return out, nil
}

// 管理画面の「次にできる操作」。遷移表をそのまま返す。
func (u *AdminOrderUsecase) NextStatuses(ctx context.Context, orderID int64) (NextStatusesOutput, error) {
	if orderID <= 0 {
		return NextStatusesOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out NextStatusesOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("order", orderID)
		}
		if err != nil {
			return err
		}
		next := o.Status.NextStatuses()
		out = NextStatusesOutput{OrderID: o.ID, Current: string(o.Status), Next: make([]string, 0, len(next))}
		for _, s := range next {
			out.Next = append(out.Next, string(s))
		}
		return nil
	})
	if err != nil {
		return NextStatusesOutput{}, err
	}
	return out, nil
}
