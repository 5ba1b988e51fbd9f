package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// 呼ぶたびに1ms進む時計（イベントの順序を確定させる）
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

var adminActor = model.Actor{UserID: 900, Role: model.RoleAdmin}

type fixture struct {
	store     *memory.Store
	clock     *stepClock
	metrics   *metrics.OrderMetrics
	events    *usecase.OrderEventLog
	ledger    *usecase.InventoryLedger
	sm        *usecase.OrderStateMachine
	checkout  *usecase.CheckoutUsecase
	orders    *usecase.OrderUsecase
	admin     *usecase.AdminOrderUsecase
	inventory *usecase.AdminInventoryUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return newFixtureWithTx(t, store, store, 2)
}

// txを差し替えて障害を注入する（storeは結果の確認用）
func newFixtureWithTx(t *testing.T, store *memory.Store, tx repo.TransactionManager, maxRetries int) *fixture {
	t.Helper()

	clock := newStepClock()
	log := logger.Discard()
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())

	events := usecase.NewOrderEventLog(tx, clock)
	ledger := usecase.NewInventoryLedger(log, m)
	sm := usecase.NewOrderStateMachine(tx, events, clock, log, m, maxRetries)
	pricing := usecase.Pricing{Currency: "JPY", TaxRate: decimal.RequireFromString("0.10")}

	return &fixture{
		store:     store,
		clock:     clock,
		metrics:   m,
		events:    events,
		ledger:    ledger,
		sm:        sm,
		checkout:  usecase.NewCheckoutUsecase(tx, ledger, pricing, clock, log),
		orders:    usecase.NewOrderUsecase(tx, events),
		admin:     usecase.NewAdminOrderUsecase(tx, sm, events, ledger),
		inventory: usecase.NewAdminInventoryUsecase(tx, ledger, clock, log),
	}
}

// 価格1000円の商品にサイズを1つ作る
func (f *fixture) seedVariant(t *testing.T, stock int64) model.SizeVariant {
	t.Helper()
	p := f.store.PutProduct(model.Product{Name: "Hoodie", Price: 1000, IsActive: true})
	return f.store.PutSizeVariant(model.SizeVariant{ProductID: p.ID, SizeLabel: "M", Stock: stock})
}

func (f *fixture) placeOrder(t *testing.T, userID int64, key string, lines ...usecase.CheckoutLine) usecase.OrderOutput {
	t.Helper()
	out, err := f.checkout.PlaceOrder(context.Background(), userID, usecase.PlaceOrderInput{IdempotencyKey: key, Lines: lines})
	require.NoError(t, err)
	return out
}

var keySeq atomic.Int64

// 在庫1つの商品で注文を作り、pathの順に遷移させる
func (f *fixture) orderAt(t *testing.T, path ...model.OrderStatus) int64 {
	t.Helper()
	v := f.seedVariant(t, 1)
	o := f.placeOrder(t, 1, fmt.Sprintf("order-%d", keySeq.Add(1)), usecase.CheckoutLine{SizeVariantID: v.ID, Quantity: 1})
	for _, st := range path {
		_, err := f.sm.Transition(context.Background(), usecase.TransitionCommand{OrderID: o.ID, Target: st, Actor: adminActor})
		require.NoError(t, err)
	}
	return o.ID
}

func (f *fixture) status(t *testing.T, orderID int64) model.OrderStatus {
	t.Helper()
	var st model.OrderStatus
	err := f.store.WithinTx(context.Background(), func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(context.Background(), orderID)
		st = o.Status
		return err
	})
	require.NoError(t, err)
	return st
}

func (f *fixture) timeline(t *testing.T, orderID int64) []model.OrderEvent {
	t.Helper()
	evs, err := f.events.Timeline(context.Background(), orderID)
	require.NoError(t, err)
	return evs
}

// 各ステータスへPENDINGから到達する経路
var pathTo = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:         {},
	model.OrderStatusAwaitingPayment: {model.OrderStatusAwaitingPayment},
	model.OrderStatusPaid:            {model.OrderStatusAwaitingPayment, model.OrderStatusPaid},
	model.OrderStatusFulfilling:      {model.OrderStatusAwaitingPayment, model.OrderStatusPaid, model.OrderStatusFulfilling},
	model.OrderStatusShipped:         {model.OrderStatusAwaitingPayment, model.OrderStatusPaid, model.OrderStatusFulfilling, model.OrderStatusShipped},
	model.OrderStatusDelivered:       {model.OrderStatusAwaitingPayment, model.OrderStatusPaid, model.OrderStatusFulfilling, model.OrderStatusShipped, model.OrderStatusDelivered},
	model.OrderStatusCancelled:       {model.OrderStatusCancelled},
	model.OrderStatusRefunded:        {model.OrderStatusAwaitingPayment, model.OrderStatusPaid, model.OrderStatusRefunded},
}

// =====================
// 障害注入用のTransactionManager
// =====================

var errEventStoreDown = errors.New("event store down")

// OrderEvents().Append だけ失敗させる
type failingEventsTx struct {
	inner repo.TransactionManager
}

func (f failingEventsTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return f.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(failingEventsRepos{TxRepos: r})
	})
}

type failingEventsRepos struct {
	repo.TxRepos
}

func (r failingEventsRepos) OrderEvents() repo.OrderEventRepository {
	return failingEventRepo{inner: r.TxRepos.OrderEvents()}
}

type failingEventRepo struct {
	inner repo.OrderEventRepository
}

func (r failingEventRepo) Append(ctx context.Context, e model.OrderEvent) (model.OrderEvent, error) {
	return model.OrderEvent{}, errEventStoreDown
}

func (r failingEventRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	return r.inner.ListByOrderID(ctx, orderID)
}

// 最初のn回のコミットを競合扱いにする（中身はロールバックされる）
type conflictingTx struct {
	inner repo.TransactionManager

	mu        sync.Mutex
	remaining int
	calls     int
}

func (c *conflictingTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	c.mu.Lock()
	c.calls++
	fail := c.remaining > 0
	if fail {
		c.remaining--
	}
	c.mu.Unlock()

	return c.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := fn(r); err != nil {
			return err
		}
		if fail {
			return repo.ErrConflict
		}
		return nil
	})
}
