package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	p := s.PutProduct(model.Product{Name: "Cap", Price: 1200, IsActive: true})
	v := s.PutSizeVariant(model.SizeVariant{ProductID: p.ID, SizeLabel: "F", Stock: 3})
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		n, err := r.Inventory().DecrementIfEnough(ctx, v.ID, 2)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		if _, err := r.Orders().Create(ctx, model.Order{UserID: 1, IdempotencyKey: "k", Status: model.OrderStatusPending}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stock, ok := s.Stock(v.ID)
	require.True(t, ok)
	assert.Equal(t, int64(3), stock)

	err = s.WithinTx(ctx, func(r repo.TxRepos) error {
		_, found, err := r.Orders().FindByIdempotencyKey(ctx, 1, "k")
		assert.False(t, found)
		return err
	})
	require.NoError(t, err)
}

func TestStore_WithinTx_CancelledContextDiscards(t *testing.T) {
	s := NewStore()
	v := s.PutSizeVariant(model.SizeVariant{ProductID: 1, SizeLabel: "F", Stock: 3})

	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Inventory().DecrementIfEnough(ctx, v.ID, 1)
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	stock, _ := s.Stock(v.ID)
	assert.Equal(t, int64(3), stock)

	// 開始前にキャンセル済みならfnは呼ばれない
	called := false
	err = s.WithinTx(ctx, func(r repo.TxRepos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_DecrementIfEnough(t *testing.T) {
	s := NewStore()
	v := s.PutSizeVariant(model.SizeVariant{ProductID: 1, SizeLabel: "F", Stock: 2})
	ctx := context.Background()

	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		n, err := r.Inventory().DecrementIfEnough(ctx, v.ID, 3)
		assert.Equal(t, int64(0), n)
		require.NoError(t, err)

		n, err = r.Inventory().DecrementIfEnough(ctx, v.ID, 2)
		assert.Equal(t, int64(1), n)
		require.NoError(t, err)

		n, err = r.Inventory().DecrementIfEnough(ctx, 999, 1)
		assert.Equal(t, int64(0), n)
		return err
	})
	require.NoError(t, err)

	stock, _ := s.Stock(v.ID)
	assert.Equal(t, int64(0), stock)
}

func TestStore_Orders_UpdateStatusRequiresFrom(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, model.Order{UserID: 1, IdempotencyKey: "k", Status: model.OrderStatusAwaitingPayment})
		require.NoError(t, err)

		assert.ErrorIs(t, r.Orders().UpdateStatus(ctx, id, model.OrderStatusPending, model.OrderStatusPaid, at), repo.ErrConflict)
		require.NoError(t, r.Orders().UpdateStatus(ctx, id, model.OrderStatusAwaitingPayment, model.OrderStatusPaid, at))
		assert.ErrorIs(t, r.Orders().UpdateStatus(ctx, 999, model.OrderStatusPaid, model.OrderStatusFulfilling, at), repo.ErrNotFound)

		o, err := r.Orders().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, o.Status)
		require.NotNil(t, o.PaidAt)
		assert.True(t, o.PaidAt.Equal(at))

		_, err = r.Orders().Create(ctx, model.Order{UserID: 1, IdempotencyKey: "k"})
		assert.ErrorIs(t, err, repo.ErrDuplicate)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_OrderEvents_SortedByTimeThenID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, e := range []model.OrderEvent{
			{OrderID: 1, Kind: model.OrderEventNote, Message: "late", CreatedAt: t0.Add(time.Second)},
			{OrderID: 1, Kind: model.OrderEventNote, Message: "a", CreatedAt: t0},
			{OrderID: 1, Kind: model.OrderEventNote, Message: "b", CreatedAt: t0},
			{OrderID: 2, Kind: model.OrderEventNote, Message: "other", CreatedAt: t0},
		} {
			if _, err := r.OrderEvents().Append(ctx, e); err != nil {
				return err
			}
		}
		evs, err := r.OrderEvents().ListByOrderID(ctx, 1)
		require.NoError(t, err)
		require.Len(t, evs, 3)
		assert.Equal(t, "a", evs[0].Message)
		assert.Equal(t, "b", evs[1].Message)
		assert.Equal(t, "late", evs[2].Message)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_Users(t *testing.T) {
	s := NewStore()
	s.PutUser(model.User{ID: 5, Email: "a@example.com", Role: model.RoleUser, IsActive: true})

	u, err := s.Users().FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = s.Users().FindByID(context.Background(), 6)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
