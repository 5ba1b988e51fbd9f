package usecase_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventLog_Timeline_KeepsAppendOrder(t *testing.T) {
	f := newFixture(t)
	orderID := f.orderAt(t)
	ctx := context.Background()

	err := f.store.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := f.events.Append(ctx, r, orderID, model.OrderEventNote, "E1", model.NoteMeta(1)); err != nil {
			return err
		}
		_, err := f.events.Append(ctx, r, orderID, model.OrderEventNote, "E2", model.NoteMeta(1))
		return err
	})
	require.NoError(t, err)

	evs := f.timeline(t, orderID)
	require.Len(t, evs, 2)
	assert.Equal(t, "E1", evs[0].Message)
	assert.Equal(t, "E2", evs[1].Message)
	assert.True(t, evs[0].CreatedAt.Before(evs[1].CreatedAt))
}

func TestOrderEventLog_Append_TruncatesTo500Runes(t *testing.T) {
	f := newFixture(t)
	orderID := f.orderAt(t)
	ctx := context.Background()

	long := strings.Repeat("あ", 600)
	err := f.store.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := f.events.Append(ctx, r, orderID, model.OrderEventNote, long, nil)
		return err
	})
	require.NoError(t, err)

	evs := f.timeline(t, orderID)
	require.Len(t, evs, 1)
	assert.Equal(t, model.OrderEventMessageMaxLen, utf8.RuneCountInString(evs[0].Message))
	assert.NotNil(t, evs[0].Meta)
}

func TestOrderEventLog_Append_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := f.events.Append(ctx, r, 999, model.OrderEventNote, "hello", nil)
		return err
	})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderEventLog_Append_InvalidKind(t *testing.T) {
	f := newFixture(t)
	orderID := f.orderAt(t)
	ctx := context.Background()

	err := f.store.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := f.events.Append(ctx, r, orderID, "SHOUT", "hello", nil)
		return err
	})
	require.Error(t, err)
	assert.Empty(t, f.timeline(t, orderID))
}

// 返したイベントを書き換えても保存済みのものは変わらない
func TestOrderEventLog_Timeline_ReturnsCopies(t *testing.T) {
	f := newFixture(t)
	orderID := f.orderAt(t, model.OrderStatusAwaitingPayment)

	evs := f.timeline(t, orderID)
	require.Len(t, evs, 1)
	evs[0].Meta["from"] = "TAMPERED"

	again := f.timeline(t, orderID)
	assert.Equal(t, "PENDING", again[0].Meta["from"])
}

func TestOrderEventLog_Timeline_UnknownOrderIsEmpty(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.timeline(t, 12345))
}
