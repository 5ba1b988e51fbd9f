package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderTotals(t *testing.T) {
	tot, err := NewOrderTotals(3000, 500, 250, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(3350), tot.Total)

	var o Order
	o.ApplyTotals(tot)
	assert.Equal(t, tot, o.Totals())
}

func TestNewOrderTotals_Invalid(t *testing.T) {
	_, err := NewOrderTotals(100, 200, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidTotals)

	_, err = NewOrderTotals(100, 0, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidTotals)

	bad := OrderTotals{Subtotal: 100, Total: 99}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTotals)
}

func TestTruncateEventMessage(t *testing.T) {
	assert.Equal(t, "short", TruncateEventMessage("short"))

	exact := strings.Repeat("x", OrderEventMessageMaxLen)
	assert.Equal(t, exact, TruncateEventMessage(exact))

	long := strings.Repeat("注", OrderEventMessageMaxLen+1)
	got := TruncateEventMessage(long)
	assert.Equal(t, OrderEventMessageMaxLen, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestStatusChangeMeta(t *testing.T) {
	m := StatusChangeMeta(OrderStatusPaid, OrderStatusFulfilling, Actor{UserID: 3, Role: RoleAdmin}, "")
	assert.Equal(t, EventMeta{"from": "PAID", "to": "FULFILLING", "actorId": int64(3), "actorRole": "ADMIN"}, m)

	withReason := StatusChangeMeta(OrderStatusPaid, OrderStatusCancelled, Actor{UserID: 3, Role: RoleAdmin}, "fraud")
	assert.Equal(t, "fraud", withReason["reason"])
}

func TestOrderEvent_Clone(t *testing.T) {
	e := OrderEvent{ID: 1, Meta: EventMeta{"k": "v"}}
	cp := e.Clone()
	cp.Meta["k"] = "changed"
	assert.Equal(t, "v", e.Meta["k"])

	assert.NotNil(t, OrderEvent{}.Clone().Meta)
}

func TestOrderEventKind_Valid(t *testing.T) {
	assert.True(t, OrderEventStatusChange.Valid())
	assert.True(t, OrderEventNote.Valid())
	assert.False(t, OrderEventKind("").Valid())
}
