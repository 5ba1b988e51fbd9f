package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutUsecase_PlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	a := f.seedVariant(t, 5)
	b := f.seedVariant(t, 5)

	out := f.placeOrder(t, 1, "key-1",
		usecase.CheckoutLine{SizeVariantID: b.ID, Quantity: 1},
		usecase.CheckoutLine{SizeVariantID: a.ID, Quantity: 2},
		usecase.CheckoutLine{SizeVariantID: a.ID, Quantity: 1},
	)

	assert.Equal(t, string(model.OrderStatusPending), out.Status)
	assert.Equal(t, "JPY", out.Currency)
	assert.Equal(t, int64(4000), out.Subtotal)
	assert.Equal(t, int64(400), out.Tax)
	assert.Equal(t, int64(4400), out.Total)
	require.Len(t, out.Items, 2)
	// ID順にまとめられる
	assert.Equal(t, a.ID, out.Items[0].SizeVariantID)
	assert.Equal(t, int64(3), out.Items[0].Quantity)
	assert.Equal(t, "Hoodie", out.Items[0].Name)

	stockA, _ := f.store.Stock(a.ID)
	stockB, _ := f.store.Stock(b.ID)
	assert.Equal(t, int64(2), stockA)
	assert.Equal(t, int64(4), stockB)
}

// 2行目が在庫不足なら1行目の減算も戻る
func TestCheckoutUsecase_PlaceOrder_InsufficientStock_RollsBack(t *testing.T) {
	f := newFixture(t)
	a := f.seedVariant(t, 5)
	b := f.seedVariant(t, 1)

	_, err := f.checkout.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		IdempotencyKey: "key-1",
		Lines: []usecase.CheckoutLine{
			{SizeVariantID: a.ID, Quantity: 2},
			{SizeVariantID: b.ID, Quantity: 2},
		},
	})
	ise, ok := usecase.AsInsufficientStock(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, b.ID, ise.SizeVariantID)

	stockA, _ := f.store.Stock(a.ID)
	stockB, _ := f.store.Stock(b.ID)
	assert.Equal(t, int64(5), stockA)
	assert.Equal(t, int64(1), stockB)

	list, err := f.orders.ListMyOrders(context.Background(), 1, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckoutUsecase_PlaceOrder_SameKey_ReturnsSameOrder(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 5)
	line := usecase.CheckoutLine{SizeVariantID: v.ID, Quantity: 2}

	first := f.placeOrder(t, 1, "key-1", line)
	second := f.placeOrder(t, 1, "key-1", line)
	assert.Equal(t, first.ID, second.ID)

	stock, _ := f.store.Stock(v.ID)
	assert.Equal(t, int64(3), stock)

	// 別ユーザーなら同じキーでも別注文
	other := f.placeOrder(t, 2, "key-1", line)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCheckoutUsecase_PlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 5)
	ok := []usecase.CheckoutLine{{SizeVariantID: v.ID, Quantity: 1}}

	cases := []struct {
		name   string
		userID int64
		in     usecase.PlaceOrderInput
		status int
	}{
		{"no user", 0, usecase.PlaceOrderInput{IdempotencyKey: "k", Lines: ok}, 401},
		{"no key", 1, usecase.PlaceOrderInput{Lines: ok}, 400},
		{"no lines", 1, usecase.PlaceOrderInput{IdempotencyKey: "k"}, 400},
		{"zero quantity", 1, usecase.PlaceOrderInput{IdempotencyKey: "k", Lines: []usecase.CheckoutLine{{SizeVariantID: v.ID}}}, 400},
		{"too many", 1, usecase.PlaceOrderInput{IdempotencyKey: "k", Lines: []usecase.CheckoutLine{{SizeVariantID: v.ID, Quantity: 100}}}, 400},
		{"currency", 1, usecase.PlaceOrderInput{IdempotencyKey: "k", Currency: "USD", Lines: ok}, 400},
		{"negative discount", 1, usecase.PlaceOrderInput{IdempotencyKey: "k", Discount: -1, Lines: ok}, 400},
		{"discount over subtotal", 1, usecase.PlaceOrderInput{IdempotencyKey: "k", Discount: 1001, Lines: ok}, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.checkout.PlaceOrder(context.Background(), tc.userID, tc.in)
			he, isHTTP := usecase.AsHTTPError(err)
			require.True(t, isHTTP, "err=%v", err)
			assert.Equal(t, tc.status, he.Status)
		})
	}

	stock, _ := f.store.Stock(v.ID)
	assert.Equal(t, int64(5), stock)
}

func TestCheckoutUsecase_PlaceOrder_UnknownVariant(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		IdempotencyKey: "k",
		Lines:          []usecase.CheckoutLine{{SizeVariantID: 777, Quantity: 1}},
	})
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestCheckoutUsecase_PlaceOrder_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	p := f.store.PutProduct(model.Product{Name: "Old", Price: 500, IsActive: false})
	v := f.store.PutSizeVariant(model.SizeVariant{ProductID: p.ID, SizeLabel: "S", Stock: 3})

	_, err := f.checkout.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		IdempotencyKey: "k",
		Lines:          []usecase.CheckoutLine{{SizeVariantID: v.ID, Quantity: 1}},
	})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "product unavailable", he.Message)

	stock, _ := f.store.Stock(v.ID)
	assert.Equal(t, int64(3), stock)
}
