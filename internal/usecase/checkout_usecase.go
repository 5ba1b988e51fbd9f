package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	maxCheckoutLines    = 50
	maxLineQuantity     = 99
	maxIdempotencyKeyLn = 255
)

type CheckoutUsecase struct {
	tx      repo.TransactionManager
	ledger  *InventoryLedger
	pricing Pricing
	clock   Clock
	log     *slog.Logger
}

func NewCheckoutUsecase(tx repo.TransactionManager, ledger *InventoryLedger, pricing Pricing, clock Clock, log *slog.Logger) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, ledger: ledger, pricing: pricing, clock: clock, log: log}
}

type CheckoutLine struct {
	SizeVariantID int64
	Quantity      int64
}

type PlaceOrderInput struct {
	IdempotencyKey string
	Currency       string
	Discount       int64
	Lines          []CheckoutLine
}

// 同時に同じキーで作られた。この試行はロールバックして勝った方を返す。
var errIdempotencyRace = errors.New("idempotency race")

func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > maxIdempotencyKeyLn {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = u.pricing.Currency
	}
	if currency != u.pricing.Currency {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported currency")
	}
	if in.Discount < 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid discount")
	}
	lines, err := normalizeLines(in.Lines)
	if err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		orderItems := make([]model.OrderItem, 0, len(lines))
		var subtotal int64
		for _, ln := range lines {
			v, err := r.Inventory().FindByID(ctx, ln.SizeVariantID)
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("size variant", ln.SizeVariantID)
			}
			if err != nil {
				return err
			}
			p, err := r.Products().FindByID(ctx, v.ProductID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}
			if err != nil {
				return err
			}

			//在庫を確定時に減らす（足りなければこのトランザクションごと戻す）
			if err := u.ledger.DecrementStock(ctx, r, v.ID, ln.Quantity); err != nil {
				return err
			}

			orderItems = append(orderItems, model.OrderItem{
				SizeVariantID:       v.ID,
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				SizeLabelSnapshot:   v.SizeLabel,
				UnitPrice:           p.Price,
				Quantity:            ln.Quantity,
			})
			subtotal += p.Price * ln.Quantity
		}

		if in.Discount > subtotal {
			return NewHTTPError(http.StatusBadRequest, "invalid discount")
		}
		totals, err := u.pricing.Totals(subtotal, in.Discount)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "invalid totals")
		}

		now := u.clock.Now()
		order := model.Order{
			UserID:         userID,
			Currency:       currency,
			Status:         model.OrderStatusPending,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		order.ApplyTotals(totals)

		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicate) {
			return errIdempotencyRace
		}
		if err != nil {
			return err
		}
		order.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = orderID
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		return u.findByKey(ctx, userID, key)
	}
	if err != nil {
		if ise, ok := AsInsufficientStock(err); ok {
			u.log.InfoContext(ctx, "checkout rejected: insufficient stock",
				"user_id", userID, "size_variant_id", ise.SizeVariantID, "requested", ise.Requested)
		}
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "checkout placed order", "user_id", userID, "order_id", out.ID, "total", out.Total)
	return out, nil
}

func (u *CheckoutUsecase) findByKey(ctx context.Context, userID int64, key string) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if !found {
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 同じサイズはまとめ、ID順に並べる（行ロックの順番を揃えてデッドロックを避ける）
func normalizeLines(lines []CheckoutLine) ([]CheckoutLine, error) {
	if len(lines) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "no items")
	}
	if len(lines) > maxCheckoutLines {
		return nil, NewHTTPError(http.StatusBadRequest, "too many items")
	}

	merged := map[int64]int64{}
	for _, ln := range lines {
		if ln.SizeVariantID <= 0 {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid size_variant_id")
		}
		if ln.Quantity <= 0 || ln.Quantity > maxLineQuantity {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		merged[ln.SizeVariantID] += ln.Quantity
	}

	out := make([]CheckoutLine, 0, len(merged))
	for id, qty := range merged {
		if qty > maxLineQuantity {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		out = append(out, CheckoutLine{SizeVariantID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SizeVariantID < out[j].SizeVariantID })
	return out, nil
}
