package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const maxRestockDelta = 1_000_000

// 入荷などの在庫追加。減算はInventoryLedgerだけが行う。
type AdminInventoryUsecase struct {
	tx     repo.TransactionManager
	ledger *InventoryLedger
	clock  Clock
	log    *slog.Logger
}

func NewAdminInventoryUsecase(tx repo.TransactionManager, ledger *InventoryLedger, clock Clock, log *slog.Logger) *AdminInventoryUsecase {
	return &AdminInventoryUsecase{tx: tx, ledger: ledger, clock: clock, log: log}
}

type RestockInput struct {
	Delta  int64
	Reason string
}

type SizeVariantOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	SizeLabel string `json:"size_label"`
	Stock     int64  `json:"stock"`
}

// 在庫を増やし、調整履歴も残す
func (u *AdminInventoryUsecase) Restock(ctx context.Context, actor model.Actor, sizeVariantID int64, in RestockInput) (SizeVariantOutput, error) {
	if actor.UserID <= 0 {
		return SizeVariantOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return SizeVariantOutput{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if sizeVariantID <= 0 {
		return SizeVariantOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Delta <= 0 || in.Delta > maxRestockDelta {
		return SizeVariantOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delta")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > maxReasonLen {
		return SizeVariantOutput{}, NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	var out SizeVariantOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := u.ledger.ReleaseStock(ctx, r, sizeVariantID, in.Delta); err != nil {
			return err
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			SizeVariantID: sizeVariantID,
			AdminUserID:   actor.UserID,
			Delta:         in.Delta,
			Reason:        reason,
			CreatedAt:     u.clock.Now(),
		}); err != nil {
			return err
		}

		v, err := r.Inventory().FindByID(ctx, sizeVariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("size variant", sizeVariantID)
		}
		if err != nil {
			return err
		}
		out = SizeVariantOutput{ID: v.ID, ProductID: v.ProductID, SizeLabel: v.SizeLabel, Stock: v.Stock}
		return nil
	})
	if err != nil {
		return SizeVariantOutput{}, err
	}

	u.log.InfoContext(ctx, "restocked size variant",
		"size_variant_id", sizeVariantID, "delta", in.Delta, "stock", out.Stock, "admin_id", actor.UserID)
	return out, nil
}
