package memory

import (
	"context"
	"sort"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// txReposは作業コピーに対して読み書きする。ロックはWithinTxが持っている。
type txRepos struct {
	st  *state
	now func() time.Time
}

func (r *txRepos) Orders() repo.OrderRepository           { return &orderRepo{r} }
func (r *txRepos) OrderItems() repo.OrderItemRepository   { return &orderItemRepo{r} }
func (r *txRepos) OrderEvents() repo.OrderEventRepository { return &orderEventRepo{r} }
func (r *txRepos) Inventory() repo.InventoryRepository    { return &inventoryRepo{r} }
func (r *txRepos) Products() repo.ProductRepository       { return &productRepo{r} }

type orderRepo struct{ *txRepos }

func (r *orderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.st.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

// 全体ロック中なのでFindByIDと同じ
func (r *orderRepo) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	uid := userID
	return r.list(repo.AdminOrderListFilter{Page: page, Limit: limit, UserID: &uid})
}

func (r *orderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	for _, o := range r.st.orders {
		if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return 0, repo.ErrDuplicate
		}
	}
	order.ID = r.st.nextID()
	now := r.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	r.st.orders[order.ID] = order
	return order.ID, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, at time.Time) error {
	o, ok := r.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if o.Status != from {
		return repo.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = at
	switch to {
	case model.OrderStatusPaid:
		if o.PaidAt == nil {
			t := at
			o.PaidAt = &t
		}
	case model.OrderStatusCancelled:
		if o.CancelledAt == nil {
			t := at
			o.CancelledAt = &t
		}
	}
	r.st.orders[orderID] = o
	return nil
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	for _, o := range r.st.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r *orderRepo) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return r.list(f)
}

// id降順でページング
func (r *orderRepo) list(f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	all := make([]model.Order, 0, len(r.st.orders))
	for _, o := range r.st.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type orderItemRepo struct{ *txRepos }

func (r *orderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.ID = r.st.nextID()
		it.OrderID = orderID
		if it.CreatedAt.IsZero() {
			it.CreatedAt = r.now()
		}
		r.st.items[orderID] = append(r.st.items[orderID], it)
	}
	return nil
}

func (r *orderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem{}, r.st.items[orderID]...), nil
}

type orderEventRepo struct{ *txRepos }

func (r *orderEventRepo) Append(ctx context.Context, e model.OrderEvent) (model.OrderEvent, error) {
	e = e.Clone()
	e.ID = r.st.nextID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	r.st.events = append(r.st.events, e)
	return e.Clone(), nil
}

func (r *orderEventRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	out := []model.OrderEvent{}
	for _, e := range r.st.events {
		if e.OrderID == orderID {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type inventoryRepo struct{ *txRepos }

func (r *inventoryRepo) FindByID(ctx context.Context, sizeVariantID int64) (model.SizeVariant, error) {
	v, ok := r.st.variants[sizeVariantID]
	if !ok {
		return model.SizeVariant{}, repo.ErrNotFound
	}
	return v, nil
}

// 全体ロック中の check-and-set なので gorm 実装の条件付きUPDATEと同じ結果になる
func (r *inventoryRepo) DecrementIfEnough(ctx context.Context, sizeVariantID int64, qty int64) (int64, error) {
	v, ok := r.st.variants[sizeVariantID]
	if !ok || v.Stock < qty {
		return 0, nil
	}
	v.Stock -= qty
	v.UpdatedAt = r.now()
	r.st.variants[sizeVariantID] = v
	return 1, nil
}

func (r *inventoryRepo) IncreaseStock(ctx context.Context, sizeVariantID int64, qty int64) error {
	v, ok := r.st.variants[sizeVariantID]
	if !ok {
		return repo.ErrNotFound
	}
	v.Stock += qty
	v.UpdatedAt = r.now()
	r.st.variants[sizeVariantID] = v
	return nil
}

func (r *inventoryRepo) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	adj.ID = r.st.nextID()
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = r.now()
	}
	r.st.adjustments = append(r.st.adjustments, adj)
	return nil
}

type productRepo struct{ *txRepos }

func (r *productRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}
