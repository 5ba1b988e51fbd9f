package memory

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// Storeはプロセス内のストレージ（開発・テスト用）。
// WithinTxは全体ロックで直列化し、作業コピーに書いて成功時だけ差し替える。
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

type state struct {
	seq         int64
	orders      map[int64]model.Order
	items       map[int64][]model.OrderItem
	events      []model.OrderEvent
	variants    map[int64]model.SizeVariant
	products    map[int64]model.Product
	users       map[int64]model.User
	adjustments []model.InventoryAdjustment
}

func NewStore() *Store {
	return &Store{
		st: &state{
			orders:   map[int64]model.Order{},
			items:    map[int64][]model.OrderItem{},
			variants: map[int64]model.SizeVariant{},
			products: map[int64]model.Product{},
			users:    map[int64]model.User{},
		},
		now: time.Now,
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	cp := &state{
		seq:         s.seq,
		orders:      make(map[int64]model.Order, len(s.orders)),
		items:       make(map[int64][]model.OrderItem, len(s.items)),
		events:      make([]model.OrderEvent, len(s.events)),
		variants:    make(map[int64]model.SizeVariant, len(s.variants)),
		products:    make(map[int64]model.Product, len(s.products)),
		users:       make(map[int64]model.User, len(s.users)),
		adjustments: make([]model.InventoryAdjustment, len(s.adjustments)),
	}
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	for k, v := range s.items {
		cp.items[k] = append([]model.OrderItem(nil), v...)
	}
	for i, e := range s.events {
		cp.events[i] = e.Clone()
	}
	for k, v := range s.variants {
		cp.variants[k] = v
	}
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	copy(cp.adjustments, s.adjustments)
	return cp
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txRepos{st: work, now: s.now}); err != nil {
		return err
	}
	// コミット前にキャンセルされていたら捨てる
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// --- 初期データ投入（開発・テスト用） ---

func (s *Store) PutProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.st.nextID()
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.st.products[p.ID] = p
	return p
}

func (s *Store) PutSizeVariant(v model.SizeVariant) model.SizeVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.st.nextID()
	}
	now := s.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	s.st.variants[v.ID] = v
	return v
}

func (s *Store) PutUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.st.nextID()
	}
	s.st.users[u.ID] = u
	return u
}

// Stockはコミット済みの在庫数を返す
func (s *Store) Stock(sizeVariantID int64) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.st.variants[sizeVariantID]
	return v.Stock, ok
}

func (s *Store) Adjustments() []model.InventoryAdjustment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.InventoryAdjustment(nil), s.st.adjustments...)
}

// Usersはトランザクション外で読む
func (s *Store) Users() repo.UserRepository {
	return &userRepo{s: s}
}

type userRepo struct {
	s *Store
}

func (r *userRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.st.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}
