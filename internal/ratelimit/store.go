package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// Storeはクライアント単位のレートリミッタを持つ。
// 上限数を超えたら最も古く使われたものから捨て、IdleTTL使われなかったものは消える。
// echoの middleware.RateLimiterStore を満たす。
type Store struct {
	rate  rate.Limit
	burst int
	now   func() time.Time

	// 取得と作成をまとめて行うためのロック（LRU自体はスレッドセーフ）
	mu    sync.Mutex
	cache *expirable.LRU[string, *rate.Limiter]

	closeOnce sync.Once
}

type Options struct {
	RPS      float64
	Burst    int
	Capacity int
	IdleTTL  time.Duration
	// トークン計算に使う時刻。テスト用
	Now func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		rate:  rate.Limit(opts.RPS),
		burst: opts.Burst,
		now:   opts.Now,
		cache: expirable.NewLRU[string, *rate.Limiter](opts.Capacity, nil, opts.IdleTTL),
	}
}

func (s *Store) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.cache.Get(identifier)
	if !ok {
		lim = rate.NewLimiter(s.rate, s.burst)
	}
	// Addし直して期限を延ばす
	s.cache.Add(identifier, lim)
	return lim.AllowN(s.now(), 1), nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Close は保持しているリミッタを捨てる。複数回呼んでもよい。
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.cache.Purge()
	})
}
