package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterRepo keeps one token bucket per client key. A non-positive rate disables it.
type limiterRepo struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	nowTime func() time.Time
}

func newLimiterRepo(perSecond float64, burst int) *limiterRepo {
	return &limiterRepo{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		nowTime: time.Now,
	}
}

func (r *limiterRepo) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}
	now := r.nowTime()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		r.sweep(now)
		e = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for longer than limiterIdleTTL. Caller holds mu.
func (r *limiterRepo) sweep(now time.Time) {
	for k, e := range r.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(r.entries, k)
		}
	}
}
