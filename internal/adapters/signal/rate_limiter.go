package signal

import (
	"sync"

	"github.com/dkeye/Conference/internal/core"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per connection.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[core.ConnID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[core.ConnID]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    max(burst, 1),
	}
}

// Allow reports whether conn may send one more message now. A zero limit
// disables limiting.
func (rl *RateLimiter) Allow(conn core.ConnID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	l, ok := rl.limiters[conn]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[conn] = l
	}
	rl.mu.Unlock()
	return l.Allow()
}

func (rl *RateLimiter) Forget(conn core.ConnID) {
	rl.mu.Lock()
	delete(rl.limiters, conn)
	rl.mu.Unlock()
}
