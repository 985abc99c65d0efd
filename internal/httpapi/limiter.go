package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet keeps one token bucket per session.
type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLimiterSet(perSecond float64, burst int) *limiterSet {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &limiterSet{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *limiterSet) allow(sessionID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[sessionID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[sessionID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *limiterSet) forget(sessionID string) {
	l.mu.Lock()
	delete(l.limiters, sessionID)
	l.mu.Unlock()
}
