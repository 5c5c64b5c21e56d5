package grpc

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedNames caps the limiter map; past it the map starts over.
const maxTrackedNames = 10000

type nameLimiter struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	byName map[string]*rate.Limiter
}

func newNameLimiter(perSecond float64, burst int) *nameLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &nameLimiter{
		limit:  rate.Limit(perSecond),
		burst:  burst,
		byName: make(map[string]*rate.Limiter),
	}
}

// allow reports whether one more request for name fits. A nil limiter
// allows everything.
func (l *nameLimiter) allow(name string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	lim, ok := l.byName[name]
	if !ok {
		if len(l.byName) >= maxTrackedNames {
			clear(l.byName)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.byName[name] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
