package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/paramedico/console/core/inquiry"
)

var nowFunc = time.Now // mockable

// MemoryLimiter is the in-process version of RedisLimiter, used when no Redis server is configured.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	windows   map[string]*window
	nextSweep time.Time
}

type window struct {
	hits    int
	expires time.Time
}

var _ inquiry.Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limit int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: win, windows: make(map[string]*window)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := nowFunc()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(l.window)}
		l.windows[key] = w
	}
	w.hits++
	return w.hits <= l.limit, nil
}

// sweep drops expired windows, at most once per window length.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if !now.Before(w.expires) {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(l.window)
}
