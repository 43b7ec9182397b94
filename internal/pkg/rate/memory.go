package rate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type memoryWindow struct {
	count   atomic.Int64
	resetAt atomic.Int64 // unix nano of the window end
}

// Memory is an in-process Limiter for single-instance deployments and tests.
//
// Counters are advanced with atomic operations only; the map is guarded for
// insertion but never for the hot increment path.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	cfg     Config
	now     func() time.Time
}

// NewMemory creates an in-memory fixed-window limiter.
func NewMemory(cfg Config, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}

	return &Memory{
		windows: make(map[string]*memoryWindow),
		cfg:     cfg,
		now:     now,
	}
}

// Allow consumes one unit of budget for key.
func (l *Memory) Allow(_ context.Context, key string) error {
	w := l.window(key)
	nowNano := l.now().UnixNano()

	// Roll the window over when it has elapsed. The CAS makes sure exactly
	// one caller performs the rollover.
	if resetAt := w.resetAt.Load(); nowNano >= resetAt {
		if w.resetAt.CompareAndSwap(resetAt, nowNano+l.cfg.Window.Nanoseconds()) {
			w.count.Store(0)
		}
	}

	if w.count.Inc() > int64(l.cfg.Max) {
		return ErrLimited
	}

	return nil
}

// Reset clears the counter for key.
func (l *Memory) Reset(_ context.Context, key string) error {
	l.window(key).count.Store(0)
	return nil
}

func (l *Memory) window(key string) *memoryWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &memoryWindow{}
		w.resetAt.Store(l.now().Add(l.cfg.Window).UnixNano())
		l.windows[key] = w
	}

	return w
}
