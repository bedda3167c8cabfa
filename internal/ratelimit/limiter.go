package ratelimit

import (
	"sync"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
)

// Quota is the admission budget for one service: Limit requests per
// subject within each fixed Window.
type Quota struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type window struct {
	mutex sync.Mutex
	start time.Time
	count int
}

type key struct {
	subject string
	service string
}

// Limiter applies fixed-window counting per (subject, service) pair.
// Each pair has its own window and lock, so admission for one service
// never blocks admission for another.
type Limiter struct {
	mutex   sync.RWMutex
	clock   clock.Clock
	quotas  map[string]Quota
	windows map[key]*window
}

func New(clk clock.Clock, quotas map[string]Quota) *Limiter {
	q := make(map[string]Quota, len(quotas))
	for service, quota := range quotas {
		q[service] = quota
	}

	return &Limiter{
		clock:   clk,
		quotas:  q,
		windows: make(map[key]*window),
	}
}

// Allow performs an atomic check-then-increment for one request. If the
// window for the pair is missing or has expired, a fresh one starts at
// now. A request past the limit is rejected and not counted.
//
// A service with no configured quota is always admitted.
func (l *Limiter) Allow(subject, service string) Decision {
	quota, ok := l.quotas[service]
	if !ok || quota.Limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}
	}

	w := l.getWindow(key{subject: subject, service: service})

	w.mutex.Lock()
	defer w.mutex.Unlock()

	now := l.clock.Now()
	if w.start.IsZero() || now.Sub(w.start) >= quota.Window {
		w.start = now
		w.count = 0
	}

	resetAt := w.start.Add(quota.Window)

	if w.count >= quota.Limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	w.count++
	return Decision{
		Allowed:   true,
		Remaining: quota.Limit - w.count,
		ResetAt:   resetAt,
	}
}

// Quota returns the configured quota for a service.
func (l *Limiter) Quota(service string) (Quota, bool) {
	q, ok := l.quotas[service]
	return q, ok
}

func (l *Limiter) getWindow(k key) *window {
	l.mutex.RLock()
	w, exists := l.windows[k]
	l.mutex.RUnlock()

	if exists {
		return w
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if w, exists = l.windows[k]; exists {
		return w
	}

	w = &window{}
	l.windows[k] = w
	return w
}
