// Package ratelimit provides per-client token bucket limiting shared by the
// HTTP and RESP servers.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/tasklist-go/pkg/cmap"
)

// DefaultIdle is how long an unused client limiter is kept.
const DefaultIdle = 5 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// Limiter holds one token bucket per client key, usually an IP.
type Limiter struct {
	limit    rate.Limit
	burst    int
	limiters *cmap.Map[*clientLimiter]
	now      func() time.Time
}

// New creates a limiter allowing rps events per second per client with the
// given burst. A burst below 1 is raised to 1.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: cmap.New[*clientLimiter](),
		now:      time.Now,
	}
}

func (l *Limiter) get(key string) *clientLimiter {
	e, _ := l.limiters.GetOrCompute(key, func() *clientLimiter {
		return &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	e.lastSeen.Store(l.now().UnixNano())
	return e
}

// Allow reports whether an event from key may happen now.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Reserve(key)
	return ok
}

// Reserve takes one token for key. When none is available it returns false
// and how long the client should wait; the reservation is not kept.
func (l *Limiter) Reserve(key string) (bool, time.Duration) {
	e := l.get(key)
	now := l.now()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	return l.limiters.Count()
}

// Sweep drops limiters idle for longer than idle and returns how many were dropped.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()
	removed := 0
	for _, key := range l.limiters.Keys() {
		if l.limiters.DeleteIf(key, func(e *clientLimiter) bool {
			return e.lastSeen.Load() < cutoff
		}) {
			removed++
		}
	}
	return removed
}

// Run sweeps idle limiters every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(DefaultIdle)
		}
	}
}
