// Package ratelimit implements an in-memory sliding-window request counter.
// It guards the auth endpoints from brute force. State is per-process;
// a multi-instance deployment would need a shared store behind the same
// interface.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Result is the outcome of a single attempt.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the current window expires. Only
	// meaningful when Allowed is false.
	RetryAfter time.Duration
}

type entry struct {
	count       int
	windowStart time.Time
	lastAccess  time.Time
}

// Limiter counts attempts per client identifier within a rolling window.
// Entries idle longer than idleTTL are removed by a background sweep so
// one-off identifiers don't accumulate forever.
type Limiter struct {
	window        time.Duration
	maxAttempts   int
	idleTTL       time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry

	cancel context.CancelFunc
	done   chan struct{}

	// test hook
	now func() time.Time
}

// New creates a limiter. Start must be called to enable the background sweep.
func New(window time.Duration, maxAttempts int, idleTTL, sweepInterval time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		window:        window,
		maxAttempts:   maxAttempts,
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		logger:        logger,
		entries:       make(map[string]*entry),
		now:           time.Now,
	}
}

// CheckAndRecord records an attempt for clientID and reports whether it is
// allowed. Denied attempts do not consume window budget; lastAccess is
// updated either way so active abusers are never garbage collected early.
func (l *Limiter) CheckAndRecord(clientID string) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[clientID]
	if !ok {
		l.entries[clientID] = &entry{count: 1, windowStart: now, lastAccess: now}
		return Result{Allowed: true, Remaining: l.maxAttempts - 1}
	}

	e.lastAccess = now

	if now.Sub(e.windowStart) > l.window {
		e.count = 1
		e.windowStart = now
		return Result{Allowed: true, Remaining: l.maxAttempts - 1}
	}

	if e.count >= l.maxAttempts {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: e.windowStart.Add(l.window).Sub(now),
		}
	}

	e.count++
	return Result{Allowed: true, Remaining: l.maxAttempts - e.count}
}

// Start launches the background sweep. It runs until Stop is called or the
// context is canceled.
func (l *Limiter) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(l.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := l.sweep(l.now())
				if removed > 0 {
					l.logger.Debug("rate limiter sweep", "removed", removed)
				}
			}
		}
	}()
}

// Stop halts the background sweep and waits for it to exit.
func (l *Limiter) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

// sweep removes entries idle longer than idleTTL and returns the count.
func (l *Limiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.entries {
		if now.Sub(e.lastAccess) > l.idleTTL {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// size returns the number of tracked identifiers.
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
