package service

import (
	"sync"
	"time"

	"github.com/linklite/linklite/internal/domain"
)

type attemptState struct {
	count       int
	lockedUntil time.Time
}

// LockoutGuard rate-limits password attempts per short code. Once a
// code accumulates maxAttempts consecutive failures it stays locked for
// the window, after which the count starts over. The guard serializes
// updates so concurrent failures can't undercount.
type LockoutGuard struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	clock       domain.Clock
	states      map[string]*attemptState
}

func NewLockoutGuard(maxAttempts int, window time.Duration, clock domain.Clock) *LockoutGuard {
	return &LockoutGuard{
		maxAttempts: maxAttempts,
		window:      window,
		clock:       clock,
		states:      make(map[string]*attemptState),
	}
}

// Locked reports whether the code is currently locked and how long the
// lock has left. An elapsed lock resets the attempt count.
func (g *LockoutGuard) Locked(code string) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lockedLocked(code)
}

// Fail records one failed attempt and reports whether it tipped the
// code into a lock.
func (g *LockoutGuard) Fail(code string) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if remaining, locked := g.lockedLocked(code); locked {
		return remaining, true
	}

	state := g.states[code]
	if state == nil {
		state = &attemptState{}
		g.states[code] = state
	}

	state.count++
	if state.count >= g.maxAttempts {
		state.lockedUntil = g.clock.Now().Add(g.window)
		return g.window, true
	}

	return 0, false
}

// Reset clears the attempt state after a successful verification.
func (g *LockoutGuard) Reset(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, code)
}

func (g *LockoutGuard) lockedLocked(code string) (time.Duration, bool) {
	state := g.states[code]
	if state == nil || state.count < g.maxAttempts {
		return 0, false
	}

	now := g.clock.Now()
	if !now.Before(state.lockedUntil) {
		delete(g.states, code)
		return 0, false
	}

	return state.lockedUntil.Sub(now), true
}
