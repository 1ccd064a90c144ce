package service

import (
	"testing"
	"time"

	"github.com/linklite/linklite/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestLockoutGuard_LocksAfterMaxAttempts(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	guard := NewLockoutGuard(5, 30*time.Minute, clock)

	for i := 0; i < 4; i++ {
		_, locked := guard.Fail("abc123")
		assert.False(t, locked, "attempt %d should not lock", i+1)
	}

	remaining, locked := guard.Fail("abc123")
	assert.True(t, locked)
	assert.Equal(t, 30*time.Minute, remaining)

	remaining, locked = guard.Locked("abc123")
	assert.True(t, locked)
	assert.Equal(t, 30*time.Minute, remaining)
}

func TestLockoutGuard_RemainingShrinksWithTime(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	guard := NewLockoutGuard(5, 30*time.Minute, clock)

	for i := 0; i < 5; i++ {
		guard.Fail("abc123")
	}

	clock.Advance(10 * time.Minute)

	remaining, locked := guard.Locked("abc123")
	assert.True(t, locked)
	assert.Equal(t, 20*time.Minute, remaining)
}

func TestLockoutGuard_WindowElapsedResetsCount(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	guard := NewLockoutGuard(5, 30*time.Minute, clock)

	for i := 0; i < 5; i++ {
		guard.Fail("abc123")
	}

	clock.Advance(30 * time.Minute)

	_, locked := guard.Locked("abc123")
	assert.False(t, locked)

	// Counting starts over after the window, not from five.
	_, locked = guard.Fail("abc123")
	assert.False(t, locked)
}

func TestLockoutGuard_ResetClearsAttempts(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	guard := NewLockoutGuard(5, 30*time.Minute, clock)

	for i := 0; i < 4; i++ {
		guard.Fail("abc123")
	}

	guard.Reset("abc123")

	_, locked := guard.Fail("abc123")
	assert.False(t, locked)
}

func TestLockoutGuard_TracksCodesIndependently(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	guard := NewLockoutGuard(5, 30*time.Minute, clock)

	for i := 0; i < 5; i++ {
		guard.Fail("locked")
	}

	_, locked := guard.Locked("locked")
	assert.True(t, locked)

	_, locked = guard.Locked("other")
	assert.False(t, locked)
}

func TestLockoutGuard_FailWhileLockedKeepsLock(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	guard := NewLockoutGuard(5, 30*time.Minute, clock)

	for i := 0; i < 5; i++ {
		guard.Fail("abc123")
	}

	clock.Advance(5 * time.Minute)

	remaining, locked := guard.Fail("abc123")
	assert.True(t, locked)
	assert.Equal(t, 25*time.Minute, remaining)
}
