package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Cooldown applies a fixed suspension after each throttled response and
// keeps the resulting ThrottleState.
type Cooldown struct {
	duration time.Duration
	sleep    SleepFunc
	now      func() time.Time
	logger   zerolog.Logger

	mu    sync.Mutex
	state ThrottleState
}

// NewCooldown creates a cooldown. A nil sleep uses Sleep.
func NewCooldown(d time.Duration, sleep SleepFunc, logger zerolog.Logger) *Cooldown {
	if sleep == nil {
		sleep = Sleep
	}
	return &Cooldown{
		duration: d,
		sleep:    sleep,
		now:      time.Now,
		logger:   logger,
	}
}

// Duration returns the fixed cooldown length.
func (c *Cooldown) Duration() time.Duration {
	return c.duration
}

// Wait records a throttle on page and suspends for the cooldown.
func (c *Cooldown) Wait(ctx context.Context, page int) error {
	now := c.now()

	c.mu.Lock()
	c.state.Throttles++
	c.state.LastThrottleAt = now
	c.state.LastThrottledPage = page
	c.state.CooldownUntil = now.Add(c.duration)
	throttles := c.state.Throttles
	c.mu.Unlock()

	throttlesTotal.Inc()
	cooldownSeconds.Add(c.duration.Seconds())

	c.logger.Warn().
		Int("page", page).
		Int("throttles", throttles).
		Dur("cooldown", c.duration).
		Msg("Upstream rate limit reached, cooling down before retry")

	return c.sleep(ctx, c.duration)
}

// State returns a snapshot of the throttle state.
func (c *Cooldown) State() ThrottleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
