// Package ratelimit paces upstream requests to a fixed requests-per-second
// ceiling and applies a fixed cooldown after the upstream throttles us.
package ratelimit

import (
	"time"
)

// Defaults matching the public Jikan limits (3 requests/second,
// 60 requests/minute).
const (
	// DefaultRequestsPerSecond is the steady-state request ceiling.
	DefaultRequestsPerSecond = 3.0

	// DefaultCooldown is how long the whole pager is suspended after a 429.
	// It is 180 intervals at the default rate, long enough for the
	// per-minute window to drain.
	DefaultCooldown = 60 * time.Second
)

// ThrottleState describes throttling observed during a run.
type ThrottleState struct {
	// Throttles is the number of 429 responses seen.
	Throttles int `json:"throttles"`

	// LastThrottleAt is when the most recent 429 arrived.
	LastThrottleAt time.Time `json:"last_throttle_at,omitempty"`

	// LastThrottledPage is the page that received the most recent 429.
	LastThrottledPage int `json:"last_throttled_page,omitempty"`

	// CooldownUntil is when the current (or last) cooldown ends.
	CooldownUntil time.Time `json:"cooldown_until,omitempty"`
}

// InCooldown reports whether a cooldown is still running at now.
func (s ThrottleState) InCooldown(now time.Time) bool {
	return now.Before(s.CooldownUntil)
}

// Remaining returns how long the cooldown has left at now.
// Returns 0 if no cooldown is running.
func (s ThrottleState) Remaining(now time.Time) time.Duration {
	d := s.CooldownUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IntervalFor returns the minimum spacing between request starts for a
// requests-per-second ceiling. A non-positive rate means no pacing.
func IntervalFor(rps float64) time.Duration {
	if rps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rps)
}
