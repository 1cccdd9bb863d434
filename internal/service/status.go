package service

import "time"

// State of the catalog service.
type State string

const (
	StateIdle      State = "idle"
	StateHit       State = "hit"
	StateFetching  State = "fetching"
	StatePersisted State = "persisted"
	StateFailed    State = "failed"
)

// Status is a point-in-time view of the service for the status endpoint.
type Status struct {
	State          State      `json:"state"`
	RunID          string     `json:"run_id,omitempty"`
	PagesFetched   int        `json:"pages_fetched"`
	TotalPages     int        `json:"total_pages"`
	Records        int        `json:"records"`
	Throttles      int        `json:"throttles"`
	LastThrottleAt *time.Time `json:"last_throttle_at,omitempty"`
	CooldownUntil  *time.Time `json:"cooldown_until,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	StartedAt      time.Time  `json:"started_at,omitzero"`
	FinishedAt     time.Time  `json:"finished_at,omitzero"`
}

// InCooldown reports whether a run is currently suspended after a throttle.
func (s Status) InCooldown(now time.Time) bool {
	return s.State == StateFetching && s.CooldownUntil != nil && now.Before(*s.CooldownUntil)
}
