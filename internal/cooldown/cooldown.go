// Package cooldown derives the rate-limit back-off shown to the user from the latest outcome.
package cooldown

import (
	"fmt"
	"math"
	"time"

	"careertools/internal/orchestrator"
)

// DefaultWindow is the back-off assumed when a rate-limited response carries no hint
const DefaultWindow = 60 * time.Second

// State mirrors the most recent RateLimited outcome; the zero value means no cooldown
type State struct {
	IsRateLimited     bool       `json:"isRateLimited"`
	RetryAfterSeconds *int       `json:"retryAfterSeconds,omitempty"`
	ResetAt           *time.Time `json:"resetAt,omitempty"`
	ObservedAt        time.Time  `json:"observedAt,omitzero"`
}

// Apply returns the state implied by outcome. Hints are copied as received.
func Apply(outcome orchestrator.Outcome, now time.Time) State {
	rl, ok := outcome.(orchestrator.RateLimited)
	if !ok {
		return State{}
	}
	s := State{IsRateLimited: true, ObservedAt: now}
	if rl.RetryAfterSeconds != nil {
		secs := *rl.RetryAfterSeconds
		s.RetryAfterSeconds = &secs
	}
	if rl.ResetAt != nil {
		at := *rl.ResetAt
		s.ResetAt = &at
	}
	return s
}

// Until returns the instant the cooldown ends
func (s State) Until() time.Time {
	switch {
	case !s.IsRateLimited:
		return time.Time{}
	case s.RetryAfterSeconds != nil:
		return s.ObservedAt.Add(time.Duration(*s.RetryAfterSeconds) * time.Second)
	case s.ResetAt != nil:
		return *s.ResetAt
	}
	return s.ObservedAt.Add(DefaultWindow)
}

// Remaining returns how long is left, never negative
func (s State) Remaining(now time.Time) time.Duration {
	if !s.IsRateLimited {
		return 0
	}
	return max(s.Until().Sub(now), 0)
}

// Active reports whether submission should stay disabled at now
func (s State) Active(now time.Time) bool {
	return s.Remaining(now) > 0
}

// Describe renders the countdown phrase, e.g. "try again in 1 minute"
func (s State) Describe(now time.Time) string {
	remaining := s.Remaining(now)
	if remaining <= 0 {
		return "you can try again now"
	}
	return "try again in " + humanDuration(remaining)
}

func humanDuration(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	switch {
	case secs < 60:
		return plural(secs, "second")
	case secs < 3600:
		return plural((secs+59)/60, "minute")
	}
	return plural((secs+3599)/3600, "hour")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
