package cooldown

import (
	"testing"
	"time"

	"careertools/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seconds(v int) *int { return &v }

func TestApplyCopiesHintsVerbatim(t *testing.T) {
	s := Apply(orchestrator.RateLimited{RetryAfterSeconds: seconds(120)}, now)

	assert.True(t, s.IsRateLimited)
	require.NotNil(t, s.RetryAfterSeconds)
	assert.Equal(t, 120, *s.RetryAfterSeconds)
	assert.Nil(t, s.ResetAt)
	assert.Equal(t, now, s.ObservedAt)
}

func TestApplyClearsOnAnyOtherOutcome(t *testing.T) {
	others := []orchestrator.Outcome{
		orchestrator.Success{},
		orchestrator.ValidationError{Message: "bad"},
		orchestrator.ServerError{Message: "down"},
		orchestrator.Aborted{Reason: orchestrator.AbortTimeout},
	}
	for _, o := range others {
		s := Apply(o, now)
		assert.Equal(t, State{}, s, "outcome %s", o.Tag())
		assert.False(t, s.Active(now))
	}
}

func TestApplyDoesNotAliasOutcome(t *testing.T) {
	hint := 30
	reset := now.Add(time.Minute)
	s := Apply(orchestrator.RateLimited{RetryAfterSeconds: &hint, ResetAt: &reset}, now)

	hint = 999
	reset = reset.Add(time.Hour)
	assert.Equal(t, 30, *s.RetryAfterSeconds)
	assert.Equal(t, now.Add(time.Minute), *s.ResetAt)
}

func TestRemainingAndActive(t *testing.T) {
	reset := now.Add(45 * time.Second)
	tests := []struct {
		name      string
		state     State
		at        time.Time
		remaining time.Duration
	}{
		{"retry after", Apply(orchestrator.RateLimited{RetryAfterSeconds: seconds(60)}, now), now.Add(15 * time.Second), 45 * time.Second},
		{"reset only", Apply(orchestrator.RateLimited{ResetAt: &reset}, now), now, 45 * time.Second},
		{"no hints", Apply(orchestrator.RateLimited{}, now), now, DefaultWindow},
		{"expired", Apply(orchestrator.RateLimited{RetryAfterSeconds: seconds(10)}, now), now.Add(time.Minute), 0},
		{"cleared", State{}, now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.remaining, tt.state.Remaining(tt.at))
			assert.Equal(t, tt.remaining > 0, tt.state.Active(tt.at))
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{1, "try again in 1 second"},
		{45, "try again in 45 seconds"},
		{60, "try again in 1 minute"},
		{90, "try again in 2 minutes"},
		{120, "try again in 2 minutes"},
		{3600, "try again in 1 hour"},
	}
	for _, tt := range tests {
		s := Apply(orchestrator.RateLimited{RetryAfterSeconds: seconds(tt.secs)}, now)
		assert.Equal(t, tt.want, s.Describe(now))
	}
	assert.Equal(t, "you can try again now", State{}.Describe(now))
}
