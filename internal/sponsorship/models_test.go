package sponsorship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActiveAtAndDaysLeft(t *testing.T) {
	start := t0
	s := Sponsorship{Status: StatusActive, DurationDays: 3, StartTimestamp: &start}

	end, ok := s.EndTimestamp()
	assert.True(t, ok)
	assert.True(t, end.Equal(t0.Add(72*time.Hour)))

	assert.True(t, s.ActiveAt(t0))
	assert.False(t, s.ActiveAt(end))
	assert.Equal(t, 3, s.DaysLeft(t0))
	assert.Equal(t, 3, s.DaysLeft(t0.Add(time.Hour)))
	assert.Equal(t, 1, s.DaysLeft(end.Add(-time.Minute)))
	assert.Equal(t, 0, s.DaysLeft(end))

	pending := Sponsorship{Status: StatusPending, DurationDays: 3}
	_, ok = pending.EndTimestamp()
	assert.False(t, ok)
	assert.False(t, pending.ActiveAt(t0))
	assert.Equal(t, 0, pending.DaysLeft(t0))

	// a pending row that somehow kept a start is still invisible
	stale := Sponsorship{Status: StatusPending, DurationDays: 3, StartTimestamp: &start}
	assert.False(t, stale.ActiveAt(t0.Add(time.Hour)))
}
