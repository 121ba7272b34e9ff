package sponsorship

import (
	"math"
	"time"

	"github.com/i474232898/raincheck/internal/store"
	"github.com/i474232898/raincheck/internal/weather"
)

// Status is the stored lifecycle state. Rejected sponsorships are deleted and
// expiry is derived from the active window, so neither has a status value.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

const day = 24 * time.Hour

// Sponsorship is a paid, time-boxed custom message tied to one weather category.
type Sponsorship struct {
	ID             string       `json:"id"`
	Sponsor        string       `json:"sponsor"`
	Message        string       `json:"message"`
	WeatherType    weather.Type `json:"weather_type"`
	DurationDays   int          `json:"duration_days"`
	Price          float64      `json:"price"`
	Status         Status       `json:"status"`
	StartTimestamp *time.Time   `json:"start_timestamp"`
	CreatedAt      time.Time    `json:"created_at"`

	// Origin reports whether the last write reached the remote store or only the local one.
	Origin store.Origin `json:"-"`
}

// EndTimestamp is the exclusive end of the active window; false until approved.
func (s Sponsorship) EndTimestamp() (time.Time, bool) {
	if s.StartTimestamp == nil {
		return time.Time{}, false
	}
	return s.StartTimestamp.Add(time.Duration(s.DurationDays) * day), true
}

// ActiveAt reports whether the sponsorship is approved and now falls in [start, start+duration).
func (s Sponsorship) ActiveAt(now time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	end, ok := s.EndTimestamp()
	if !ok {
		return false
	}
	return !now.Before(*s.StartTimestamp) && now.Before(end)
}

// DaysLeft rounds the remaining window up to whole days; 0 once expired or not yet approved.
func (s Sponsorship) DaysLeft(now time.Time) int {
	end, ok := s.EndTimestamp()
	if !ok || !now.Before(end) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// Sponsored is what the display layer receives for a matching sponsorship.
type Sponsored struct {
	Message   string `json:"message"`
	Sponsor   string `json:"sponsor"`
	Sponsored bool   `json:"sponsored"`
}
