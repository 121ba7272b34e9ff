package admin

import (
	"math"
	"time"

	"github.com/i474232898/raincheck/internal/activity"
	"github.com/i474232898/raincheck/internal/sponsorship"
)

// Metrics is the dashboard summary over usage, feedback and sponsorship records.
type Metrics struct {
	UniqueUsers      int     `json:"unique_users"`
	WeatherChecks    int     `json:"weather_checks"`
	PositiveFeedback int     `json:"positive_feedback"`
	NegativeFeedback int     `json:"negative_feedback"`
	ProfanityPercent int     `json:"profanity_percent"`
	TotalRevenue     float64 `json:"total_revenue"`
	PendingCount     int     `json:"pending_sponsorships"`
	ActiveCount      int     `json:"active_sponsorships"`

	Daily []DailyPoint `json:"daily"`
}

// DailyPoint is one UTC calendar day of the trailing series.
type DailyPoint struct {
	Date          string  `json:"date"`
	WeatherChecks int     `json:"weather_checks"`
	UniqueUsers   int     `json:"unique_users"`
	Revenue       float64 `json:"revenue"`
}

// DailyWindow is how many days the dashboard series covers, ending today.
const DailyWindow = 7

// Aggregate reduces raw records into dashboard metrics. Revenue counts every
// stored sponsorship by submission day; active counts only those live at now.
func Aggregate(usage []activity.Usage, feedback []activity.Feedback, sponsorships []sponsorship.Sponsorship, now time.Time) Metrics {
	var m Metrics

	users := make(map[string]struct{})
	profane := 0
	for _, u := range usage {
		if u.UserID != activity.AnonymousUser {
			users[u.UserID] = struct{}{}
		}
		if u.ProfanityMode {
			profane++
		}
	}
	m.UniqueUsers = len(users)
	m.WeatherChecks = len(usage)
	if m.WeatherChecks > 0 {
		m.ProfanityPercent = int(math.Round(float64(profane) / float64(m.WeatherChecks) * 100))
	}

	for _, f := range feedback {
		switch f.Type {
		case activity.FeedbackPositive:
			m.PositiveFeedback++
		case activity.FeedbackNegative:
			m.NegativeFeedback++
		}
	}

	for _, s := range sponsorships {
		m.TotalRevenue += s.Price
		switch {
		case s.Status == sponsorship.StatusPending:
			m.PendingCount++
		case s.ActiveAt(now):
			m.ActiveCount++
		}
	}
	m.TotalRevenue = math.Round(m.TotalRevenue*100) / 100

	m.Daily = dailySeries(usage, sponsorships, now)
	return m
}

func dailySeries(usage []activity.Usage, sponsorships []sponsorship.Sponsorship, now time.Time) []DailyPoint {
	today := now.UTC().Truncate(24 * time.Hour)
	points := make([]DailyPoint, DailyWindow)
	index := make(map[string]int, DailyWindow)
	dayUsers := make([]map[string]struct{}, DailyWindow)
	for i := 0; i < DailyWindow; i++ {
		d := today.AddDate(0, 0, i-(DailyWindow-1)).Format("2006-01-02")
		points[i].Date = d
		index[d] = i
		dayUsers[i] = make(map[string]struct{})
	}

	for _, u := range usage {
		i, ok := index[u.CreatedAt.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		points[i].WeatherChecks++
		if u.UserID != activity.AnonymousUser {
			dayUsers[i][u.UserID] = struct{}{}
		}
	}
	for i := range points {
		points[i].UniqueUsers = len(dayUsers[i])
	}

	for _, s := range sponsorships {
		i, ok := index[s.CreatedAt.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		points[i].Revenue += s.Price
	}
	return points
}
