package sponsorship

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/observability"
	"github.com/i474232898/raincheck/internal/weather"
)

// Reader is the read path the selector borrows from the lifecycle manager.
type Reader interface {
	ListAll(ctx context.Context) ([]Sponsorship, error)
}

// RandomSource picks an index in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Selector picks a sponsored message for a weather category.
type Selector struct {
	reader Reader
	log    *zap.Logger

	mu  sync.Mutex
	rnd RandomSource
}

// NewSelector creates a Selector. A nil rnd uses a time-seeded math/rand source.
func NewSelector(reader Reader, rnd RandomSource, log *zap.Logger) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{reader: reader, rnd: rnd, log: log.Named("selector")}
}

// Select returns a uniformly random sponsorship that is active at now and
// matches the category. It returns false when none match or when storage
// cannot be read: a missing sponsor never breaks the weather check.
func (s *Selector) Select(ctx context.Context, wt weather.Type, now time.Time) (Sponsored, bool) {
	all, err := s.reader.ListAll(ctx)
	if err != nil {
		s.log.Warn("sponsorship lookup failed; showing no sponsor",
			zap.String("weather_type", string(wt)), zap.Error(err))
		observability.SponsorSelections.WithLabelValues("degraded").Inc()
		return Sponsored{}, false
	}

	candidates := Eligible(all, wt, now)
	if len(candidates) == 0 {
		observability.SponsorSelections.WithLabelValues("none").Inc()
		return Sponsored{}, false
	}

	s.mu.Lock()
	picked := candidates[s.rnd.Intn(len(candidates))]
	s.mu.Unlock()

	observability.SponsorSelections.WithLabelValues("sponsored").Inc()
	return Sponsored{Message: picked.Message, Sponsor: picked.Sponsor, Sponsored: true}, true
}

// Eligible filters to sponsorships that are active at now and match the category.
func Eligible(all []Sponsorship, wt weather.Type, now time.Time) []Sponsorship {
	var out []Sponsorship
	for _, sp := range all {
		if sp.WeatherType == wt && sp.ActiveAt(now) {
			out = append(out, sp)
		}
	}
	return out
}
