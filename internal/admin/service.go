package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/activity"
	"github.com/i474232898/raincheck/internal/sponsorship"
	"github.com/i474232898/raincheck/internal/weather"
)

// ErrUnknownExport is returned for an export kind other than feedback, usage or sponsorships.
var ErrUnknownExport = errors.New("unknown export kind")

// Lifecycle is the part of the sponsorship manager the admin surface drives.
type Lifecycle interface {
	ListAll(ctx context.Context) ([]sponsorship.Sponsorship, error)
	ListPending(ctx context.Context) ([]sponsorship.Sponsorship, error)
	ListActive(ctx context.Context) ([]sponsorship.Sponsorship, error)
	Approve(ctx context.Context, id string) (sponsorship.Sponsorship, error)
	Reject(ctx context.Context, id string) error
	CreateActive(ctx context.Context, in sponsorship.SubmitInput) (sponsorship.Sponsorship, error)
}

// ActivityReader reads the append-only feedback and usage collections.
type ActivityReader interface {
	ListFeedback(ctx context.Context) ([]activity.Feedback, error)
	ListUsage(ctx context.Context) ([]activity.Usage, error)
}

// Previewer returns what end users would currently see for a category.
type Previewer interface {
	Select(ctx context.Context, wt weather.Type, now time.Time) (sponsorship.Sponsored, bool)
}

// Campaign is an active sponsorship as listed on the dashboard.
type Campaign struct {
	sponsorship.Sponsorship
	DaysLeft int  `json:"days_left"`
	Live     bool `json:"live"`
}

// Service is the admin review surface. It only consumes the core.
type Service struct {
	lifecycle Lifecycle
	activity  ActivityReader
	preview   Previewer
	clock     sponsorship.Clock
	log       *zap.Logger
}

func NewService(lifecycle Lifecycle, activity ActivityReader, preview Previewer, clock sponsorship.Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = sponsorship.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		lifecycle: lifecycle,
		activity:  activity,
		preview:   preview,
		clock:     clock,
		log:       log.Named("admin"),
	}
}

func (s *Service) Pending(ctx context.Context) ([]sponsorship.Sponsorship, error) {
	return s.lifecycle.ListPending(ctx)
}

// Active lists approved sponsorships with the days remaining in their window.
func (s *Service) Active(ctx context.Context) ([]Campaign, error) {
	active, err := s.lifecycle.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]Campaign, 0, len(active))
	for _, sp := range active {
		out = append(out, Campaign{Sponsorship: sp, DaysLeft: sp.DaysLeft(now), Live: sp.ActiveAt(now)})
	}
	return out, nil
}

func (s *Service) Approve(ctx context.Context, id string) (sponsorship.Sponsorship, error) {
	return s.lifecycle.Approve(ctx, id)
}

// Reject deletes the sponsorship. A NotFound here means another admin got there first.
func (s *Service) Reject(ctx context.Context, id string) error {
	err := s.lifecycle.Reject(ctx, id)
	if errors.Is(err, sponsorship.ErrNotFound) {
		s.log.Info("reject of missing sponsorship", zap.String("id", id))
	}
	return err
}

func (s *Service) Create(ctx context.Context, in sponsorship.SubmitInput) (sponsorship.Sponsorship, error) {
	return s.lifecycle.CreateActive(ctx, in)
}

// Dashboard aggregates every collection into dashboard metrics.
func (s *Service) Dashboard(ctx context.Context) (Metrics, error) {
	usage, err := s.activity.ListUsage(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("load usage: %w", err)
	}
	feedback, err := s.activity.ListFeedback(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("load feedback: %w", err)
	}
	sponsorships, err := s.lifecycle.ListAll(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("load sponsorships: %w", err)
	}
	return Aggregate(usage, feedback, sponsorships, s.clock.Now()), nil
}

// Preview shows the sponsored message a user would get right now, if any.
func (s *Service) Preview(ctx context.Context, wt weather.Type) (sponsorship.Sponsored, bool) {
	return s.preview.Select(ctx, wt, s.clock.Now())
}

// Export returns the raw records of one collection for download.
func (s *Service) Export(ctx context.Context, kind string) (any, error) {
	switch kind {
	case "feedback":
		return s.activity.ListFeedback(ctx)
	case "usage":
		return s.activity.ListUsage(ctx)
	case "sponsorships":
		return s.lifecycle.ListAll(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExport, kind)
	}
}
