package sponsorship

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/store"
	"github.com/i474232898/raincheck/internal/weather"
)

var validate = validator.New()

// SubmitInput carries a sponsor's request. Price is informational; payment is simulated.
type SubmitInput struct {
	Sponsor      string  `json:"sponsor" validate:"required,max=100"`
	Message      string  `json:"message" validate:"required"`
	WeatherType  string  `json:"weather_type" validate:"required"`
	DurationDays int     `json:"duration_days" validate:"required,gt=0"`
	Price        float64 `json:"price" validate:"required,gt=0"`
}

// Manager governs the sponsorship lifecycle: pending on submission, active on
// approval, deleted on rejection. Expiry is never written; it is derived from
// the active window at read time.
type Manager struct {
	repo   Repository
	policy ContentPolicy
	clock  Clock
	log    *zap.Logger
}

// NewManager creates a Manager. A nil clock uses the system clock.
func NewManager(repo Repository, policy ContentPolicy, clock Clock, log *zap.Logger) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		repo:   repo,
		policy: policy,
		clock:  clock,
		log:    log.Named("lifecycle"),
	}
}

// Submit validates a sponsor request and stores it as pending. Nothing is
// written when validation fails.
func (m *Manager) Submit(ctx context.Context, in SubmitInput) (Sponsorship, error) {
	s, err := m.build(in)
	if err != nil {
		return Sponsorship{}, err
	}
	s.Status = StatusPending
	s.CreatedAt = m.clock.Now()

	stored, err := m.repo.Insert(ctx, s)
	if err != nil {
		return Sponsorship{}, fmt.Errorf("store sponsorship: %w", err)
	}
	m.log.Info("sponsorship submitted",
		zap.String("id", stored.ID), zap.String("weather_type", string(stored.WeatherType)),
		zap.String("origin", string(stored.Origin)))
	return stored, nil
}

// CreateActive stores an admin-entered sponsorship that is active immediately.
func (m *Manager) CreateActive(ctx context.Context, in SubmitInput) (Sponsorship, error) {
	s, err := m.build(in)
	if err != nil {
		return Sponsorship{}, err
	}
	now := m.clock.Now()
	s.Status = StatusActive
	s.CreatedAt = now
	s.StartTimestamp = &now

	stored, err := m.repo.Insert(ctx, s)
	if err != nil {
		return Sponsorship{}, fmt.Errorf("store sponsorship: %w", err)
	}
	m.log.Info("sponsorship created active", zap.String("id", stored.ID))
	return stored, nil
}

// Approve activates the sponsorship and restarts its window at the approval instant.
// Approving twice simply restarts the window again.
func (m *Manager) Approve(ctx context.Context, id string) (Sponsorship, error) {
	if strings.TrimSpace(id) == "" {
		return Sponsorship{}, ErrNotFound
	}
	now := m.clock.Now()
	s, err := m.repo.Update(ctx, id, store.Fields{
		"status":          StatusActive,
		"start_timestamp": now,
	})
	if err != nil {
		return Sponsorship{}, fmt.Errorf("approve %s: %w", id, err)
	}
	m.log.Info("sponsorship approved", zap.String("id", id), zap.Time("start", now))
	return s, nil
}

// Reject deletes the sponsorship. A second reject of the same id returns ErrNotFound.
func (m *Manager) Reject(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("reject %s: %w", id, err)
	}
	m.log.Info("sponsorship rejected", zap.String("id", id))
	return nil
}

// ListAll returns every stored sponsorship regardless of status.
func (m *Manager) ListAll(ctx context.Context) ([]Sponsorship, error) {
	return m.repo.List(ctx)
}

// ListPending returns sponsorships awaiting review.
func (m *Manager) ListPending(ctx context.Context) ([]Sponsorship, error) {
	return m.listByStatus(ctx, StatusPending)
}

// ListActive returns approved sponsorships, including ones whose window has passed.
func (m *Manager) ListActive(ctx context.Context) ([]Sponsorship, error) {
	return m.listByStatus(ctx, StatusActive)
}

func (m *Manager) listByStatus(ctx context.Context, status Status) ([]Sponsorship, error) {
	all, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Sponsorship, 0, len(all))
	for _, s := range all {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Manager) build(in SubmitInput) (Sponsorship, error) {
	in.Sponsor = strings.TrimSpace(in.Sponsor)
	in.Message = strings.TrimSpace(in.Message)
	in.WeatherType = strings.TrimSpace(in.WeatherType)

	if err := validate.Struct(in); err != nil {
		return Sponsorship{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	wt, ok := weather.ParseType(in.WeatherType)
	if !ok {
		return Sponsorship{}, fmt.Errorf("%w: unknown weather type %q", ErrInvalidSubmission, in.WeatherType)
	}
	if err := m.policy.Check(in.Message); err != nil {
		m.log.Info("sponsorship refused by content policy", zap.String("sponsor", in.Sponsor), zap.Error(err))
		return Sponsorship{}, err
	}

	return Sponsorship{
		Sponsor:      in.Sponsor,
		Message:      in.Message,
		WeatherType:  wt,
		DurationDays: in.DurationDays,
		Price:        in.Price,
	}, nil
}
