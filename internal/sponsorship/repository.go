package sponsorship

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/store"
)

// Repository is the persistence contract the lifecycle manager consumes.
type Repository interface {
	List(ctx context.Context) ([]Sponsorship, error)
	Insert(ctx context.Context, s Sponsorship) (Sponsorship, error)
	Update(ctx context.Context, id string, fields store.Fields) (Sponsorship, error)
	Delete(ctx context.Context, id string) error
}

// BackendRepository maps sponsorships to documents in the sponsorships collection.
type BackendRepository struct {
	backend store.Backend
	log     *zap.Logger
}

func NewBackendRepository(backend store.Backend, log *zap.Logger) *BackendRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackendRepository{backend: backend, log: log.Named("sponsorships")}
}

// List decodes every stored sponsorship. Rows that fail shape validation are
// logged and left out rather than failing the whole read.
func (r *BackendRepository) List(ctx context.Context) ([]Sponsorship, error) {
	recs, err := r.backend.List(ctx, store.KindSponsorships)
	if err != nil {
		return nil, err
	}
	out := make([]Sponsorship, 0, len(recs))
	for _, rec := range recs {
		s, err := decode(rec)
		if err != nil {
			r.log.Warn("skipping malformed sponsorship", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *BackendRepository) Insert(ctx context.Context, s Sponsorship) (Sponsorship, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Sponsorship{}, fmt.Errorf("encode sponsorship: %w", err)
	}
	rec, err := r.backend.Insert(ctx, store.KindSponsorships, store.Record{ID: s.ID, Data: data, CreatedAt: s.CreatedAt})
	if err != nil {
		return Sponsorship{}, err
	}
	return decode(rec)
}

func (r *BackendRepository) Update(ctx context.Context, id string, fields store.Fields) (Sponsorship, error) {
	rec, err := r.backend.Update(ctx, store.KindSponsorships, id, fields)
	if err != nil {
		return Sponsorship{}, err
	}
	return decode(rec)
}

func (r *BackendRepository) Delete(ctx context.Context, id string) error {
	return r.backend.Delete(ctx, store.KindSponsorships, id)
}

func decode(rec store.Record) (Sponsorship, error) {
	var s Sponsorship
	if err := json.Unmarshal(rec.Data, &s); err != nil {
		return Sponsorship{}, fmt.Errorf("decode sponsorship %s: %w", rec.ID, err)
	}
	if s.ID == "" {
		s.ID = rec.ID
	}
	if err := validateShape(s); err != nil {
		return Sponsorship{}, err
	}
	s.Origin = rec.Origin
	return s, nil
}

func validateShape(s Sponsorship) error {
	switch {
	case s.Sponsor == "" || s.Message == "":
		return fmt.Errorf("sponsorship %s: missing sponsor or message", s.ID)
	case !s.WeatherType.Valid():
		return fmt.Errorf("sponsorship %s: unknown weather type %q", s.ID, s.WeatherType)
	case s.DurationDays <= 0:
		return fmt.Errorf("sponsorship %s: non-positive duration", s.ID)
	case s.Price < 0:
		return fmt.Errorf("sponsorship %s: negative price", s.ID)
	case s.Status != StatusPending && s.Status != StatusActive:
		return fmt.Errorf("sponsorship %s: unknown status %q", s.ID, s.Status)
	case s.Status == StatusActive && s.StartTimestamp == nil:
		return fmt.Errorf("sponsorship %s: active without start timestamp", s.ID)
	}
	return nil
}
