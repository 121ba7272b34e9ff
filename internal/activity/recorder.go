package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/store"
)

// ErrInvalidActivity is returned when a feedback or usage record fails validation.
var ErrInvalidActivity = errors.New("invalid activity record")

var validate = validator.New()

// Recorder appends feedback and usage records and reads them back for aggregation.
type Recorder struct {
	backend store.Backend
	now     func() time.Time
	log     *zap.Logger
}

func NewRecorder(backend store.Backend, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.Named("activity"),
	}
}

// RecordFeedback stores a feedback entry.
func (r *Recorder) RecordFeedback(ctx context.Context, fb Feedback) (Feedback, error) {
	if err := validate.Struct(fb); err != nil {
		return Feedback{}, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	fb.ID = ""
	fb.CreatedAt = r.now()

	var out Feedback
	if err := r.append(ctx, store.KindFeedback, fb, &out); err != nil {
		return Feedback{}, err
	}
	return out, nil
}

// RecordUsage stores a weather check.
func (r *Recorder) RecordUsage(ctx context.Context, u Usage) (Usage, error) {
	if err := validate.Struct(u); err != nil {
		return Usage{}, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	if !u.WeatherType.Valid() {
		return Usage{}, fmt.Errorf("%w: unknown weather type %q", ErrInvalidActivity, u.WeatherType)
	}
	u.ID = ""
	u.CreatedAt = r.now()

	var out Usage
	if err := r.append(ctx, store.KindUsage, u, &out); err != nil {
		return Usage{}, err
	}
	return out, nil
}

// ListFeedback returns every feedback record, newest first.
func (r *Recorder) ListFeedback(ctx context.Context) ([]Feedback, error) {
	var out []Feedback
	err := r.list(ctx, store.KindFeedback, func(raw json.RawMessage) error {
		var fb Feedback
		if err := json.Unmarshal(raw, &fb); err != nil {
			return err
		}
		out = append(out, fb)
		return nil
	})
	return out, err
}

// ListUsage returns every usage record, newest first.
func (r *Recorder) ListUsage(ctx context.Context) ([]Usage, error) {
	var out []Usage
	err := r.list(ctx, store.KindUsage, func(raw json.RawMessage) error {
		var u Usage
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	return out, err
}

func (r *Recorder) append(ctx context.Context, kind store.Kind, v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	rec, err := r.backend.Insert(ctx, kind, store.Record{Data: data})
	if err != nil {
		return fmt.Errorf("store %s: %w", kind, err)
	}
	return json.Unmarshal(rec.Data, out)
}

func (r *Recorder) list(ctx context.Context, kind store.Kind, each func(json.RawMessage) error) error {
	recs, err := r.backend.List(ctx, kind)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := each(rec.Data); err != nil {
			r.log.Warn("skipping malformed record", zap.String("kind", string(kind)), zap.String("id", rec.ID), zap.Error(err))
		}
	}
	return nil
}
