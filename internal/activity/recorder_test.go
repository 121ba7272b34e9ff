package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/raincheck/internal/store"
	"github.com/i474232898/raincheck/internal/weather"
)

func newTestRecorder(at time.Time) (*Recorder, *store.MemoryBackend) {
	backend := store.NewMemoryBackend()
	r := NewRecorder(backend, nil)
	r.now = func() time.Time { return at }
	return r, backend
}

func TestRecordFeedback(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r, _ := newTestRecorder(at)
	ctx := context.Background()

	fb, err := r.RecordFeedback(ctx, Feedback{ID: "client-chosen", UserID: "u1", Type: FeedbackPositive, Message: "love it"})
	require.NoError(t, err)
	assert.NotEmpty(t, fb.ID)
	assert.NotEqual(t, "client-chosen", fb.ID)
	assert.True(t, fb.CreatedAt.Equal(at))

	all, err := r.ListFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, fb.ID, all[0].ID)
	assert.Equal(t, FeedbackPositive, all[0].Type)
}

func TestRecordFeedbackValidation(t *testing.T) {
	r, backend := newTestRecorder(time.Now())
	ctx := context.Background()

	for _, fb := range []Feedback{
		{UserID: "", Type: FeedbackPositive},
		{UserID: "u1", Type: "meh"},
		{UserID: "u1"},
	} {
		_, err := r.RecordFeedback(ctx, fb)
		assert.ErrorIs(t, err, ErrInvalidActivity)
	}

	recs, err := backend.List(ctx, store.KindFeedback)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordUsage(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r, _ := newTestRecorder(at)
	ctx := context.Background()

	u, err := r.RecordUsage(ctx, Usage{
		UserID:      "u1",
		WeatherType: weather.TypeLightRain,
		TempUnit:    weather.Fahrenheit,
		IsRaining:   true,
		Temperature: 11.5,
		Location:    "Lisbon",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = r.RecordUsage(ctx, Usage{UserID: "u2", WeatherType: weather.TypeSunny, TempUnit: "K"})
	assert.ErrorIs(t, err, ErrInvalidActivity)

	_, err = r.RecordUsage(ctx, Usage{UserID: "u2", WeatherType: "hail", TempUnit: weather.Celsius})
	assert.ErrorIs(t, err, ErrInvalidActivity)

	all, err := r.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Lisbon", all[0].Location)
	assert.InDelta(t, 11.5, all[0].Temperature, 1e-9)
	assert.True(t, all[0].IsRaining)
}

func TestListSkipsMalformedRecords(t *testing.T) {
	r, backend := newTestRecorder(time.Now())
	ctx := context.Background()

	_, err := backend.Insert(ctx, store.KindUsage, store.Record{Data: []byte(`{"user_id": 42}`)})
	require.NoError(t, err)
	_, err = backend.Insert(ctx, store.KindUsage, store.Record{Data: []byte(`{"user_id":"u1","weather_type":"rain","temp_unit":"C"}`)})
	require.NoError(t, err)

	all, err := r.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "u1", all[0].UserID)
}
