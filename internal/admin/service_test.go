package admin

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/raincheck/internal/activity"
	"github.com/i474232898/raincheck/internal/sponsorship"
	"github.com/i474232898/raincheck/internal/store"
	"github.com/i474232898/raincheck/internal/weather"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var now = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *sponsorship.Manager, *activity.Recorder) {
	t.Helper()
	backend := store.NewMemoryBackend()
	clock := fixedClock{now}
	manager := sponsorship.NewManager(sponsorship.NewBackendRepository(backend, nil), sponsorship.DefaultPolicy(), clock, nil)
	selector := sponsorship.NewSelector(manager, rand.New(rand.NewSource(1)), nil)
	recorder := activity.NewRecorder(backend, nil)
	return NewService(manager, recorder, selector, clock, nil), manager, recorder
}

func input(wt string) sponsorship.SubmitInput {
	return sponsorship.SubmitInput{Sponsor: "Acme", Message: "Stay dry!", WeatherType: wt, DurationDays: 3, Price: 50}
}

func TestServiceReviewFlow(t *testing.T) {
	svc, manager, _ := newTestService(t)
	ctx := context.Background()

	s, err := manager.Submit(ctx, input("rain"))
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.Approve(ctx, s.ID)
	require.NoError(t, err)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].DaysLeft)
	assert.True(t, active[0].Live)

	got, ok := svc.Preview(ctx, weather.TypeRain)
	require.True(t, ok)
	assert.Equal(t, "Stay dry!", got.Message)

	_, ok = svc.Preview(ctx, weather.TypeSnowy)
	assert.False(t, ok)

	require.NoError(t, svc.Reject(ctx, s.ID))
	assert.ErrorIs(t, svc.Reject(ctx, s.ID), sponsorship.ErrNotFound)
}

func TestServiceCreate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, input("sunny"))
	require.NoError(t, err)
	assert.Equal(t, sponsorship.StatusActive, s.Status)

	_, err = svc.Create(ctx, input("not-a-type"))
	assert.ErrorIs(t, err, sponsorship.ErrInvalidSubmission)
}

func TestServiceDashboardAndExport(t *testing.T) {
	svc, manager, recorder := newTestService(t)
	ctx := context.Background()

	_, err := manager.Submit(ctx, input("rain"))
	require.NoError(t, err)
	_, err = recorder.RecordUsage(ctx, activity.Usage{UserID: "u1", WeatherType: weather.TypeRain, TempUnit: weather.Celsius})
	require.NoError(t, err)
	_, err = recorder.RecordFeedback(ctx, activity.Feedback{UserID: "u1", Type: activity.FeedbackNegative})
	require.NoError(t, err)

	m, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.UniqueUsers)
	assert.Equal(t, 1, m.NegativeFeedback)
	assert.Equal(t, 1, m.PendingCount)
	assert.InDelta(t, 50, m.TotalRevenue, 1e-9)

	for kind, n := range map[string]int{"feedback": 1, "usage": 1, "sponsorships": 1} {
		rows, err := svc.Export(ctx, kind)
		require.NoError(t, err, kind)
		switch v := rows.(type) {
		case []activity.Feedback:
			assert.Len(t, v, n)
		case []activity.Usage:
			assert.Len(t, v, n)
		case []sponsorship.Sponsorship:
			assert.Len(t, v, n)
		default:
			t.Fatalf("unexpected export type %T", rows)
		}
	}

	_, err = svc.Export(ctx, "passwords")
	assert.ErrorIs(t, err, ErrUnknownExport)
}
