package sponsorship

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/i474232898/raincheck/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// failingReader stands in for a storage layer that cannot be reached.
type failingReader struct{}

func (failingReader) ListAll(context.Context) ([]Sponsorship, error) {
	return nil, errors.New("dial tcp: connection refused")
}

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *fakeClock, *store.MemoryBackend) {
	t.Helper()
	backend := store.NewMemoryBackend()
	clock := newFakeClock(t0)
	return NewManager(NewBackendRepository(backend, nil), DefaultPolicy(), clock, nil), clock, backend
}

func validInput() SubmitInput {
	return SubmitInput{
		Sponsor:      "Acme",
		Message:      "Stay dry!",
		WeatherType:  "rain",
		DurationDays: 3,
		Price:        50,
	}
}

func submitApproved(t *testing.T, m *Manager, in SubmitInput) Sponsorship {
	t.Helper()
	ctx := context.Background()
	s, err := m.Submit(ctx, in)
	require.NoError(t, err)
	s, err = m.Approve(ctx, s.ID)
	require.NoError(t, err)
	return s
}

// downBackend refuses every operation.
type downBackend struct{}

func (downBackend) Name() string { return "down" }

func (downBackend) List(context.Context, store.Kind) ([]store.Record, error) {
	return nil, errors.New("unreachable")
}

func (downBackend) Insert(context.Context, store.Kind, store.Record) (store.Record, error) {
	return store.Record{}, errors.New("unreachable")
}

func (downBackend) Update(context.Context, store.Kind, string, store.Fields) (store.Record, error) {
	return store.Record{}, errors.New("unreachable")
}

func (downBackend) Delete(context.Context, store.Kind, string) error {
	return errors.New("unreachable")
}

func fallbackOf(remote, local store.Backend) store.Backend {
	return store.NewFallbackBackend(remote, local, time.Second, nil)
}

// storeWithOneActive returns a memory store holding one approved Acme rain sponsorship started at t0.
func storeWithOneActive(t *testing.T) *store.MemoryBackend {
	t.Helper()
	backend := store.NewMemoryBackend()
	m := NewManager(NewBackendRepository(backend, nil), DefaultPolicy(), newFakeClock(t0), nil)
	submitApproved(t, m, validInput())
	return backend
}
