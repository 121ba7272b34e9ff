package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultReconnectEvery is how long a LazyBackend waits before retrying a failed open.
const DefaultReconnectEvery = 30 * time.Second

// LazyBackend opens its backend on first use. Until an open succeeds every call
// fails, so a FallbackBackend in front of it keeps journaling locally.
type LazyBackend struct {
	name       string
	open       func() (Backend, error)
	retryEvery time.Duration

	mu      sync.Mutex
	backend Backend
	lastErr error
	lastTry time.Time
}

// NewLazyBackend wraps open. A zero retryEvery uses DefaultReconnectEvery; a negative one retries on every call.
func NewLazyBackend(name string, retryEvery time.Duration, open func() (Backend, error)) *LazyBackend {
	if retryEvery == 0 {
		retryEvery = DefaultReconnectEvery
	}
	return &LazyBackend{name: name, open: open, retryEvery: retryEvery}
}

func (l *LazyBackend) Name() string {
	return l.name
}

func (l *LazyBackend) get() (Backend, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend != nil {
		return l.backend, nil
	}
	if l.lastErr != nil && time.Since(l.lastTry) < l.retryEvery {
		return nil, l.lastErr
	}
	l.lastTry = time.Now()
	b, err := l.open()
	if err != nil {
		l.lastErr = fmt.Errorf("%s not connected: %w", l.name, err)
		return nil, l.lastErr
	}
	l.backend, l.lastErr = b, nil
	return b, nil
}

func (l *LazyBackend) List(ctx context.Context, kind Kind) ([]Record, error) {
	b, err := l.get()
	if err != nil {
		return nil, err
	}
	return b.List(ctx, kind)
}

func (l *LazyBackend) Insert(ctx context.Context, kind Kind, rec Record) (Record, error) {
	b, err := l.get()
	if err != nil {
		return Record{}, err
	}
	return b.Insert(ctx, kind, rec)
}

func (l *LazyBackend) Update(ctx context.Context, kind Kind, id string, fields Fields) (Record, error) {
	b, err := l.get()
	if err != nil {
		return Record{}, err
	}
	return b.Update(ctx, kind, id, fields)
}

func (l *LazyBackend) Delete(ctx context.Context, kind Kind, id string) error {
	b, err := l.get()
	if err != nil {
		return err
	}
	return b.Delete(ctx, kind, id)
}
