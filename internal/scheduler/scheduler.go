package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Syncer replays writes that only reached the local store.
type Syncer interface {
	Sync(ctx context.Context) (int, error)
}

// Scheduler periodically pushes local-only writes to the remote store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
	interval  time.Duration
	timeout   time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler. A zero interval disables the job.
func New(syncer Syncer, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		syncer:    syncer,
		interval:  interval,
		timeout:   2 * time.Minute,
		log:       log.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.syncer == nil {
		s.log.Info("outbox sync disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("outbox sync scheduled", zap.Duration("interval", s.interval))
	return nil
}

// RunOnce performs a single sync pass.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.syncer.Sync(ctx)
	if err != nil {
		s.log.Warn("outbox sync incomplete", zap.Int("replayed", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("outbox sync completed", zap.Int("replayed", n))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
