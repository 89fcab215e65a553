package worker

import (
	"context"
	"fmt"
	"time"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

type MirrorSyncer interface {
	RemoteConfigured() bool
	SyncMirror(ctx context.Context) (int, error)
}

// Scheduler keeps the local mirror close to the remote table.
type Scheduler struct {
	sched    gocron.Scheduler
	syncer   MirrorSyncer
	interval time.Duration
	logger   zerolog.Logger
}

func NewScheduler(cfg *config.Config, syncer MirrorSyncer, logger zerolog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	interval := cfg.MirrorSyncInterval
	if interval <= 0 {
		interval = constants.MirrorSyncInterval
	}

	return &Scheduler{
		sched:    sched,
		syncer:   syncer,
		interval: interval,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start registers the jobs and starts the scheduler. Nothing is scheduled
// when there is no remote table to mirror.
func (s *Scheduler) Start() error {
	if !s.syncer.RemoteConfigured() {
		s.logger.Info().Msg("remote table not configured, mirror sync disabled")
		return nil
	}

	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.syncMirror),
		gocron.WithName("mirror-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule mirror sync: %w", err)
	}

	s.sched.Start()
	s.logger.Info().Dur("interval", s.interval).Msg("mirror sync scheduled")
	return nil
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) syncMirror() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
	defer cancel()

	n, err := s.syncer.SyncMirror(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("mirror sync failed")
		return
	}
	s.logger.Debug().Int("observations", n).Msg("mirror sync done")
}
