// Package scheduler periodically recomputes every company aggregate so that
// rows left stale by a failed write converge without a new submission.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/RubachokBoss/prepai/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Scheduler struct {
	cron       *cron.Cron
	aggregator service.CompanyAggregator
	spec       string
	runOnStart bool
	logger     zerolog.Logger
}

func New(aggregator service.CompanyAggregator, spec string, runOnStart bool, logger zerolog.Logger) *Scheduler {
	cronLogger := cronLogAdapter{logger: logger}

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		aggregator: aggregator,
		spec:       spec,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Start регистрирует задачу и запускает cron. Задача живет, пока не отменен ctx или не вызван Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reconciliation %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("Reconciliation scheduler started")

	if s.runOnStart {
		go s.RunOnce(ctx)
	}

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Reconciliation scheduler stopped")
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	refreshed, err := s.aggregator.RefreshAll(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("refreshed", refreshed).
			Dur("duration", time.Since(start)).
			Msg("Reconciliation finished with errors")
		return
	}

	s.logger.Info().
		Int("refreshed", refreshed).
		Dur("duration", time.Since(start)).
		Msg("Reconciliation finished")
}

type cronLogAdapter struct {
	logger zerolog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
