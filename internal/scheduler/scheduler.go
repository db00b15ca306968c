// Copyright 2025 James Ross
package scheduler

import (
	"context"

	"github.com/joltworks/go-brew-queue/internal/obs"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is the durable maintenance contract the scheduler drives. It is
// satisfied by *storage.Store without this package importing it directly.
type Sweeper interface {
	ClearOldRecords(ctx context.Context) error
}

// Scheduler runs the daily clearOldRecords sweep described in spec §4.5's
// "end-of-day retention" note. The teacher's reaper polls every few seconds
// with a ticker because abandoned jobs can appear at any moment; this sweep
// is calendar-aligned instead, so it is driven by a cron schedule rather
// than a fixed-interval ticker.
type Scheduler struct {
	store Sweeper
	log   *zap.Logger
	cron  *cron.Cron
}

// New builds a Scheduler that runs the sweep according to spec, a standard
// five-field cron expression evaluated in the server's local time.
func New(store Sweeper, spec string, log *zap.Logger) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{store: store, log: log, cron: c}
	if _, err := c.AddFunc(spec, s.runSweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron scheduler in the background. Stop via ctx
// cancellation or an explicit Stop call.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSweep() {
	if err := s.store.ClearOldRecords(context.Background()); err != nil {
		s.log.Error("clear old records failed", obs.Err(err))
		return
	}
	s.log.Info("cleared old records")
}
