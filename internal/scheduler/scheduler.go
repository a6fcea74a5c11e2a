package scheduler

import (
	"context"
	"fmt"
	"time"

	"DayTradeBot/internal/operations/cycle"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler drives background jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers a job. Schedules use the cron spec syntax or the
// "@every 5m" shorthand.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// CycleJob runs one trading cycle per tick. The tick interval comes from
// REBALANCE_INTERVAL, so allocation never runs more often than configured;
// the runner's own mutex covers a manual trigger overlapping a tick.
type CycleJob struct {
	runner  *cycle.Runner
	timeout time.Duration
}

func NewCycleJob(runner *cycle.Runner, timeout time.Duration) *CycleJob {
	return &CycleJob{runner: runner, timeout: timeout}
}

func (j *CycleJob) Name() string { return "trading-cycle" }

func (j *CycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.runner.Run(ctx); err != nil {
		return fmt.Errorf("cycle: %w", err)
	}
	return nil
}
