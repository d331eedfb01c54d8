package scheduler

import (
	"context"
	"fmt"
	"time"

	"meal-kart/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// WeekPopulator creates the plan orders for the coming week.
type WeekPopulator interface {
	PopulateWeek(ctx context.Context) (*model.FulfillmentResult, error)
}

// Scheduler runs the weekly population job on a cron schedule. Scheduled and
// manual runs share one SkipIfStillRunning wrapper, so a trigger that fires
// while a run is in progress is dropped.
type Scheduler struct {
	cron      *cron.Cron
	job       cron.Job
	populator WeekPopulator
	timeout   time.Duration
	logger    zerolog.Logger
}

// New parses spec (standard five-field cron syntax) in loc.
func New(spec string, loc *time.Location, populator WeekPopulator, logger zerolog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		populator: populator,
		timeout:   30 * time.Minute,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
	cl := cronLogger{logger: s.logger}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.populate))
	s.cron = cron.New(cron.WithLocation(loc), cron.WithLogger(cl))
	if _, err := s.cron.AddJob(spec, s.job); err != nil {
		return nil, fmt.Errorf("invalid populate schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("populate-week scheduler started")
}

// Stop prevents new runs and waits for an in-flight run or ctx, whichever
// finishes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info().Msg("populate-week scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn().Msg("populate-week scheduler stop timed out")
	}
}

// Run triggers the job once outside the schedule. It blocks until the run
// finishes, or returns immediately if another run holds the slot.
func (s *Scheduler) Run() {
	s.job.Run()
}

func (s *Scheduler) populate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.populator.PopulateWeek(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("populate-week run failed")
		return
	}

	s.logger.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("duration", time.Since(start)).
		Msg("populate-week run finished")
}

// cronLogger feeds cron's key/value log calls into zerolog. Scheduler
// chatter goes to debug; dropped triggers stay visible as warnings.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.logger.Warn().Msg("populate-week already running, skipping trigger")
		return
	}
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
