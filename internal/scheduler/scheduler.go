package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// ReportRunner produces and delivers one report.
type ReportRunner interface {
	Run(ctx context.Context, reportType weather.ReportType) error
}

// Scheduler runs the morning and evening reports once a day in the user's timezone.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	runner      ReportRunner
	morningTime string
	eveningTime string
	runTimeout  time.Duration
	logger      zerolog.Logger
}

// New creates a Scheduler. Times use the "15:04" layout and are interpreted in location.
func New(runner ReportRunner, location *time.Location, morningTime, eveningTime string, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(location)
	// A slow run must never overlap the next trigger of the same job.
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:   s,
		runner:      runner,
		morningTime: morningTime,
		eveningTime: eveningTime,
		runTimeout:  2 * time.Minute,
		logger:      logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers both daily jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := []struct {
		at         string
		reportType weather.ReportType
	}{
		{s.morningTime, weather.ReportMorning},
		{s.eveningTime, weather.ReportEvening},
	}

	for _, j := range jobs {
		_, err := s.scheduler.Every(1).Day().At(j.at).Tag(string(j.reportType)).Do(s.run, j.reportType)
		if err != nil {
			return fmt.Errorf("scheduling %s report at %s: %w", j.reportType, j.at, err)
		}
		s.logger.Info().Str("report", string(j.reportType)).Str("at", j.at).Msg("report scheduled")
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run(reportType weather.ReportType) {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	if err := s.runner.Run(ctx, reportType); err != nil {
		s.logger.Error().Err(err).Str("report", string(reportType)).Msg("scheduled report failed")
	}
}

// NextRuns returns the next trigger time per report type.
func (s *Scheduler) NextRuns() map[weather.ReportType]time.Time {
	next := make(map[weather.ReportType]time.Time)
	for _, job := range s.scheduler.Jobs() {
		for _, tag := range job.Tags() {
			next[weather.ReportType(tag)] = job.NextRun()
		}
	}
	return next
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
