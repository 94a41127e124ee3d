package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-telegram-report/internal/notify"
	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// Runner builds one report and delivers it. Any failure is reported to the chat as well.
// Runs are serialized so the local files see one writer at a time.
type Runner struct {
	mu            sync.Mutex
	assembler     *Assembler
	notifier      notify.Notifier
	forecastSlots int
	logger        zerolog.Logger
	now           func() time.Time
}

func NewRunner(assembler *Assembler, notifier notify.Notifier, forecastSlots int, logger zerolog.Logger) *Runner {
	return &Runner{
		assembler:     assembler,
		notifier:      notifier,
		forecastSlots: forecastSlots,
		logger:        logger,
		now:           time.Now,
	}
}

// Run produces the requested report (auto is resolved from the local hour) and sends it.
// On failure an error notification is attempted and the original error is returned.
func (r *Runner) Run(ctx context.Context, configured weather.ReportType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	reportType := weather.ResolveReportType(configured, now.In(r.assembler.Location()))

	log := r.logger.With().
		Str("run_id", uuid.NewString()).
		Str("report", string(reportType)).
		Str("city", r.assembler.City()).
		Logger()
	log.Info().Msg("building report")

	err := r.deliver(ctx, reportType, now, log)
	if err == nil {
		log.Info().Dur("elapsed", time.Since(now)).Msg("report sent")
		return nil
	}

	log.Error().Err(err).Msg("report failed")
	if sendErr := r.notifier.Send(ctx, RenderError(r.assembler.City(), err)); sendErr != nil {
		log.Error().Err(sendErr).Msg("sending error notification failed")
	}
	return err
}

func (r *Runner) deliver(ctx context.Context, reportType weather.ReportType, now time.Time, log zerolog.Logger) error {
	assembler := *r.assembler
	assembler.logger = log

	var text string
	switch reportType {
	case weather.ReportMorning:
		rep, err := assembler.Morning(ctx, now)
		if err != nil {
			return err
		}
		text = RenderForecast(rep, r.forecastSlots)
	case weather.ReportEvening:
		rep, err := assembler.Evening(ctx, now)
		if err != nil {
			return err
		}
		text = RenderSummary(rep)
	default:
		return fmt.Errorf("%w: unsupported report type %q", weather.ErrConfig, reportType)
	}

	return r.notifier.Send(ctx, text)
}
