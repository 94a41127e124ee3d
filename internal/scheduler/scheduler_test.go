package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls []weather.ReportType
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, reportType weather.ReportType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return errors.New("missing deadline")
	}
	r.calls = append(r.calls, reportType)
	return r.err
}

func TestScheduler_SchedulesBothReports(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	s := New(&recordingRunner{}, loc, "07:00", "20:00", zerolog.Nop())
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	next := s.NextRuns()
	require.Contains(t, next, weather.ReportMorning)
	require.Contains(t, next, weather.ReportEvening)

	morning := next[weather.ReportMorning].In(loc)
	evening := next[weather.ReportEvening].In(loc)
	assert.Equal(t, 7, morning.Hour())
	assert.Equal(t, 0, morning.Minute())
	assert.Equal(t, 20, evening.Hour())
	assert.True(t, morning.After(time.Now()))
	assert.True(t, evening.After(time.Now()))
}

func TestScheduler_InvalidTime(t *testing.T) {
	s := New(&recordingRunner{}, time.UTC, "25:99", "20:00", zerolog.Nop())
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "morning")
	s.Stop()
}

func TestScheduler_RunPassesReportTypeWithDeadline(t *testing.T) {
	runner := &recordingRunner{err: errors.New("send failed")}
	s := New(runner, time.UTC, "07:00", "20:00", zerolog.Nop())

	s.run(weather.ReportEvening)
	s.run(weather.ReportMorning)

	assert.Equal(t, []weather.ReportType{weather.ReportEvening, weather.ReportMorning}, runner.calls)
}
