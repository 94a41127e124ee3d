package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// ForecastReport is the payload of a morning run.
type ForecastReport struct {
	City      string
	LocalNow  time.Time
	Forecast  weather.ForecastSnapshot
	Yesterday *weather.DailySummary
}

// SummaryReport is the payload of an evening run.
// Morning and Comparison are nil when no morning snapshot exists for the day.
type SummaryReport struct {
	City       string
	LocalNow   time.Time
	Current    weather.CurrentWeather
	Today      weather.DailySummary
	Morning    *weather.ForecastSnapshot
	Comparison *weather.Comparison
}

// Assembler turns provider calls and local history into report payloads.
type Assembler struct {
	provider  weather.Provider
	readings  weather.ReadingStore
	forecasts weather.ForecastStore
	city      string
	location  *time.Location
	logger    zerolog.Logger
}

func NewAssembler(
	provider weather.Provider,
	readings weather.ReadingStore,
	forecasts weather.ForecastStore,
	city string,
	location *time.Location,
	logger zerolog.Logger,
) *Assembler {
	if location == nil {
		location = time.UTC
	}
	return &Assembler{
		provider:  provider,
		readings:  readings,
		forecasts: forecasts,
		city:      city,
		location:  location,
		logger:    logger,
	}
}

func (a *Assembler) City() string {
	return a.city
}

func (a *Assembler) Location() *time.Location {
	return a.location
}

func (a *Assembler) coordinates(ctx context.Context) (weather.Coordinates, error) {
	coords, err := a.provider.GetCoordinates(ctx, a.city)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("resolving %s: %w", a.city, err)
	}
	a.logger.Debug().Float64("lat", coords.Lat).Float64("lon", coords.Lon).Msg("coordinates resolved")
	return coords, nil
}

// Morning fetches today's forecast, stores it for the evening comparison and
// attaches yesterday's observed envelope when one was recorded.
func (a *Assembler) Morning(ctx context.Context, now time.Time) (ForecastReport, error) {
	localNow := now.In(a.location)
	today := weather.DateKey(localNow)

	coords, err := a.coordinates(ctx)
	if err != nil {
		return ForecastReport{}, err
	}

	snap, err := a.provider.GetTodayForecast(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return ForecastReport{}, fmt.Errorf("fetching forecast: %w", err)
	}
	snap.Normalize()

	forecasts := a.forecasts.Load()
	forecasts[today] = snap
	if err := a.forecasts.Save(forecasts, localNow); err != nil {
		a.logger.Warn().Err(err).Msg("storing morning forecast failed")
	}

	report := ForecastReport{City: a.city, LocalNow: localNow, Forecast: snap}

	yesterday := weather.DateKey(localNow.AddDate(0, 0, -1))
	if summary, ok := weather.Summarize(yesterday, a.readings.Load()[yesterday]); ok {
		report.Yesterday = &summary
	}
	return report, nil
}

// Evening records the current temperature under local today and summarizes the day so far
// against the stored morning forecast.
func (a *Assembler) Evening(ctx context.Context, now time.Time) (SummaryReport, error) {
	localNow := now.In(a.location)
	today := weather.DateKey(localNow)

	coords, err := a.coordinates(ctx)
	if err != nil {
		return SummaryReport{}, err
	}

	current, err := a.provider.GetCurrentWeather(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("fetching current weather: %w", err)
	}
	current.Temp = weather.Round1(current.Temp)

	readings := a.readings.Load()
	readings.Append(today, weather.Reading{
		Time:        localNow.Format("15:04"),
		Temperature: current.Temp,
		Description: current.Description,
		Condition:   current.Condition,
	})
	if err := a.readings.Save(readings, localNow); err != nil {
		a.logger.Warn().Err(err).Msg("storing reading failed")
	}

	summary, _ := weather.Summarize(today, readings[today])
	report := SummaryReport{City: a.city, LocalNow: localNow, Current: current, Today: summary}

	if morning, ok := a.forecasts.Load()[today]; ok {
		cmp := weather.Compare(morning, summary)
		report.Morning = &morning
		report.Comparison = &cmp
	}
	a.logger.Debug().Int("readings", summary.Count).Bool("has_morning", report.Morning != nil).Msg("evening summary built")
	return report, nil
}
