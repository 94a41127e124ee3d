package report

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

type fakeProvider struct {
	coords      weather.Coordinates
	coordsErr   error
	current     weather.CurrentWeather
	currentErr  error
	forecast    weather.ForecastSnapshot
	forecastErr error
	cities      []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) GetCoordinates(_ context.Context, city string) (weather.Coordinates, error) {
	p.cities = append(p.cities, city)
	return p.coords, p.coordsErr
}

func (p *fakeProvider) GetCurrentWeather(context.Context, float64, float64) (weather.CurrentWeather, error) {
	return p.current, p.currentErr
}

func (p *fakeProvider) GetTodayForecast(context.Context, float64, float64) (weather.ForecastSnapshot, error) {
	return p.forecast, p.forecastErr
}

// memReadings copies on Load and Save the way a file round trip would.
type memReadings struct {
	data    weather.DailyReadings
	saveErr error
	savedAt time.Time
}

func (s *memReadings) Load() weather.DailyReadings {
	out := make(weather.DailyReadings, len(s.data))
	for k, v := range s.data {
		out[k] = append([]weather.Reading(nil), v...)
	}
	return out
}

func (s *memReadings) Save(records weather.DailyReadings, now time.Time) error {
	s.savedAt = now
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = make(weather.DailyReadings, len(records))
	for k, v := range records {
		s.data[k] = append([]weather.Reading(nil), v...)
	}
	return nil
}

type memForecasts struct {
	data    weather.MorningForecasts
	saveErr error
	savedAt time.Time
}

func (s *memForecasts) Load() weather.MorningForecasts {
	out := make(weather.MorningForecasts, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func (s *memForecasts) Save(records weather.MorningForecasts, now time.Time) error {
	s.savedAt = now
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = make(weather.MorningForecasts, len(records))
	for k, v := range records {
		s.data[k] = v
	}
	return nil
}

type fakeNotifier struct {
	sent []string
	errs []error
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.sent = append(n.sent, text)
	if len(n.errs) == 0 {
		return nil
	}
	err := n.errs[0]
	n.errs = n.errs[1:]
	return err
}

var errBoom = errors.New("boom")
