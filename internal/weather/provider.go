package weather

import (
	"context"
	"time"
)

// Provider abstracts an upstream weather source (OpenWeatherMap, Open-Meteo).
//
// Implementations decide what "today" means from their own timestamp semantics and
// never from the clock of the machine running the report.
type Provider interface {
	Name() string
	GetCoordinates(ctx context.Context, city string) (Coordinates, error)
	GetCurrentWeather(ctx context.Context, lat, lon float64) (CurrentWeather, error)
	GetTodayForecast(ctx context.Context, lat, lon float64) (ForecastSnapshot, error)
}

// ReadingStore persists observed readings per local date.
// Load never fails; a missing or corrupt file yields an empty map.
type ReadingStore interface {
	Load() DailyReadings
	Save(records DailyReadings, now time.Time) error
}

// ForecastStore persists the morning snapshot per local date.
type ForecastStore interface {
	Load() MorningForecasts
	Save(records MorningForecasts, now time.Time) error
}
