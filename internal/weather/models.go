package weather

import (
	"math"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Coordinates is a geocoded position. Resolved once per run from the city name.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentWeather is the instantaneous observation returned by a provider.
// TempMax and TempMin are nil when the upstream does not report them.
type CurrentWeather struct {
	Temp        float64   `json:"temp"`
	TempMax     *float64  `json:"tempMax,omitempty"`
	TempMin     *float64  `json:"tempMin,omitempty"`
	Description string    `json:"description"`
	Condition   Condition `json:"condition"`
}

// ForecastEntry is one upcoming slot of today's forecast.
// Time is the UTC instant shifted into the location's fixed offset when known.
type ForecastEntry struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temp"`
	Description string    `json:"description"`
	Condition   Condition `json:"condition"`
}

// ForecastSnapshot is the normalized forecast for the rest of the local day.
type ForecastSnapshot struct {
	Provider         string          `json:"provider"`
	ForecastedMax    float64         `json:"forecastedMax"`
	ForecastedMin    float64         `json:"forecastedMin"`
	CurrentTemp      float64         `json:"currentTemp"`
	Description      string          `json:"description"`
	Condition        Condition       `json:"condition"`
	DetailedForecast []ForecastEntry `json:"detailedForecast"`
}

// Normalize rounds temperatures to one decimal and keeps ForecastedMax >= ForecastedMin.
// When entries are present CurrentTemp is pinned to the first one.
func (s *ForecastSnapshot) Normalize() {
	if s.DetailedForecast == nil {
		s.DetailedForecast = []ForecastEntry{}
	}
	for i := range s.DetailedForecast {
		s.DetailedForecast[i].Temperature = Round1(s.DetailedForecast[i].Temperature)
	}
	if len(s.DetailedForecast) > 0 {
		s.CurrentTemp = s.DetailedForecast[0].Temperature
	}
	if s.ForecastedMax < s.ForecastedMin {
		s.ForecastedMax, s.ForecastedMin = s.ForecastedMin, s.ForecastedMax
	}
	s.ForecastedMax = Round1(s.ForecastedMax)
	s.ForecastedMin = Round1(s.ForecastedMin)
	s.CurrentTemp = Round1(s.CurrentTemp)
}

// Reading is one observed temperature recorded by an evening run.
// Time is the local wall clock ("15:04") of the run.
type Reading struct {
	Time        string    `json:"time"`
	Temperature float64   `json:"temp"`
	Description string    `json:"description"`
	Condition   Condition `json:"condition,omitempty"`
}

// DailyReadings maps a local calendar date ("2006-01-02") to the readings recorded that day,
// in insertion order.
type DailyReadings map[string][]Reading

// Append adds r to the readings of date, creating the day if absent.
func (d DailyReadings) Append(date string, r Reading) {
	d[date] = append(d[date], r)
}

// MorningForecasts maps a local calendar date to the snapshot captured by that morning's run.
type MorningForecasts map[string]ForecastSnapshot

// DailySummary is the observed envelope of one day's readings.
type DailySummary struct {
	Date      string    `json:"date"`
	ActualMax float64   `json:"actualMax"`
	ActualMin float64   `json:"actualMin"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`
	Condition Condition `json:"condition"`
}

// Comparison holds actual minus forecast deltas. Positive means warmer than forecast.
type Comparison struct {
	ForecastedMax float64 `json:"forecastedMax"`
	ForecastedMin float64 `json:"forecastedMin"`
	ActualMax     float64 `json:"actualMax"`
	ActualMin     float64 `json:"actualMin"`
	MaxDelta      float64 `json:"maxDelta"`
	MinDelta      float64 `json:"minDelta"`
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
