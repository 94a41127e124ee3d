package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// OpenWeatherMapName is the factory key of the OpenWeatherMap provider.
const OpenWeatherMapName = "openweathermap"

const defaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap.
// "Today" is the current UTC calendar day, matching the UTC epoch timestamps of the 3-hour forecast.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	api     upstream
	now     func() time.Time
}

func NewOpenWeatherProvider(apiKey string, opts Options) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    OpenWeatherMapName,
		apiKey:  apiKey,
		baseURL: defaultOpenWeatherBaseURL,
		api:     newUpstream(OpenWeatherMapName, opts),
		now:     time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) GetCoordinates(ctx context.Context, city string) (weather.Coordinates, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("limit", "1")
	values.Set("appid", p.apiKey)

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
	}
	if err := p.api.getJSON(ctx, "geocode", p.baseURL+"/geo/1.0/direct", values, &payload); err != nil {
		return weather.Coordinates{}, err
	}
	if len(payload) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: city %q", weather.ErrNotFound, city)
	}

	return weather.Coordinates{Lat: payload[0].Lat, Lon: payload[0].Lon}, nil
}

func (p *OpenWeatherProvider) GetCurrentWeather(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	var payload struct {
		Main struct {
			Temp    float64  `json:"temp"`
			TempMax *float64 `json:"temp_max"`
			TempMin *float64 `json:"temp_min"`
		} `json:"main"`
		Weather []owmWeather `json:"weather"`
	}
	if err := p.api.getJSON(ctx, "current", p.baseURL+"/data/2.5/weather", p.pointValues(lat, lon), &payload); err != nil {
		return weather.CurrentWeather{}, err
	}

	return weather.CurrentWeather{
		Temp:        payload.Main.Temp,
		TempMax:     payload.Main.TempMax,
		TempMin:     payload.Main.TempMin,
		Description: describeOpenWeather(payload.Weather),
		Condition:   mapOpenWeatherCondition(payload.Weather),
	}, nil
}

// GetTodayForecast keeps the 3-hour slots whose UTC date is today and whose instant is not in the past.
// When none survive (late in the UTC day) the snapshot is built from current weather instead.
func (p *OpenWeatherProvider) GetTodayForecast(ctx context.Context, lat, lon float64) (weather.ForecastSnapshot, error) {
	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []owmWeather `json:"weather"`
		} `json:"list"`
		City struct {
			Timezone int `json:"timezone"`
		} `json:"city"`
	}
	if err := p.api.getJSON(ctx, "forecast", p.baseURL+"/data/2.5/forecast", p.pointValues(lat, lon), &payload); err != nil {
		return weather.ForecastSnapshot{}, err
	}

	now := p.now().UTC()
	today := weather.DateKey(now)
	display := time.FixedZone("", payload.City.Timezone)

	var kept []weather.ForecastEntry
	for _, item := range payload.List {
		ts := time.Unix(item.Dt, 0).UTC()
		if weather.DateKey(ts) != today || ts.Before(now) {
			continue
		}
		kept = append(kept, weather.ForecastEntry{
			Time:        ts.In(display),
			Temperature: item.Main.Temp,
			Description: describeOpenWeather(item.Weather),
			Condition:   mapOpenWeatherCondition(item.Weather),
		})
	}

	if len(kept) == 0 {
		p.api.logger.Info().Str("utc_date", today).Msg("no forecast slots left today, using current weather")
		current, err := p.GetCurrentWeather(ctx, lat, lon)
		if err != nil {
			return weather.ForecastSnapshot{}, err
		}
		snapshot := snapshotFromCurrent(p.name, current)
		snapshot.Normalize()
		return snapshot, nil
	}

	snapshot := weather.ForecastSnapshot{
		Provider:         p.name,
		ForecastedMax:    kept[0].Temperature,
		ForecastedMin:    kept[0].Temperature,
		CurrentTemp:      kept[0].Temperature,
		Description:      kept[0].Description,
		Condition:        kept[0].Condition,
		DetailedForecast: kept,
	}
	for _, e := range kept[1:] {
		if e.Temperature > snapshot.ForecastedMax {
			snapshot.ForecastedMax = e.Temperature
		}
		if e.Temperature < snapshot.ForecastedMin {
			snapshot.ForecastedMin = e.Temperature
		}
	}
	snapshot.Normalize()
	return snapshot, nil
}

func (p *OpenWeatherProvider) pointValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", formatCoord(lat))
	values.Set("lon", formatCoord(lon))
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	return values
}

// snapshotFromCurrent builds a forecast from an instantaneous observation.
// Missing bounds collapse to the current temperature.
func snapshotFromCurrent(provider string, current weather.CurrentWeather) weather.ForecastSnapshot {
	maxTemp, minTemp := current.Temp, current.Temp
	if current.TempMax != nil {
		maxTemp = *current.TempMax
	}
	if current.TempMin != nil {
		minTemp = *current.TempMin
	}
	return weather.ForecastSnapshot{
		Provider:         provider,
		ForecastedMax:    maxTemp,
		ForecastedMin:    minTemp,
		CurrentTemp:      current.Temp,
		Description:      current.Description,
		Condition:        current.Condition,
		DetailedForecast: []weather.ForecastEntry{},
	}
}

type owmWeather struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

func describeOpenWeather(items []owmWeather) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Description
}

func mapOpenWeatherCondition(items []owmWeather) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand", "Ash":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
