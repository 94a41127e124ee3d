package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// OpenMeteoName is the factory key of the Open-Meteo provider.
const OpenMeteoName = "open_meteo"

const (
	defaultOpenMeteoForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultOpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// OpenMeteoProvider implements weather.Provider for Open-Meteo. No API key is needed.
//
// Samples come back as UTC epoch seconds together with the location's UTC offset. "Today" is
// the location's calendar day (UTC now shifted by that offset), so it never depends on the
// timezone of the machine running the report.
type OpenMeteoProvider struct {
	name         string
	forecastURL  string
	geocodingURL string
	api          upstream
	now          func() time.Time
}

func NewOpenMeteoProvider(opts Options) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:         OpenMeteoName,
		forecastURL:  defaultOpenMeteoForecastURL,
		geocodingURL: defaultOpenMeteoGeocodingURL,
		api:          newUpstream(OpenMeteoName, opts),
		now:          time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) GetCoordinates(ctx context.Context, city string) (weather.Coordinates, error) {
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", "1")
	values.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err := p.api.getJSON(ctx, "geocode", p.geocodingURL, values, &payload); err != nil {
		return weather.Coordinates{}, err
	}
	if len(payload.Results) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: city %q", weather.ErrNotFound, city)
	}

	return weather.Coordinates{Lat: payload.Results[0].Latitude, Lon: payload.Results[0].Longitude}, nil
}

type openMeteoDaily struct {
	Time    []int64   `json:"time"`
	TempMax []float64 `json:"temperature_2m_max"`
	TempMin []float64 `json:"temperature_2m_min"`
}

// forToday returns the daily bounds whose local date equals localToday.
// Rows are stamped at local midnight under that day's own offset, which differs from the current
// offset on DST change days, so rows are matched by their local noon instead.
func (d openMeteoDaily) forToday(localToday string, offset int) (maxTemp, minTemp float64, ok bool) {
	for i, epoch := range d.Time {
		if i >= len(d.TempMax) || i >= len(d.TempMin) {
			break
		}
		noon := time.Unix(epoch, 0).Add(12 * time.Hour)
		if weather.LocalDate(noon, offset) == localToday {
			return d.TempMax[i], d.TempMin[i], true
		}
	}
	return 0, 0, false
}

func (p *OpenMeteoProvider) GetCurrentWeather(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	values := pointValues(lat, lon)
	values.Set("current", "temperature_2m,weather_code")
	values.Set("daily", "temperature_2m_max,temperature_2m_min")
	values.Set("forecast_days", "1")

	var payload struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
		Current          struct {
			Time        int64   `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
		Daily openMeteoDaily `json:"daily"`
	}
	if err := p.api.getJSON(ctx, "current", p.forecastURL, values, &payload); err != nil {
		return weather.CurrentWeather{}, err
	}

	current := weather.CurrentWeather{
		Temp:        payload.Current.Temperature,
		Description: DescribeWMOCode(payload.Current.WeatherCode),
		Condition:   mapOpenMeteoCondition(payload.Current.WeatherCode),
	}
	localToday := weather.LocalDate(p.now(), payload.UTCOffsetSeconds)
	if maxTemp, minTemp, ok := payload.Daily.forToday(localToday, payload.UTCOffsetSeconds); ok {
		current.TempMax = &maxTemp
		current.TempMin = &minTemp
	}
	return current, nil
}

// GetTodayForecast keeps the hourly samples whose offset-shifted date is the location's today
// and whose UTC instant is not before now. The daily max/min of today always take part in
// the forecast bounds, even when no hourly sample is left.
func (p *OpenMeteoProvider) GetTodayForecast(ctx context.Context, lat, lon float64) (weather.ForecastSnapshot, error) {
	values := pointValues(lat, lon)
	values.Set("hourly", "temperature_2m,weather_code")
	values.Set("daily", "temperature_2m_max,temperature_2m_min")
	// The location's today can be UTC yesterday or tomorrow; ask for a window that covers both.
	values.Set("past_days", "1")
	values.Set("forecast_days", "2")

	var payload struct {
		UTCOffsetSeconds     int    `json:"utc_offset_seconds"`
		TimezoneAbbreviation string `json:"timezone_abbreviation"`
		Hourly               struct {
			Time        []int64   `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
			WeatherCode []int     `json:"weather_code"`
		} `json:"hourly"`
		Daily openMeteoDaily `json:"daily"`
	}
	if err := p.api.getJSON(ctx, "forecast", p.forecastURL, values, &payload); err != nil {
		return weather.ForecastSnapshot{}, err
	}

	offset := payload.UTCOffsetSeconds
	nowUTC := p.now().UTC()
	localToday := weather.LocalDate(nowUTC, offset)
	display := time.FixedZone(payload.TimezoneAbbreviation, offset)

	var (
		kept      []weather.ForecastEntry
		todayTemp []float64
		firstCode = -1
		lastPast  = -1
	)
	for i, epoch := range payload.Hourly.Time {
		if i >= len(payload.Hourly.Temperature) || i >= len(payload.Hourly.WeatherCode) {
			break
		}
		ts := time.Unix(epoch, 0).UTC()
		if weather.LocalDate(ts, offset) != localToday {
			continue
		}
		temp, code := payload.Hourly.Temperature[i], payload.Hourly.WeatherCode[i]
		todayTemp = append(todayTemp, temp)
		if firstCode < 0 {
			firstCode = code
		}
		if ts.Before(nowUTC) {
			lastPast = i
			continue
		}
		kept = append(kept, weather.ForecastEntry{
			Time:        ts.In(display),
			Temperature: temp,
			Description: DescribeWMOCode(code),
			Condition:   mapOpenMeteoCondition(code),
		})
	}

	dailyMax, dailyMin, hasDaily := payload.Daily.forToday(localToday, offset)
	if !hasDaily && len(todayTemp) == 0 {
		return weather.ForecastSnapshot{}, &weather.UpstreamError{
			Provider: p.name,
			Op:       "forecast",
			Err:      fmt.Errorf("no data for local date %s", localToday),
		}
	}

	bounds := make([]float64, 0, len(kept)+2)
	for _, e := range kept {
		bounds = append(bounds, e.Temperature)
	}
	if hasDaily {
		bounds = append(bounds, dailyMax, dailyMin)
	} else if len(bounds) == 0 {
		bounds = todayTemp
	}
	maxTemp, minTemp := bounds[0], bounds[0]
	for _, v := range bounds[1:] {
		maxTemp = max(maxTemp, v)
		minTemp = min(minTemp, v)
	}

	snapshot := weather.ForecastSnapshot{
		Provider:         p.name,
		ForecastedMax:    maxTemp,
		ForecastedMin:    minTemp,
		DetailedForecast: kept,
	}
	switch {
	case len(kept) > 0:
		snapshot.CurrentTemp = kept[0].Temperature
		snapshot.Description = kept[0].Description
		snapshot.Condition = kept[0].Condition
	default:
		p.api.logger.Info().Str("local_date", localToday).Msg("no hourly samples left today")
		snapshot.CurrentTemp = maxTemp
		if lastPast >= 0 {
			snapshot.CurrentTemp = payload.Hourly.Temperature[lastPast]
		}
		snapshot.Description = DescribeWMOCode(firstCode)
		snapshot.Condition = mapOpenMeteoCondition(firstCode)
		if firstCode < 0 {
			snapshot.Description = ""
			snapshot.Condition = weather.ConditionUnknown
		}
	}

	snapshot.Normalize()
	return snapshot, nil
}

func pointValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	return values
}
