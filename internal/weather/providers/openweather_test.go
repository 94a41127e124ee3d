package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestOpenWeather(t *testing.T, handler http.Handler, now time.Time) *OpenWeatherProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewOpenWeatherProvider("test-key", Options{Client: server.Client()})
	p.baseURL = server.URL
	p.now = fixedClock(now)
	return p
}

type owmSlot struct {
	at   time.Time
	temp float64
	main string
	desc string
}

func owmForecastBody(tz int, slots ...owmSlot) map[string]interface{} {
	list := make([]map[string]interface{}, 0, len(slots))
	for _, s := range slots {
		list = append(list, map[string]interface{}{
			"dt":      s.at.Unix(),
			"main":    map[string]float64{"temp": s.temp, "temp_min": s.temp - 1, "temp_max": s.temp + 1},
			"weather": []map[string]string{{"main": s.main, "description": s.desc}},
		})
	}
	return map[string]interface{}{
		"list": list,
		"city": map[string]interface{}{"name": "Berlin", "timezone": tz},
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestOpenWeather_GetCoordinates(t *testing.T) {
	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Berlin", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		writeJSON(w, []map[string]interface{}{{"name": "Berlin", "lat": 52.52, "lon": 13.405, "country": "DE"}})
	}), time.Now())

	coords, err := p.GetCoordinates(context.Background(), "Berlin")
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinates{Lat: 52.52, Lon: 13.405}, coords)
}

func TestOpenWeather_GetCoordinates_NotFound(t *testing.T) {
	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []interface{}{})
	}), time.Now())

	_, err := p.GetCoordinates(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrNotFound)
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestOpenWeather_UpstreamFailure(t *testing.T) {
	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}), time.Now())

	_, err := p.GetCoordinates(context.Background(), "Berlin")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrUpstream)

	var upErr *weather.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, "geocode", upErr.Op)
}

func TestOpenWeather_GetCurrentWeather(t *testing.T) {
	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "52.5200", r.URL.Query().Get("lat"))
		writeJSON(w, map[string]interface{}{
			"main":    map[string]float64{"temp": 18.5, "temp_min": 17.0, "temp_max": 20.0},
			"weather": []map[string]string{{"main": "Clouds", "description": "broken clouds"}},
		})
	}), time.Now())

	cw, err := p.GetCurrentWeather(context.Background(), 52.52, 13.405)
	require.NoError(t, err)
	assert.Equal(t, 18.5, cw.Temp)
	require.NotNil(t, cw.TempMax)
	require.NotNil(t, cw.TempMin)
	assert.Equal(t, 20.0, *cw.TempMax)
	assert.Equal(t, 17.0, *cw.TempMin)
	assert.Equal(t, "broken clouds", cw.Description)
	assert.Equal(t, weather.ConditionCloudy, cw.Condition)
}

func TestOpenWeather_GetTodayForecast_StraddlingMidnight(t *testing.T) {
	now := time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)
	body := owmForecastBody(7200,
		owmSlot{at: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC), temp: 30.0, main: "Clear", desc: "clear sky"},
		owmSlot{at: time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC), temp: 18.04, main: "Rain", desc: "light rain"},
		owmSlot{at: time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC), temp: 21.5, main: "Clouds", desc: "few clouds"},
		owmSlot{at: time.Date(2026, 5, 10, 21, 0, 0, 0, time.UTC), temp: 16.0, main: "Clear", desc: "clear sky"},
		owmSlot{at: time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), temp: 2.0, main: "Snow", desc: "snow"},
		owmSlot{at: time.Date(2026, 5, 11, 3, 0, 0, 0, time.UTC), temp: 40.0, main: "Clear", desc: "clear sky"},
	)

	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/forecast", r.URL.Path)
		writeJSON(w, body)
	}), now)

	snap, err := p.GetTodayForecast(context.Background(), 52.52, 13.405)
	require.NoError(t, err)

	require.Len(t, snap.DetailedForecast, 3)
	assert.Equal(t, 21.5, snap.ForecastedMax)
	assert.Equal(t, 16.0, snap.ForecastedMin)
	assert.Equal(t, 18.0, snap.CurrentTemp)
	assert.Equal(t, snap.DetailedForecast[0].Temperature, snap.CurrentTemp)
	assert.Equal(t, "light rain", snap.Description)
	assert.Equal(t, weather.ConditionRain, snap.Condition)
	assert.Equal(t, OpenWeatherMapName, snap.Provider)

	// Display times follow the city's UTC offset.
	assert.Equal(t, "17:00", snap.DetailedForecast[0].Time.Format("15:04"))
	for _, e := range snap.DetailedForecast {
		assert.Equal(t, "2026-05-10", e.Time.UTC().Format(weather.DateLayout))
		assert.False(t, e.Time.Before(now))
	}
}

func TestOpenWeather_GetTodayForecast_SlotAtNowIsKept(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	body := owmForecastBody(0,
		owmSlot{at: now, temp: 12.0, main: "Clear", desc: "clear sky"},
		owmSlot{at: now.Add(3 * time.Hour), temp: 10.0, main: "Clear", desc: "clear sky"},
	)
	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, body)
	}), now)

	snap, err := p.GetTodayForecast(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, snap.DetailedForecast, 2)
	assert.Equal(t, 12.0, snap.CurrentTemp)
}

func TestOpenWeather_GetTodayForecast_AllPastFallsBackToCurrent(t *testing.T) {
	now := time.Date(2026, 5, 10, 22, 15, 0, 0, time.UTC)
	var forecastCalls, currentCalls int

	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/forecast":
			forecastCalls++
			writeJSON(w, owmForecastBody(0,
				owmSlot{at: time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC), temp: 19.0, main: "Clear", desc: "clear sky"},
				owmSlot{at: time.Date(2026, 5, 10, 21, 0, 0, 0, time.UTC), temp: 17.0, main: "Clear", desc: "clear sky"},
				owmSlot{at: time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), temp: 15.0, main: "Clear", desc: "clear sky"},
			))
		case "/data/2.5/weather":
			currentCalls++
			writeJSON(w, map[string]interface{}{
				"main":    map[string]float64{"temp": 16.44, "temp_min": 14.0, "temp_max": 19.96},
				"weather": []map[string]string{{"main": "Mist", "description": "mist"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), now)

	snap, err := p.GetTodayForecast(context.Background(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, forecastCalls)
	assert.Equal(t, 1, currentCalls)
	assert.NotNil(t, snap.DetailedForecast)
	assert.Empty(t, snap.DetailedForecast)
	assert.Equal(t, 20.0, snap.ForecastedMax)
	assert.Equal(t, 14.0, snap.ForecastedMin)
	assert.Equal(t, 16.4, snap.CurrentTemp)
	assert.Equal(t, "mist", snap.Description)
	assert.Equal(t, weather.ConditionMist, snap.Condition)
}

func TestOpenWeather_GetTodayForecast_FallbackWithoutBounds(t *testing.T) {
	now := time.Date(2026, 5, 10, 23, 0, 0, 0, time.UTC)
	p := newTestOpenWeather(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/2.5/forecast" {
			writeJSON(w, owmForecastBody(0))
			return
		}
		writeJSON(w, map[string]interface{}{
			"main":    map[string]float64{"temp": 9.5},
			"weather": []map[string]string{{"main": "Clear", "description": "clear sky"}},
		})
	}), now)

	snap, err := p.GetTodayForecast(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 9.5, snap.ForecastedMax)
	assert.Equal(t, 9.5, snap.ForecastedMin)
	assert.Equal(t, 9.5, snap.CurrentTemp)
}

func TestMapOpenWeatherCondition(t *testing.T) {
	tests := []struct {
		main string
		want weather.Condition
	}{
		{"Clear", weather.ConditionClear},
		{"Clouds", weather.ConditionCloudy},
		{"Drizzle", weather.ConditionRain},
		{"Thunderstorm", weather.ConditionStorm},
		{"Snow", weather.ConditionSnow},
		{"Haze", weather.ConditionMist},
		{"Tornado", weather.ConditionUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapOpenWeatherCondition([]owmWeather{{Main: tt.main}}), tt.main)
	}
	assert.Equal(t, weather.ConditionUnknown, mapOpenWeatherCondition(nil))
}

func TestOpenWeather_TransportFailureHidesAPIKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	p := NewOpenWeatherProvider("SECRET-KEY-123", Options{Client: server.Client()})
	p.baseURL = server.URL

	_, err := p.GetCoordinates(context.Background(), "Berlin")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrUpstream)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	assert.NotContains(t, err.Error(), "appid")
	assert.Contains(t, err.Error(), "/geo/1.0/direct")

	_, err = p.GetTodayForecast(context.Background(), 52.52, 13.405)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestWithoutQuery(t *testing.T) {
	inner := errors.New("connection refused")
	err := withoutQuery(&url.Error{Op: "Get", URL: "http://127.0.0.1:1/data/2.5/weather?appid=k&lat=1", Err: inner})
	assert.Equal(t, `Get "http://127.0.0.1:1/data/2.5/weather": connection refused`, err.Error())
	assert.ErrorIs(t, err, inner)

	plain := errors.New("circuit breaker open")
	assert.Same(t, plain, withoutQuery(plain))
}
