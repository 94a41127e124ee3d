package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

func TestCreate_UnknownProvider(t *testing.T) {
	_, err := Create("bogus", "key", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrConfig)
	assert.Contains(t, err.Error(), "bogus")
	for _, name := range Names() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestCreate_MissingAPIKey(t *testing.T) {
	_, err := Create("openweathermap", "  ", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrConfig)
	assert.Contains(t, err.Error(), "API key")
}

func TestCreate_KnownProviders(t *testing.T) {
	p, err := Create("OpenWeatherMap", "secret", Options{})
	require.NoError(t, err)
	assert.IsType(t, &OpenWeatherProvider{}, p)
	assert.Equal(t, OpenWeatherMapName, p.Name())

	p, err = Create(" open_meteo ", "", Options{})
	require.NoError(t, err)
	assert.IsType(t, &OpenMeteoProvider{}, p)
	assert.Equal(t, OpenMeteoName, p.Name())
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"open_meteo", "openweathermap"}, Names())
}

type stubProvider struct {
	current weather.CurrentWeather
}

func (s stubProvider) Name() string { return "stub" }

func (s stubProvider) GetCoordinates(context.Context, string) (weather.Coordinates, error) {
	return weather.Coordinates{Lat: 1, Lon: 1}, nil
}

func (s stubProvider) GetCurrentWeather(context.Context, float64, float64) (weather.CurrentWeather, error) {
	return s.current, nil
}

func (s stubProvider) GetTodayForecast(context.Context, float64, float64) (weather.ForecastSnapshot, error) {
	return weather.ForecastSnapshot{}, nil
}

func TestGoogleGeocoded(t *testing.T) {
	var got geocoder.Address
	g := &googleGeocoded{
		Provider: stubProvider{current: weather.CurrentWeather{Temp: 7}},
		geocode: func(a geocoder.Address) (geocoder.Location, error) {
			got = a
			return geocoder.Location{Latitude: 48.8566, Longitude: 2.3522}, nil
		},
	}

	coords, err := g.GetCoordinates(context.Background(), "Paris, FR")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "FR", got.Country)
	assert.Equal(t, weather.Coordinates{Lat: 48.8566, Lon: 2.3522}, coords)

	// Weather calls still go to the wrapped provider.
	assert.Equal(t, "stub", g.Name())
	cw, err := g.GetCurrentWeather(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cw.Temp)
}

func TestGoogleGeocoded_Errors(t *testing.T) {
	g := &googleGeocoded{
		Provider: stubProvider{},
		geocode: func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{}, errors.New("ZERO_RESULTS")
		},
	}
	_, err := g.GetCoordinates(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrNotFound)

	g.geocode = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}
	_, err = g.GetCoordinates(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrUpstream)
}
