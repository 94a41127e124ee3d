package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-telegram-report/internal/common"
	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// googleGeocoded resolves coordinates through the Google Geocoding API and delegates
// the weather calls to the wrapped provider.
type googleGeocoded struct {
	weather.Provider
	geocode func(geocoder.Address) (geocoder.Location, error)
}

// WithGoogleGeocoder replaces the geocoding step of p with Google geocoding.
func WithGoogleGeocoder(p weather.Provider, apiKey string) weather.Provider {
	geocoder.ApiKey = apiKey
	return &googleGeocoded{Provider: p, geocode: geocoder.Geocoding}
}

// GetCoordinates accepts "City" or "City,Country".
func (g *googleGeocoded) GetCoordinates(_ context.Context, city string) (weather.Coordinates, error) {
	address := geocoder.Address{City: strings.TrimSpace(city)}
	if name, country, ok := strings.Cut(city, ","); ok {
		address.City = strings.TrimSpace(name)
		address.Country = strings.TrimSpace(country)
	}

	loc, err := g.geocode(address)
	if err != nil {
		if common.HasAny(err.Error(), "ZERO_RESULTS", "no results") {
			return weather.Coordinates{}, fmt.Errorf("%w: city %q", weather.ErrNotFound, city)
		}
		return weather.Coordinates{}, &weather.UpstreamError{Provider: "google", Op: "geocode", Err: err}
	}
	return weather.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
