package providers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

type registration struct {
	requiresAPIKey bool
	build          func(apiKey string, opts Options) weather.Provider
}

var registry = map[string]registration{
	OpenWeatherMapName: {
		requiresAPIKey: true,
		build: func(apiKey string, opts Options) weather.Provider {
			return NewOpenWeatherProvider(apiKey, opts)
		},
	},
	OpenMeteoName: {
		build: func(_ string, opts Options) weather.Provider {
			return NewOpenMeteoProvider(opts)
		},
	},
}

// Names lists the recognized provider names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the provider registered under name (case-insensitive).
// It fails with weather.ErrConfig for unknown names or a missing required API key.
func Create(name, apiKey string, opts Options) (weather.Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	reg, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported weather provider %q; available providers: %s",
			weather.ErrConfig, name, strings.Join(Names(), ", "))
	}
	if reg.requiresAPIKey && strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: weather provider %q requires an API key", weather.ErrConfig, key)
	}
	return reg.build(apiKey, opts), nil
}
