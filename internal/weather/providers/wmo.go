package providers

import (
	"fmt"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// wmoDescriptions covers the WMO weather interpretation codes Open-Meteo emits (the 28 codes of its
// weather_code documentation). Codes outside this set render through DescribeWMOCode's fallback.
var wmoDescriptions = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow fall",
	73: "moderate snow fall",
	75: "heavy snow fall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// DescribeWMOCode returns the text for a WMO code. Unknown codes are rendered, not rejected.
func DescribeWMOCode(code int) string {
	if desc, ok := wmoDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("unknown weather code %d", code)
}

func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0 || code == 1:
		return weather.ConditionClear
	case code == 2 || code == 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95 && code <= 99:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
