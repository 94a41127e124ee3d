package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-telegram-report/internal/common"
	"github.com/i474232898/weather-telegram-report/internal/weather"
)

const dayLayout = "January 02"

var titleCaser = cases.Title(language.English)

// RenderForecast formats a morning report as Telegram Markdown.
// At most slots detailed entries are listed; zero hides the section.
func RenderForecast(r ForecastReport, slots int) string {
	f := r.Forecast
	var b strings.Builder

	fmt.Fprintf(&b, "🌤️ *Daily Weather Report for* %s\n\n", escapeMarkdown(r.City))

	if y := r.Yesterday; y != nil {
		fmt.Fprintf(&b, "📅 *Yesterday (%s)*:\n", r.LocalNow.AddDate(0, 0, -1).Format(dayLayout))
		fmt.Fprintf(&b, "   🌡️ Max: `%s`\n", celsius(y.ActualMax))
		fmt.Fprintf(&b, "   🥶 Min: `%s`\n\n", celsius(y.ActualMin))
	}

	fmt.Fprintf(&b, "📅 *Today (%s)*:\n", r.LocalNow.Format(dayLayout))
	fmt.Fprintf(&b, "   🌡️ Max: `%s`\n", celsius(f.ForecastedMax))
	fmt.Fprintf(&b, "   🥶 Min: `%s`\n", celsius(f.ForecastedMin))
	fmt.Fprintf(&b, "   🕒 Now: `%s`\n", celsius(f.CurrentTemp))
	fmt.Fprintf(&b, "   %s Conditions: `%s`\n", icon(f.Condition, f.Description), titleCaser.String(f.Description))

	if n := min(slots, len(f.DetailedForecast)); n > 0 {
		b.WriteString("\n⏰ *Coming up*:\n")
		for _, e := range f.DetailedForecast[:n] {
			fmt.Fprintf(&b, "   `%s` %s %s, %s\n",
				e.Time.Format("15:04"), icon(e.Condition, e.Description), celsius(e.Temperature), e.Description)
		}
	}

	b.WriteString("\nHave a great day! 🌟")
	return b.String()
}

// RenderSummary formats an evening report as Telegram Markdown.
func RenderSummary(r SummaryReport) string {
	c := r.Current
	t := r.Today
	var b strings.Builder

	fmt.Fprintf(&b, "🌙 *Evening Weather Summary for* %s\n\n", escapeMarkdown(r.City))

	fmt.Fprintf(&b, "📅 *Today (%s)*:\n", r.LocalNow.Format(dayLayout))
	fmt.Fprintf(&b, "   🕒 Now: `%s`\n", celsius(c.Temp))
	fmt.Fprintf(&b, "   %s Conditions: `%s`\n", icon(c.Condition, c.Description), titleCaser.String(c.Description))
	fmt.Fprintf(&b, "   📈 Max: `%s`\n", celsius(t.ActualMax))
	fmt.Fprintf(&b, "   📉 Min: `%s`\n", celsius(t.ActualMin))
	if t.Count > 1 {
		fmt.Fprintf(&b, "   📊 Average: `%s` over %d readings\n", celsius(t.Average), t.Count)
	}

	if cmp := r.Comparison; cmp != nil {
		b.WriteString("\n🎯 *Forecast vs Actual*:\n")
		fmt.Fprintf(&b, "   Max: forecast `%s`, actual `%s` (%s)\n",
			celsius(cmp.ForecastedMax), celsius(cmp.ActualMax), delta(cmp.MaxDelta))
		fmt.Fprintf(&b, "   Min: forecast `%s`, actual `%s` (%s)\n",
			celsius(cmp.ForecastedMin), celsius(cmp.ActualMin), delta(cmp.MinDelta))
	}

	b.WriteString("\nGood night! 🌙")
	return b.String()
}

// RenderError formats the failure notification sent when a report cannot be built.
func RenderError(city string, err error) string {
	detail := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Weather Report Error*\n\nFailed to generate weather report for %s:\n`%s`", escapeMarkdown(city), detail)
}

// markdownEscaper escapes the characters Telegram's Markdown mode treats as entity markers.
// Escapes only work outside an entity, so escaped text must not sit inside *...* or `...`.
var markdownEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func celsius(v float64) string {
	return fmt.Sprintf("%.1f°C", v)
}

func delta(v float64) string {
	switch {
	case v > 0:
		return fmt.Sprintf("%+.1f°C warmer", v)
	case v < 0:
		return fmt.Sprintf("%+.1f°C colder", v)
	default:
		return "spot on"
	}
}

// icon picks an emoji from the condition, falling back to keywords in the description.
func icon(c weather.Condition, description string) string {
	switch c {
	case weather.ConditionClear:
		return "☀️"
	case weather.ConditionCloudy:
		return "☁️"
	case weather.ConditionRain:
		return "🌧️"
	case weather.ConditionSnow:
		return "❄️"
	case weather.ConditionStorm:
		return "⛈️"
	case weather.ConditionMist:
		return "🌫️"
	}

	switch {
	case common.HasAny(description, "thunder", "storm"):
		return "⛈️"
	case common.HasAny(description, "snow", "sleet"):
		return "❄️"
	case common.HasAny(description, "rain", "drizzle", "shower"):
		return "🌧️"
	case common.HasAny(description, "fog", "mist", "haze"):
		return "🌫️"
	case common.HasAny(description, "cloud", "overcast"):
		return "☁️"
	case common.HasAny(description, "clear", "sun"):
		return "☀️"
	}
	return "🌡️"
}
