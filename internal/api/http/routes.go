package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

var validate = validator.New()

// ReadingSource is the read side of the readings store.
type ReadingSource interface {
	Load() weather.DailyReadings
}

// ForecastSource is the read side of the morning forecast store.
type ForecastSource interface {
	Load() weather.MorningForecasts
}

// Deps holds what the status routes read from.
type Deps struct {
	Readings  ReadingSource
	Forecasts ForecastSource
	Location  *time.Location
	City      string
	Now       func() time.Time

	// NextRuns reports upcoming scheduled runs; nil when nothing is scheduled.
	NextRuns func() map[weather.ReportType]time.Time
}

// RegisterRoutes wires the read-only status handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if deps.NextRuns != nil {
			next := fiber.Map{}
			for rt, at := range deps.NextRuns() {
				next[string(rt)] = at.In(deps.Location).Format(time.RFC3339)
			}
			body["next_runs"] = next
		}
		return c.JSON(body)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/readings", func(c *fiber.Ctx) error {
		date, err := parseDateQuery(c, deps)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		readings := deps.Readings.Load()[date]
		summary, ok := weather.Summarize(date, readings)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no readings recorded for "+date)
		}

		return c.JSON(fiber.Map{
			"city":     deps.City,
			"date":     date,
			"readings": readings,
			"summary":  summary,
		})
	})

	v1.Get("/forecasts", func(c *fiber.Ctx) error {
		date, err := parseDateQuery(c, deps)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, ok := deps.Forecasts.Load()[date]
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no morning forecast stored for "+date)
		}

		resp := fiber.Map{
			"city":     deps.City,
			"date":     date,
			"forecast": snap,
		}
		if summary, ok := weather.Summarize(date, deps.Readings.Load()[date]); ok {
			resp["comparison"] = weather.Compare(snap, summary)
		}
		return c.JSON(resp)
	})
}

// dateQuery holds the optional date selector shared by the history endpoints.
type dateQuery struct {
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

// parseDateQuery returns the requested date, defaulting to today in the configured timezone.
func parseDateQuery(c *fiber.Ctx, deps Deps) (string, error) {
	q := dateQuery{Date: strings.TrimSpace(c.Query("date"))}
	if err := validate.Struct(q); err != nil {
		return "", errors.New("invalid date; use YYYY-MM-DD")
	}
	if q.Date == "" {
		return weather.DateKey(deps.Now().In(deps.Location)), nil
	}
	return q.Date, nil
}
