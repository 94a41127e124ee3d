package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DateLayout is the key format of the local data files.
const DateLayout = "2006-01-02"

// ReportType selects which report an invocation produces.
type ReportType string

const (
	ReportMorning ReportType = "morning"
	ReportEvening ReportType = "evening"
	ReportAuto    ReportType = "auto"
)

// Evening reports run from 17:00 through 23:59 local time.
const (
	eveningStartHour = 17
	eveningEndHour   = 23
)

// ParseReportType accepts morning, evening or auto (case-insensitive).
func ParseReportType(s string) (ReportType, error) {
	switch rt := ReportType(strings.ToLower(strings.TrimSpace(s))); rt {
	case ReportMorning, ReportEvening, ReportAuto:
		return rt, nil
	case "":
		return ReportAuto, nil
	default:
		return "", fmt.Errorf("%w: invalid report type %q (allowed: morning, evening, auto)", ErrConfig, s)
	}
}

// ResolveReportType turns auto into morning or evening based on the local hour of now.
// An explicit type is returned unchanged.
func ResolveReportType(configured ReportType, localNow time.Time) ReportType {
	if configured != ReportAuto && configured != "" {
		return configured
	}
	if h := localNow.Hour(); h >= eveningStartHour && h <= eveningEndHour {
		return ReportEvening
	}
	return ReportMorning
}

// ResolveLocation loads an IANA timezone. Unknown names log a warning and yield UTC.
func ResolveLocation(name string, logger zerolog.Logger) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", name).Msg("invalid timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

// LocalDate returns the calendar date of instant at a fixed UTC offset.
func LocalDate(instant time.Time, offsetSeconds int) string {
	return instant.UTC().Add(time.Duration(offsetSeconds) * time.Second).Format(DateLayout)
}

// DateKey formats t's calendar date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
