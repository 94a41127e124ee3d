package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// DefaultRetentionDays is how many days of history the local files keep.
const DefaultRetentionDays = 7

// File names inside the data directory.
const (
	ReadingsFile  = "weather_readings.json"
	ForecastsFile = "morning_forecasts.json"
)

// jsonFile is a date-keyed JSON document on local disk with rolling retention.
// There is no locking; one process at a time is assumed.
type jsonFile[T any] struct {
	path          string
	retentionDays int
	logger        zerolog.Logger
}

func newJSONFile[T any](path string, retentionDays int, logger zerolog.Logger) jsonFile[T] {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return jsonFile[T]{
		path:          path,
		retentionDays: retentionDays,
		logger:        logger.With().Str("file", path).Logger(),
	}
}

// load returns the stored records. A missing or unreadable file yields an empty map.
func (f jsonFile[T]) load() map[string]T {
	records := make(map[string]T)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug().Msg("no local history yet")
		} else {
			f.logger.Warn().Err(err).Msg("reading local history failed, starting empty")
		}
		return records
	}

	if err := json.Unmarshal(data, &records); err != nil {
		f.logger.Warn().Err(err).Msg("parsing local history failed, starting empty")
		return make(map[string]T)
	}
	if records == nil {
		records = make(map[string]T)
	}
	return records
}

// save purges expired dates from records and writes them atomically.
func (f jsonFile[T]) save(records map[string]T, now time.Time) error {
	purged := purge(records, now, f.retentionDays)
	if purged > 0 {
		f.logger.Debug().Int("purged", purged).Msg("dropped expired dates")
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", weather.ErrLocalStorage, f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", weather.ErrLocalStorage, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", weather.ErrLocalStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", weather.ErrLocalStorage, f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: writing %s: %v", weather.ErrLocalStorage, f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", weather.ErrLocalStorage, f.path, err)
	}
	return nil
}

// purge deletes every date strictly older than now's calendar date minus days.
// Keys that are not dates are deleted too. It returns the number of deleted keys.
func purge[T any](records map[string]T, now time.Time, days int) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -days)

	removed := 0
	for key := range records {
		date, err := time.Parse(weather.DateLayout, key)
		if err != nil || date.Before(cutoff) {
			delete(records, key)
			removed++
		}
	}
	return removed
}

// ReadingStore keeps the readings recorded by evening runs, one list per local date.
type ReadingStore struct {
	file jsonFile[[]weather.Reading]
}

func NewReadingStore(path string, retentionDays int, logger zerolog.Logger) *ReadingStore {
	return &ReadingStore{file: newJSONFile[[]weather.Reading](path, retentionDays, logger)}
}

func (s *ReadingStore) Load() weather.DailyReadings {
	return weather.DailyReadings(s.file.load())
}

// Save drops dates older than the retention window relative to now, then persists records.
func (s *ReadingStore) Save(records weather.DailyReadings, now time.Time) error {
	return s.file.save(records, now)
}

// ForecastStore keeps the snapshot captured by each morning run, one per local date.
type ForecastStore struct {
	file jsonFile[weather.ForecastSnapshot]
}

func NewForecastStore(path string, retentionDays int, logger zerolog.Logger) *ForecastStore {
	return &ForecastStore{file: newJSONFile[weather.ForecastSnapshot](path, retentionDays, logger)}
}

func (s *ForecastStore) Load() weather.MorningForecasts {
	return weather.MorningForecasts(s.file.load())
}

func (s *ForecastStore) Save(records weather.MorningForecasts, now time.Time) error {
	return s.file.save(records, now)
}

var (
	_ weather.ReadingStore  = (*ReadingStore)(nil)
	_ weather.ForecastStore = (*ForecastStore)(nil)
)
