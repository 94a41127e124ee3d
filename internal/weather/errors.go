package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks missing or invalid startup configuration.
	ErrConfig = errors.New("configuration error")

	// ErrNotFound is returned when the geocoder has no result for a city.
	ErrNotFound = errors.New("location not found")

	// ErrUpstream marks any transport or HTTP failure talking to a weather provider.
	ErrUpstream = errors.New("upstream weather service error")

	// ErrLocalStorage marks read, write or parse failures of the local data files.
	ErrLocalStorage = errors.New("local storage error")
)

// UpstreamError describes a failed call to a provider endpoint.
type UpstreamError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports every UpstreamError as ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
