package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of zero means a single attempt.
type BackoffConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrServerError  = errors.New("server error")
	ErrUnexpected   = errors.New("unexpected status code")
	ErrCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// StatusError carries the status code and a short body excerpt of a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", e.kind, e.StatusCode)
	}
	return fmt.Sprintf("%v: %d: %s", e.kind, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// NewCircuitBreaker returns the breaker settings shared by every upstream client.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors are the caller's fault, not the upstream's.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnexpected)
		},
	})
}

// DoRequestWithResilience executes the request through the circuit breaker, retrying transient
// failures (network errors, 429, 5xx) with exponential backoff up to cfg.Backoff.MaxRetries times.
// Other non-2xx statuses fail immediately. On success the caller owns resp.Body.
func DoRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	bo := backoff.NewExponentialBackOff()
	if cfg.Backoff.InitialInterval > 0 {
		bo.InitialInterval = cfg.Backoff.InitialInterval
	}
	if cfg.Backoff.MaxInterval > 0 {
		bo.MaxInterval = cfg.Backoff.MaxInterval
	}
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, cfg.Backoff.MaxRetries), ctx)

	var resp *http.Response
	operation := func() error {
		req, err := buildRequest()
		if err != nil {
			return backoff.Permanent(err)
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			r, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if r.StatusCode >= 200 && r.StatusCode < 300 {
				return r, nil
			}
			return nil, statusError(r)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrCircuitOpen, err))
			}
			if errors.Is(err, ErrUnexpected) {
				return backoff.Permanent(err)
			}
			return err
		}

		r, ok := result.(*http.Response)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// statusError drains and closes a non-2xx response into a StatusError.
func statusError(r *http.Response) error {
	defer r.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(r.Body, 512))

	kind := ErrUnexpected
	switch {
	case r.StatusCode == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case r.StatusCode >= 500:
		kind = ErrServerError
	}
	return &StatusError{StatusCode: r.StatusCode, Body: string(body), kind: kind}
}

// StatusCode extracts the HTTP status from err, or 0 when err did not come from a response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
