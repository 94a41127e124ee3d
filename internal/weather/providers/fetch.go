package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-telegram-report/internal/common"
	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// Options carries the transport and logging settings shared by every provider.
type Options struct {
	// Client is the HTTP client for outbound calls. If nil, a client with a 15s timeout is used.
	Client *http.Client

	// MaxRetries is the number of retries after the first attempt. Zero means a single attempt.
	MaxRetries uint64

	Logger zerolog.Logger
}

func (o Options) httpConfig() common.HTTPClientConfig {
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return common.HTTPClientConfig{
		Client: client,
		Backoff: common.BackoffConfig{
			MaxRetries:      o.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

// upstream performs GET requests against one provider and decodes JSON bodies.
type upstream struct {
	provider string
	httpCfg  common.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

func newUpstream(provider string, opts Options) upstream {
	return upstream{
		provider: provider,
		httpCfg:  opts.httpConfig(),
		circuit:  common.NewCircuitBreaker(provider),
		logger:   opts.Logger.With().Str("provider", provider).Logger(),
	}
}

// getJSON issues GET endpoint?values and decodes the body into out.
// Any transport, status or decode failure is returned as *weather.UpstreamError.
func (u upstream) getJSON(ctx context.Context, op, endpoint string, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		rawURL := fmt.Sprintf("%s?%s", endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, rawURL, http.NoBody)
	}

	start := time.Now()
	resp, err := common.DoRequestWithResilience(ctx, u.httpCfg, u.circuit, buildRequest)
	if err != nil {
		err = withoutQuery(err)
		u.logger.Debug().Err(err).Str("op", op).Dur("elapsed", time.Since(start)).Msg("upstream request failed")
		return &weather.UpstreamError{Provider: u.provider, Op: op, StatusCode: common.StatusCode(err), Err: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &weather.UpstreamError{Provider: u.provider, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}

	u.logger.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("upstream request done")
	return nil
}

// withoutQuery rewrites a transport failure so its text keeps the endpoint but drops the
// query string, which carries the API key for key-based providers.
func withoutQuery(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	endpoint, _, _ := strings.Cut(urlErr.URL, "?")
	return fmt.Errorf("%s %q: %w", urlErr.Op, endpoint, urlErr.Err)
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
