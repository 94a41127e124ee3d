package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-telegram-report/internal/common"
)

const defaultTelegramURL = "https://api.telegram.org"

// ErrSend marks a failed delivery.
var ErrSend = errors.New("telegram send failed")

// Notifier delivers a finished message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Telegram posts Markdown messages to one chat through the Bot API.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewTelegram builds a notifier. client may be nil; maxRetries of zero means a single attempt.
func NewTelegram(token, chatID string, client *http.Client, maxRetries uint64, logger zerolog.Logger) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Telegram{
		baseURL: defaultTelegramURL,
		token:   token,
		chatID:  chatID,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: common.NewCircuitBreaker("telegram"),
		logger:  logger.With().Str("component", "telegram").Logger(),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text to the configured chat. Any non-2xx status is a failure.
func (t *Telegram) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return fmt.Errorf("%w: encoding message: %v", ErrSend, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := common.DoRequestWithResilience(ctx, t.httpCfg, t.circuit, buildRequest)
	if err != nil {
		// The request URL carries the bot token; keep it out of the error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("%w: %s request: %v", ErrSend, urlErr.Op, urlErr.Err)
		}
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	defer resp.Body.Close()

	var body sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && !body.OK {
		return fmt.Errorf("%w: %s", ErrSend, body.Description)
	}

	t.logger.Info().Int("chars", len(text)).Msg("message sent")
	return nil
}

var _ Notifier = (*Telegram)(nil)
