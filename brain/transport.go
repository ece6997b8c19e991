package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxRetries bounds transport attempts per Send call.
const DefaultMaxRetries = 5

// DefaultRequestTimeout is the per-request HTTP timeout.
const DefaultRequestTimeout = 120 * time.Second

// Transport performs one JSON POST exchange with a backend, retrying
// transient failures with exponential backoff. Retries are blocking sleeps;
// callers are expected to be synchronous.
type Transport struct {
	Client     *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	Logger     zerolog.Logger

	sleep func(time.Duration)
}

// NewTransport returns a Transport with the default retry policy.
func NewTransport(logger zerolog.Logger) *Transport {
	return &Transport{
		Client:     &http.Client{Timeout: DefaultRequestTimeout},
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  time.Second,
		Logger:     logger,
		sleep:      time.Sleep,
	}
}

// Send posts payload as JSON to endpoint and returns the response body.
//
// Policy, per attempt:
//   - network failure: back off and retry
//   - 429 or >= 500: honor a Retry-After hint when present, else back off,
//     and retry
//   - other >= 400: fail permanently with *APIError, message extracted from
//     the JSON error body when possible
//   - 2xx: return the body
//
// Exhausting all attempts yields *RetryExhaustedError.
func (t *Transport) Send(ctx context.Context, endpoint string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < t.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("content-type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := t.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			delay := t.backoff(attempt)
			t.Logger.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).
				Msg("network error, retrying")
			t.sleep(delay)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			t.sleep(t.backoff(attempt))
			continue
		}

		switch {
		case retryableStatus(resp.StatusCode):
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(respBody)}
			delay := t.backoff(attempt)
			if hint, ok := retryAfter(resp.Header); ok {
				delay = hint
			}
			t.Logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).
				Dur("delay", delay).Msg("retryable response, backing off")
			t.sleep(delay)
			continue
		case resp.StatusCode >= 400:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(respBody)}
		default:
			return respBody, nil
		}
	}

	return nil, &RetryExhaustedError{Attempts: t.MaxRetries, Last: lastErr}
}

// backoff returns the delay for attempt n (0-indexed): base * 2^n.
func (t *Transport) backoff(attempt int) time.Duration {
	return t.BaseDelay << uint(attempt)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// extractErrorMessage pulls error.message from a JSON error body, falling
// back to the raw text.
func extractErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}
