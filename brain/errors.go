package brain

import "fmt"

// APIError is a non-retryable client error returned by a backend (any 4xx
// other than 429). Message is extracted from the JSON error body when the
// body is parseable, otherwise it holds the raw response text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// RetryExhaustedError is returned when every transport attempt failed with
// a retryable condition. Last holds the failure from the final attempt.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("request failed after %d attempts", e.Attempts)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// ConfigError reports a provider that cannot be constructed, typically
// because a required credential is absent.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// retryableStatus reports whether an HTTP status code warrants another
// attempt: rate limiting and server-side failures only.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
