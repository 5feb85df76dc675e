// Package llm defines the typed error surface of the completion gateway.
// Providers classify upstream failures into these types so callers can map
// them to distinct responses without inspecting error strings.
package llm

// RateLimitError indicates the upstream provider rejected the call due to
// request-rate limits.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return e.Message
}

// QuotaExceededError indicates the upstream account has exhausted its quota.
type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string {
	if e.Message == "" {
		return "quota exceeded"
	}
	return e.Message
}

// InvalidRequestError indicates the upstream provider rejected the request
// as malformed.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	if e.Message == "" {
		return "invalid request"
	}
	return e.Message
}

// AuthenticationError indicates the upstream provider rejected the
// credentials.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}
