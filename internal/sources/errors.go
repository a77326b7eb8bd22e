package sources

import (
	"fmt"
	"strings"
)

// ConfigError means a required credential or setting is missing. It is
// always raised before any network call so the caller can tell a bad
// deployment apart from a bad network.
type ConfigError struct {
	Source   string
	Settings []string // names of the missing settings
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: not configured, set %s", e.Source, strings.Join(e.Settings, ", "))
}

// AuthError covers 401/403 credential rejections.
type AuthError struct {
	Source string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication rejected (status %d)", e.Source, e.Status)
}

// RateLimitError covers 429 and quota-style 403 responses.
type RateLimitError struct {
	Source string
	Status int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited (status %d)", e.Source, e.Status)
}

// BadRequestError covers malformed queries rejected upstream.
type BadRequestError struct {
	Source string
	Detail string
}

func (e *BadRequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: bad request", e.Source)
	}
	return fmt.Sprintf("%s: bad request: %s", e.Source, e.Detail)
}

// UnavailableError covers upstream 5xx responses.
type UnavailableError struct {
	Source string
	Status int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: service unavailable (status %d)", e.Source, e.Status)
}

// NotFoundError means a previously valid id no longer resolves.
type NotFoundError struct {
	Source string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Source, e.ID)
}

// TransportError is the catch-all for network-level failures and
// unclassified upstream statuses.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyStatus maps an upstream HTTP status to the shared taxonomy.
// Sources with quirkier semantics (YouTube's quota-403) classify before
// falling back to this.
func classifyStatus(source string, status int, body string) error {
	switch {
	case status == 401 || status == 403:
		return &AuthError{Source: source, Status: status}
	case status == 429:
		return &RateLimitError{Source: source, Status: status}
	case status == 400:
		return &BadRequestError{Source: source, Detail: strings.TrimSpace(body)}
	case status == 404:
		return &NotFoundError{Source: source, ID: ""}
	case status >= 500:
		return &UnavailableError{Source: source, Status: status}
	default:
		return &TransportError{Source: source, Err: fmt.Errorf("status %d: %s", status, body)}
	}
}
