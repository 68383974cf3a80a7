package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Position source errors
	ErrSourceUnavailable    = errors.New("position source is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the position source")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInvalidAPIKeys       = errors.New("invalid API keys or permissions")
	ErrMalformedRecord      = errors.New("malformed position record")
	ErrEmptySnapshot        = errors.New("position source returned no positions")

	// Snapshot storage errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
