package main

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for conditions the tool handlers translate into setup
// instructions rather than raw error text.
var (
	// ErrNotConfigured means OURA_CLIENT_ID / OURA_CLIENT_SECRET are missing.
	ErrNotConfigured = errors.New("oura API credentials not configured")

	// ErrAuthRequired means no access token is available for a data call.
	ErrAuthRequired = errors.New("no access token available")
)

// ExchangeError reports a failed token exchange or refresh against the Oura
// OAuth endpoint. Status and Body carry the upstream response when there was
// one; Err holds the underlying library error otherwise.
type ExchangeError struct {
	Status int
	Body   string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token request failed (status %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("token request failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx response from the Oura data API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	switch e.Status {
	case http.StatusUnauthorized:
		return "authentication failed: access token invalid or expired"
	case http.StatusForbidden:
		return "access denied: insufficient permissions for this scope"
	case http.StatusTooManyRequests:
		return "rate limit exceeded: too many requests"
	case http.StatusBadRequest:
		return "bad request: check your date parameters"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusInternalServerError:
		return "Oura API internal error"
	case http.StatusServiceUnavailable:
		return "Oura API temporarily unavailable"
	default:
		return fmt.Sprintf("Oura API error (status %d): %s", e.Status, e.Body)
	}
}
