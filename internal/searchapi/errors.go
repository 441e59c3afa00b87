// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searchapi

import "errors"

var (
	// ErrUpstreamUnavailable indicates the search backend failed or did
	// not answer in time. Retryable by the user; the engine never retries
	// it automatically.
	ErrUpstreamUnavailable = errors.New("search service unavailable")

	// ErrAuthExpired indicates the API credential was rejected. The caller
	// must redirect to re-authentication rather than treat this as a data
	// error.
	ErrAuthExpired = errors.New("authentication expired")
)

// Boundary error codes observed in service responses.
const (
	codeInsufficientCredits = "INSUFFICIENT_CREDITS"
	codeExternalAPIError    = "EXTERNAL_API_ERROR"
	codeAuthExpired         = "AUTH_EXPIRED"
)
