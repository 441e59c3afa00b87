// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searchapi is the HTTP client for the remote search service. It
// submits searches, polls job status, and reads the authoritative credit
// balance, mapping boundary error codes onto the engine's error taxonomy.
package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/meshintel/firmscout/internal/httputil"
	"github.com/meshintel/firmscout/internal/ledger"
	"github.com/meshintel/firmscout/pkg/types"
)

// DefaultBaseURL is the production service root. Declared as a var so
// tests can substitute an httptest server via config.
var DefaultBaseURL = "https://api.firmscout.io"

const defaultTimeout = 15 * time.Second

// Client talks to the search service. Search submissions carry no client
// timeout (the backend is synchronous but slow; the caller's context bounds
// them); status, credits, and delete calls use the configured short timeout.
type Client struct {
	searchClient *http.Client // no timeout, ctx-bounded
	shortClient  *http.Client
	limiter      *rate.Limiter
	cfg          types.SearchServiceConfig
}

// NewClient returns a client for cfg, applying defaults for zero fields.
func NewClient(cfg types.SearchServiceConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	return &Client{
		searchClient: &http.Client{},
		shortClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:      limiter,
		cfg:          cfg,
	}
}

// SearchRequest is the search submission payload. JobID is assigned by the
// orchestrator so status can be polled while the submission is in flight.
type SearchRequest struct {
	JobID     string `json:"job_id"`
	Query     string `json:"query"`
	BatchSize int    `json:"batch_size"`
}

// SearchResponse is the search submission result.
type SearchResponse struct {
	Success        bool               `json:"success"`
	Items          []types.ResultItem `json:"items"`
	ChargedCost    int                `json:"charged_cost"`
	JobID          string             `json:"job_id,omitempty"`
	ErrorCode      string             `json:"error_code,omitempty"`
	PartialMessage string             `json:"partial_message,omitempty"`

	// Populated alongside an INSUFFICIENT_CREDITS error code.
	NeededCredits    int `json:"needed_credits,omitempty"`
	AvailableCredits int `json:"available_credits,omitempty"`
}

// StatusResponse is one authoritative sample of a running job.
type StatusResponse struct {
	Status       string `json:"status"`
	CurrentCount int    `json:"current_count"`
	TotalCount   int    `json:"total_count"`
	StepLabel    string `json:"step_label,omitempty"`
}

// Terminal reports whether the job reached a final state.
func (s StatusResponse) Terminal() bool {
	return s.Status == "completed" || s.Status == "failed"
}

// Search submits a query and blocks until the service answers or ctx
// expires. An empty item list with a nil error is the no-results outcome,
// not a failure.
func (c *Client) Search(ctx context.Context, sr SearchRequest) (SearchResponse, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := httputil.SendWithBackoff(ctx, c.searchClient, c.limiter, req, c.cfg.MaxRetries)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var out SearchResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode == http.StatusPaymentRequired {
		return SearchResponse{}, &ledger.InsufficientCreditsError{
			Needed:    out.NeededCredits,
			Available: out.AvailableCredits,
		}
	}
	if err := mapStatus(resp.StatusCode); err != nil {
		return SearchResponse{}, err
	}
	if decodeErr != nil {
		return SearchResponse{}, fmt.Errorf("parsing search response: %w", decodeErr)
	}
	if !out.Success {
		return SearchResponse{}, mapErrorCode(out)
	}
	return out, nil
}

// Status fetches authoritative progress for a job.
func (c *Client) Status(ctx context.Context, jobID string) (StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/search/%s/status", c.cfg.BaseURL, jobID), nil)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.SendWithBackoff(ctx, c.shortClient, c.limiter, req, c.cfg.MaxRetries)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return StatusResponse{}, err
	}

	var out StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StatusResponse{}, fmt.Errorf("parsing status response: %w", err)
	}
	return out, nil
}

// Balance fetches the authoritative credit balance.
func (c *Client) Balance(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/credits", nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.SendWithBackoff(ctx, c.shortClient, c.limiter, req, c.cfg.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return 0, err
	}

	var out struct {
		Balance int `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("parsing credits response: %w", err)
	}
	return out.Balance, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
}

// mapStatus translates HTTP status codes to the error taxonomy.
func mapStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized:
		return ErrAuthExpired
	case code >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, code)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, code)
	}
}

// mapErrorCode translates an in-body error code on a non-success response.
func mapErrorCode(resp SearchResponse) error {
	switch resp.ErrorCode {
	case codeInsufficientCredits:
		return &ledger.InsufficientCreditsError{
			Needed:    resp.NeededCredits,
			Available: resp.AvailableCredits,
		}
	case codeAuthExpired:
		return ErrAuthExpired
	case codeExternalAPIError:
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, resp.PartialMessage)
	default:
		return fmt.Errorf("%w: unexpected error code %q", ErrUpstreamUnavailable, resp.ErrorCode)
	}
}
