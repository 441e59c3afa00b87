// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus is the lifecycle state of a search job. A job transitions to
// completed or failed exactly once and is immutable afterward; a new search
// is a new job, never a reused one.
type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobSubmitted JobStatus = "submitted"
	JobPolling   JobStatus = "polling"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// SearchJob records one invocation of the search orchestrator.
type SearchJob struct {
	// ID is assigned by the orchestrator at submission.
	ID string `json:"id" yaml:"id"`

	// Query is the submitted query text.
	Query string `json:"query" yaml:"query"`

	// BatchSize is the requested number of results.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Status is the job lifecycle state.
	Status JobStatus `json:"status" yaml:"status"`

	// EstimatedCost is the credit reservation placed before submission.
	EstimatedCost int `json:"estimated_cost" yaml:"estimated_cost"`

	// ChargedCost is the actual cost reported by the service. It may be
	// less than EstimatedCost for partial results.
	ChargedCost int `json:"charged_cost" yaml:"charged_cost"`

	// ResultCount is the number of items the service returned.
	ResultCount int `json:"result_count" yaml:"result_count"`

	// StartedAt is when the job was submitted.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
}
