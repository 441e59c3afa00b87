// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate coordinates one search end to end: validate the
// query, reserve credits, submit to the search service with live progress,
// reconcile returned items into the collection, and settle the ledger.
package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meshintel/firmscout/internal/ledger"
	"github.com/meshintel/firmscout/internal/notify"
	"github.com/meshintel/firmscout/internal/progress"
	"github.com/meshintel/firmscout/internal/reconcile"
	"github.com/meshintel/firmscout/internal/searchapi"
	"github.com/meshintel/firmscout/pkg/types"
)

const (
	defaultPollBudget = 90 * time.Second

	// finalCheckGrace bounds the wait for an in-flight search response
	// after the poll budget expired but the final authoritative check
	// reported a terminal status.
	finalCheckGrace = 2 * time.Second
)

// Query holds the search parameters. Free text and structured fields are
// alternatives; structured queries must name both a subject and a locality.
type Query struct {
	FreeText  string
	Subject   string
	Locality  string
	BatchSize int
}

// Text returns the query string submitted to the service.
func (q Query) Text() string {
	if q.FreeText != "" {
		return q.FreeText
	}
	return strings.TrimSpace(q.Subject + " in " + q.Locality)
}

func (q Query) validate(maxBatch int) error {
	if q.FreeText == "" {
		if q.Subject == "" && q.Locality == "" {
			return &ValidationError{Reason: "query is empty"}
		}
		if q.Subject == "" {
			return &ValidationError{Reason: "structured query must name a subject"}
		}
		if q.Locality == "" {
			return &ValidationError{Reason: "structured query must name a locality"}
		}
	}
	if q.BatchSize <= 0 {
		return &ValidationError{Reason: "batch size must be positive"}
	}
	if maxBatch > 0 && q.BatchSize > maxBatch {
		return &ValidationError{Reason: fmt.Sprintf("batch size %d exceeds the tier ceiling of %d", q.BatchSize, maxBatch)}
	}
	return nil
}

// ValidationError reports a query rejected before any side effect.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid query: " + e.Reason
}

// SearchService is the remote search boundary the orchestrator needs.
// Satisfied by *searchapi.Client.
type SearchService interface {
	Search(ctx context.Context, req searchapi.SearchRequest) (searchapi.SearchResponse, error)
	Status(ctx context.Context, jobID string) (searchapi.StatusResponse, error)
}

// Persister is the slice of the store the orchestrator writes through.
// Satisfied by *store.Store.
type Persister interface {
	SaveSearch(ctx context.Context, job types.SearchJob, items []types.ResultItem, keyOf func(types.ResultItem) string) error
	PutBalance(ctx context.Context, balance int) error
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Service    SearchService
	Persist    Persister
	Ledger     *ledger.Ledger
	Collection *reconcile.Collection
	Tombstones *reconcile.Tombstones
	Notifier   notify.Notifier

	// OnProgress receives progress percentages during a run. Optional.
	OnProgress func(int)
}

// Orchestrator owns the result collection for the session: the collection
// is created on load, mutated only through the reconciler or the mutation
// manager, and replaced wholesale when a merge succeeds.
type Orchestrator struct {
	cfg  types.EngineConfig
	deps Deps
}

// New returns an orchestrator. A nil Notifier discards notices; a nil
// Collection or Tombstones starts empty.
func New(cfg types.EngineConfig, deps Deps) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	if deps.Collection == nil {
		deps.Collection = reconcile.NewCollection()
	}
	if deps.Tombstones == nil {
		deps.Tombstones = reconcile.NewTombstones(cfg.Collection.SuppressionPasses)
	}
	return &Orchestrator{cfg: cfg, deps: deps}
}

// Collection returns the current reconciled collection.
func (o *Orchestrator) Collection() *reconcile.Collection {
	return o.deps.Collection
}

// Outcome is the result of one completed search run.
type Outcome struct {
	Job       types.SearchJob
	Added     int  // new deduplicated entries in the collection
	NoResults bool // service answered with zero items; not a failure
	Balance   int  // confirmed credits after settlement
}

// Run executes one search. The returned error is one of: ValidationError,
// ledger.InsufficientCreditsError, searchapi.ErrAuthExpired,
// searchapi.ErrUpstreamUnavailable (all wrapped), or a persistence error.
// None of them are retried automatically.
func (o *Orchestrator) Run(ctx context.Context, q Query) (Outcome, error) {
	// Validating: reject before any side effect.
	if err := q.validate(o.cfg.Credits.MaxBatchSize); err != nil {
		return Outcome{}, err
	}

	// Reserving: hold estimated credits; no remote call on failure.
	estimated := ledger.Estimate(q.BatchSize, o.cfg.Credits.UnitCost)
	res, err := o.deps.Ledger.Reserve(estimated)
	if err != nil {
		return Outcome{}, err
	}

	job := types.SearchJob{
		ID:            uuid.NewString(),
		Query:         q.Text(),
		BatchSize:     q.BatchSize,
		Status:        types.JobSubmitted,
		EstimatedCost: estimated,
		StartedAt:     time.Now(),
	}

	resp, err := o.submit(ctx, job.ID, q)
	if err != nil {
		job.Status = types.JobFailed
		// No cost was confirmed; settle the reservation at zero.
		o.deps.Ledger.Settle(res, 0)
		o.deps.Notifier.Errorf("search failed: %v", err)
		return Outcome{Job: job}, err
	}

	// Reconciling: merge into a fresh collection and swap it in only on
	// full success, so a partial failure cannot corrupt the saved state.
	now := time.Now()
	for i := range resp.Items {
		resp.Items[i].OriginSearchID = job.ID
		resp.Items[i].SavedAt = now
	}
	before := o.deps.Collection.Len()
	merged := reconcile.Merge(o.deps.Collection, resp.Items, o.deps.Tombstones)
	added := merged.Len() - before

	job.Status = types.JobCompleted
	job.ChargedCost = resp.ChargedCost
	job.ResultCount = len(resp.Items)

	if err := o.deps.Ledger.Settle(res, resp.ChargedCost); err != nil {
		return Outcome{Job: job}, fmt.Errorf("settling reservation: %w", err)
	}
	o.deps.Collection = merged

	// Persist only the entries this job actually added; suppressed or
	// duplicate items must not be re-saved.
	fresh := make([]types.ResultItem, 0, added)
	for _, it := range merged.Items() {
		if it.OriginSearchID == job.ID {
			fresh = append(fresh, it)
		}
	}
	if err := o.deps.Persist.SaveSearch(ctx, job, fresh, reconcile.Key); err != nil {
		return Outcome{Job: job, Added: added}, fmt.Errorf("persisting results: %w", err)
	}
	if err := o.deps.Persist.PutBalance(ctx, o.deps.Ledger.Confirmed()); err != nil {
		return Outcome{Job: job, Added: added}, fmt.Errorf("persisting balance: %w", err)
	}

	out := Outcome{
		Job:       job,
		Added:     added,
		NoResults: len(resp.Items) == 0,
		Balance:   o.deps.Ledger.Confirmed(),
	}
	if out.NoResults {
		o.deps.Notifier.Infof("no results for %q; try a broader locality or different keywords", job.Query)
	} else {
		o.deps.Notifier.Successf("added %d results (%d credits charged, %d remaining)",
			added, resp.ChargedCost, out.Balance)
	}
	return out, nil
}

// submit sends the search while a progress runner simulates and polls. It
// enforces the wall-clock poll budget: on breach it makes one final
// authoritative status check before declaring the upstream unavailable.
func (o *Orchestrator) submit(ctx context.Context, jobID string, q Query) (searchapi.SearchResponse, error) {
	runner := progress.NewRunner(progress.NewEstimator(o.cfg.Progress), o.cfg.Progress, o.deps.OnProgress)
	runner.Start(ctx)
	defer runner.Finish()

	runner.StartPolling(func(pctx context.Context) (progress.PollStatus, error) {
		st, err := o.deps.Service.Status(pctx, jobID)
		if err != nil {
			return progress.PollStatus{}, err
		}
		return progress.PollStatus{
			Terminal:     st.Terminal(),
			CurrentCount: st.CurrentCount,
			TotalCount:   st.TotalCount,
		}, nil
	})

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type searchResult struct {
		resp searchapi.SearchResponse
		err  error
	}
	ch := make(chan searchResult, 1)
	go func() {
		resp, err := o.deps.Service.Search(searchCtx, searchapi.SearchRequest{
			JobID:     jobID,
			Query:     q.Text(),
			BatchSize: q.BatchSize,
		})
		ch <- searchResult{resp: resp, err: err}
	}()

	budget := o.cfg.Progress.PollBudget
	if budget <= 0 {
		budget = defaultPollBudget
	}
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return searchapi.SearchResponse{}, ctx.Err()
	case <-timer.C:
		// Budget breached. One final authoritative check: if the job
		// finished, give the in-flight response a short grace to land.
		st, err := o.deps.Service.Status(ctx, jobID)
		if err == nil && st.Terminal() {
			select {
			case r := <-ch:
				return r.resp, r.err
			case <-time.After(finalCheckGrace):
			}
		}
		cancel()
		return searchapi.SearchResponse{}, fmt.Errorf(
			"%w: no response within %v", searchapi.ErrUpstreamUnavailable, budget)
	}
}
