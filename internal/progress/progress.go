// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress produces a monotonically increasing progress signal for
// a search whose backend is synchronous but slow. A simulated ticker gives
// continuous feedback while the backend is silent; when the service exposes
// a job id, authoritative polled status is max-merged in so the displayed
// value never regresses.
package progress

import "github.com/meshintel/firmscout/pkg/types"

// State is the estimator lifecycle: idle → simulating → polling → done.
// Done is terminal; an estimator is discarded after one job, never reused.
type State int

const (
	StateIdle State = iota
	StateSimulating
	StatePolling
	StateDone
)

// String returns the state name for notices and logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSimulating:
		return "simulating"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	}
	return "unknown"
}

const (
	defaultTickStep = 3
	defaultSoftCap  = 90
)

// Estimator is the pure progress reducer. It holds no timers; a Runner (or
// a test) drives it by calling Tick and ObservePoll, so its behavior is
// verifiable with a logical clock instead of real time.
type Estimator struct {
	state   State
	value   int
	step    int
	softCap int
}

// NewEstimator returns an idle estimator. Zero config fields fall back to
// defaults (step 3, soft cap 90).
func NewEstimator(cfg types.ProgressConfig) *Estimator {
	step := cfg.TickStep
	if step <= 0 {
		step = defaultTickStep
	}
	cap := cfg.SoftCap
	if cap <= 0 || cap > 99 {
		cap = defaultSoftCap
	}
	return &Estimator{step: step, softCap: cap}
}

// Value returns the current progress percentage.
func (e *Estimator) Value() int { return e.value }

// State returns the lifecycle state.
func (e *Estimator) State() State { return e.state }

// Done reports whether the estimator reached its terminal state.
func (e *Estimator) Done() bool { return e.state == StateDone }

// Start moves the estimator from idle to simulating.
func (e *Estimator) Start() {
	if e.state == StateIdle {
		e.state = StateSimulating
	}
}

// Tick advances simulated progress by one step toward the soft cap and
// returns the new value. No-op before Start and after Done: the cap leaves
// headroom so the bar never claims completion the backend has not reported.
func (e *Estimator) Tick() int {
	if e.state != StateSimulating && e.state != StatePolling {
		return e.value
	}
	next := e.value + e.step
	if next > e.softCap {
		next = e.softCap
	}
	if next > e.value {
		e.value = next
	}
	return e.value
}

// ObservePoll merges an authoritative status sample: the displayed value
// becomes the max of the simulated and polled progress, so it never
// regresses. currentCount/totalCount come from the status endpoint; a
// non-terminal sample is capped at 99 since only Finish may report 100.
func (e *Estimator) ObservePoll(currentCount, totalCount int) int {
	if e.state == StateDone {
		return e.value
	}
	if e.state == StateSimulating || e.state == StateIdle {
		e.state = StatePolling
	}
	if totalCount <= 0 {
		return e.value
	}
	pct := currentCount * 100 / totalCount
	if pct > 99 {
		pct = 99
	}
	if pct > e.value {
		e.value = pct
	}
	return e.value
}

// Finish forces the estimator to its terminal state with progress exactly
// 100. Idempotent.
func (e *Estimator) Finish() int {
	e.state = StateDone
	e.value = 100
	return e.value
}
