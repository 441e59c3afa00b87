// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meshintel/firmscout/pkg/types"
)

const (
	defaultTickInterval = 500 * time.Millisecond
	defaultPollInterval = 2 * time.Second
)

// PollStatus is one authoritative status sample from the search service.
type PollStatus struct {
	Terminal     bool
	CurrentCount int
	TotalCount   int
}

// PollFunc fetches authoritative status for the running job.
type PollFunc func(ctx context.Context) (PollStatus, error)

// Runner drives an Estimator with real timers: a repeating simulated tick,
// plus an optional status-poll loop once the job id is known. All timers
// stop on Finish or Abort; a poll that returns after that is discarded via
// the liveness flag rather than applied late.
type Runner struct {
	mu        sync.Mutex
	est       *Estimator
	onUpdate  func(int)
	tickEvery time.Duration
	pollEvery time.Duration

	runCtx context.Context
	cancel context.CancelFunc
	live   atomic.Bool
	wg     sync.WaitGroup
}

// NewRunner wraps est. onUpdate receives each new progress value; nil is
// allowed. Zero intervals fall back to defaults (tick 500ms, poll 2s).
func NewRunner(est *Estimator, cfg types.ProgressConfig, onUpdate func(int)) *Runner {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Runner{est: est, onUpdate: onUpdate, tickEvery: tick, pollEvery: poll}
}

// Value returns the current progress percentage.
func (r *Runner) Value() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.est.Value()
}

// Start begins simulated ticking. The runner stops when ctx is cancelled or
// Finish/Abort is called.
func (r *Runner) Start(ctx context.Context) {
	r.runCtx, r.cancel = context.WithCancel(ctx)
	r.live.Store(true)

	r.mu.Lock()
	r.est.Start()
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-r.runCtx.Done():
				return
			case <-ticker.C:
				if !r.live.Load() {
					return
				}
				r.mu.Lock()
				v := r.est.Tick()
				r.mu.Unlock()
				r.emit(v)
			}
		}
	}()
}

// StartPolling begins the authoritative status loop. Poll errors are
// skipped rather than surfaced: polling is advisory, the search response
// itself decides the job outcome. The loop exits on a terminal status.
// Must be called after Start.
func (r *Runner) StartPolling(poll PollFunc) {
	if r.runCtx == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-r.runCtx.Done():
				return
			case <-ticker.C:
				st, err := poll(r.runCtx)
				if err != nil {
					continue
				}
				if !r.live.Load() {
					return
				}
				r.mu.Lock()
				v := r.est.ObservePoll(st.CurrentCount, st.TotalCount)
				r.mu.Unlock()
				r.emit(v)
				if st.Terminal {
					return
				}
			}
		}
	}()
}

// Finish cancels all timers, waits for them, and forces progress to 100.
func (r *Runner) Finish() int {
	r.stop()
	r.mu.Lock()
	v := r.est.Finish()
	r.mu.Unlock()
	r.emit(v)
	return v
}

// Abort cancels all timers without forcing completion. Used when the
// hosting operation is torn down mid-job.
func (r *Runner) Abort() {
	r.stop()
}

func (r *Runner) stop() {
	r.live.Store(false)
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Runner) emit(v int) {
	if r.onUpdate != nil {
		r.onUpdate(v)
	}
}
