package orchestrate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/meshintel/firmscout/internal/ledger"
	"github.com/meshintel/firmscout/internal/reconcile"
	"github.com/meshintel/firmscout/internal/searchapi"
	"github.com/meshintel/firmscout/pkg/types"
)

// --- fakes ---

type fakeService struct {
	mu          sync.Mutex
	searchCalls int
	resp        searchapi.SearchResponse
	err         error
	delay       time.Duration
	status      searchapi.StatusResponse
}

func (f *fakeService) Search(ctx context.Context, req searchapi.SearchRequest) (searchapi.SearchResponse, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return searchapi.SearchResponse{}, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeService) Status(context.Context, string) (searchapi.StatusResponse, error) {
	return f.status, nil
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

type fakePersister struct {
	jobs    []types.SearchJob
	items   []types.ResultItem
	balance int
	saveErr error
}

func (f *fakePersister) SaveSearch(_ context.Context, job types.SearchJob, items []types.ResultItem, _ func(types.ResultItem) string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.jobs = append(f.jobs, job)
	f.items = append(f.items, items...)
	return nil
}

func (f *fakePersister) PutBalance(_ context.Context, balance int) error {
	f.balance = balance
	return nil
}

func testCfg() types.EngineConfig {
	return types.EngineConfig{
		Credits: types.CreditConfig{UnitCost: 5, MaxBatchSize: 50},
		Progress: types.ProgressConfig{
			TickInterval: time.Millisecond,
			PollInterval: time.Millisecond,
			PollBudget:   time.Second,
		},
	}
}

func newTestOrchestrator(svc SearchService, led *ledger.Ledger, persist *fakePersister) *Orchestrator {
	return New(testCfg(), Deps{
		Service: svc,
		Persist: persist,
		Ledger:  led,
	})
}

func items(ids ...string) []types.ResultItem {
	out := make([]types.ResultItem, len(ids))
	for i, id := range ids {
		out[i] = types.ResultItem{IdentityID: id, DisplayName: "firm-" + id, LocationDisplay: "SF"}
	}
	return out
}

// --- validation ---

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"empty query", Query{BatchSize: 10}},
		{"subject without locality", Query{Subject: "startups", BatchSize: 10}},
		{"locality without subject", Query{Locality: "Berlin", BatchSize: 10}},
		{"zero batch", Query{FreeText: "startups", BatchSize: 0}},
		{"batch above ceiling", Query{FreeText: "startups", BatchSize: 51}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			led := ledger.New(1000)
			o := newTestOrchestrator(svc, led, &fakePersister{})

			_, err := o.Run(context.Background(), tt.q)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if svc.calls() != 0 {
				t.Error("validation failure must not reach the service")
			}
			if led.Reserved() != 0 {
				t.Error("validation failure must not hold a reservation")
			}
		})
	}
}

// --- credit gating ---

func TestRunInsufficientCredits(t *testing.T) {
	// batchSize=10 at unitCost=5 against 30 confirmed credits.
	svc := &fakeService{}
	led := ledger.New(30)
	o := newTestOrchestrator(svc, led, &fakePersister{})

	_, err := o.Run(context.Background(), Query{FreeText: "startups in SF", BatchSize: 10})
	var ic *ledger.InsufficientCreditsError
	if !errors.As(err, &ic) {
		t.Fatalf("error = %v, want InsufficientCreditsError", err)
	}
	if ic.Needed != 50 || ic.Available != 30 {
		t.Errorf("error = {needed:%d, available:%d}, want {50, 30}", ic.Needed, ic.Available)
	}
	if svc.calls() != 0 {
		t.Error("no remote call may occur on insufficient credits")
	}
	if o.Collection().Len() != 0 {
		t.Error("collection must be unchanged")
	}
}

// --- success path ---

func TestRunSuccess(t *testing.T) {
	// Query for 10 returns 7 items charged at 5 each.
	svc := &fakeService{resp: searchapi.SearchResponse{
		Success:     true,
		Items:       items("F1", "F2", "F3", "F4", "F5", "F6", "F7"),
		ChargedCost: 35,
	}}
	led := ledger.New(100)
	persist := &fakePersister{}
	o := newTestOrchestrator(svc, led, persist)

	out, err := o.Run(context.Background(), Query{
		FreeText: "Early-stage tech startups in San Francisco", BatchSize: 10,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NoResults {
		t.Error("NoResults must not be raised for a non-empty batch")
	}
	if out.Added != 7 {
		t.Errorf("Added = %d, want 7", out.Added)
	}
	if out.Balance != 65 {
		t.Errorf("Balance = %d, want 65 (100 - 35)", out.Balance)
	}
	if led.Reserved() != 0 {
		t.Errorf("Reserved() = %d, want 0 after settlement", led.Reserved())
	}
	if o.Collection().Len() != 7 {
		t.Errorf("collection size = %d, want 7", o.Collection().Len())
	}
	if out.Job.Status != types.JobCompleted {
		t.Errorf("job status = %v, want completed", out.Job.Status)
	}
	if len(persist.jobs) != 1 || len(persist.items) != 7 {
		t.Errorf("persisted %d jobs / %d items, want 1 / 7", len(persist.jobs), len(persist.items))
	}
	if persist.balance != 65 {
		t.Errorf("persisted balance = %d, want 65", persist.balance)
	}
}

func TestRunDeduplicatesAcrossSearches(t *testing.T) {
	svc := &fakeService{resp: searchapi.SearchResponse{
		Success: true, Items: items("F1", "F2"), ChargedCost: 10,
	}}
	led := ledger.New(100)
	persist := &fakePersister{}
	o := newTestOrchestrator(svc, led, persist)

	q := Query{FreeText: "startups in SF", BatchSize: 2}
	if _, err := o.Run(context.Background(), q); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	out, err := o.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if out.Added != 0 {
		t.Errorf("Added = %d, want 0 for a fully duplicate batch", out.Added)
	}
	if o.Collection().Len() != 2 {
		t.Errorf("collection size = %d, want 2", o.Collection().Len())
	}
	if len(persist.items) != 2 {
		t.Errorf("persisted items = %d, duplicates must not be re-saved", len(persist.items))
	}
}

func TestRunNoResults(t *testing.T) {
	svc := &fakeService{resp: searchapi.SearchResponse{Success: true, ChargedCost: 0}}
	led := ledger.New(100)
	o := newTestOrchestrator(svc, led, &fakePersister{})

	out, err := o.Run(context.Background(), Query{FreeText: "unicorn farms in Atlantis", BatchSize: 5})
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if !out.NoResults {
		t.Error("NoResults = false, want true")
	}
	if out.Balance != 100 {
		t.Errorf("Balance = %d, want 100 (nothing charged)", out.Balance)
	}
}

// --- failure paths ---

func TestRunUpstreamFailure(t *testing.T) {
	svc := &fakeService{err: searchapi.ErrUpstreamUnavailable}
	led := ledger.New(100)
	o := newTestOrchestrator(svc, led, &fakePersister{})

	_, err := o.Run(context.Background(), Query{FreeText: "startups in SF", BatchSize: 4})
	if !errors.Is(err, searchapi.ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
	// Reservation settled at zero cost: balance intact, nothing held.
	if led.Confirmed() != 100 || led.Reserved() != 0 {
		t.Errorf("ledger = %d/%d, want 100/0", led.Confirmed(), led.Reserved())
	}
	if o.Collection().Len() != 0 {
		t.Error("collection must be unchanged on failure")
	}
	if svc.calls() != 1 {
		t.Errorf("search calls = %d, want 1 (no automatic retry)", svc.calls())
	}
}

func TestRunAuthExpired(t *testing.T) {
	svc := &fakeService{err: searchapi.ErrAuthExpired}
	led := ledger.New(100)
	o := newTestOrchestrator(svc, led, &fakePersister{})

	_, err := o.Run(context.Background(), Query{FreeText: "startups in SF", BatchSize: 4})
	if !errors.Is(err, searchapi.ErrAuthExpired) {
		t.Fatalf("error = %v, want ErrAuthExpired", err)
	}
	if led.Available() != 100 {
		t.Errorf("Available() = %d, want 100", led.Available())
	}
}

func TestRunPollBudgetBreach(t *testing.T) {
	cfg := testCfg()
	cfg.Progress.PollBudget = 10 * time.Millisecond

	// The backend hangs well past the budget and never reports terminal.
	svc := &fakeService{
		delay:  time.Second,
		resp:   searchapi.SearchResponse{Success: true},
		status: searchapi.StatusResponse{Status: "running"},
	}
	led := ledger.New(100)
	o := New(cfg, Deps{Service: svc, Persist: &fakePersister{}, Ledger: led})

	start := time.Now()
	_, err := o.Run(context.Background(), Query{FreeText: "startups in SF", BatchSize: 4})
	if !errors.Is(err, searchapi.ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("budget breach took %v, the hung call must be abandoned", elapsed)
	}
	if led.Reserved() != 0 {
		t.Errorf("Reserved() = %d, want 0", led.Reserved())
	}
}

func TestRunSuppressedItemNotReintroduced(t *testing.T) {
	svc := &fakeService{resp: searchapi.SearchResponse{
		Success: true, Items: items("Acme-NYC", "F2"), ChargedCost: 10,
	}}
	led := ledger.New(100)
	tombs := reconcile.NewTombstones(3)
	tombs.Mark("Acme-NYC")
	persist := &fakePersister{}
	o := New(testCfg(), Deps{
		Service: svc, Persist: persist, Ledger: led, Tombstones: tombs,
	})

	out, err := o.Run(context.Background(), Query{FreeText: "startups in NYC", BatchSize: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o.Collection().Has("Acme-NYC") {
		t.Error("suppressed item reintroduced by a lagging search result")
	}
	if out.Added != 1 {
		t.Errorf("Added = %d, want 1", out.Added)
	}
	for _, it := range persist.items {
		if it.IdentityID == "Acme-NYC" {
			t.Error("suppressed item must not be re-persisted")
		}
	}
}

func TestRunProgressReportsTerminal100(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	svc := &fakeService{
		delay: 20 * time.Millisecond,
		resp:  searchapi.SearchResponse{Success: true, Items: items("F1"), ChargedCost: 5},
	}
	led := ledger.New(100)
	o := New(testCfg(), Deps{
		Service: svc, Persist: &fakePersister{}, Ledger: led,
		OnProgress: func(v int) {
			mu.Lock()
			seen = append(seen, v)
			mu.Unlock()
		},
	})

	if _, err := o.Run(context.Background(), Query{FreeText: "startups in SF", BatchSize: 1}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("no progress updates observed")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress regressed: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Errorf("final progress = %d, want 100", seen[len(seen)-1])
	}
}
