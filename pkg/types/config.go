package types

import "time"

// HTTPConfig holds shared HTTP settings for components that talk to the
// remote search service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout for non-search calls. The search
	// submission itself is bounded by ProgressConfig.PollBudget instead,
	// since the backend is synchronous but slow.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "firmscout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchServiceConfig holds settings for the remote search service client.
type SearchServiceConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the service root (e.g. "https://api.firmscout.io").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates requests. Loaded from secrets, not config files.
	APIKey string `json:"-" yaml:"-"`

	// MaxRetries bounds backoff retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RateLimitRPS is a client-side request ceiling. Zero disables it.
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
}

// CreditConfig holds credit policy. The numbers are product policy, so they
// are injected configuration rather than constants in the engine.
type CreditConfig struct {
	// UnitCost is the number of credits charged per requested result
	// (default 5).
	UnitCost int `json:"unit_cost" yaml:"unit_cost"`

	// MaxBatchSize is the tier ceiling on requested results per search
	// (default 50).
	MaxBatchSize int `json:"max_batch_size" yaml:"max_batch_size"`
}

// ProgressConfig holds settings for the progress estimator.
type ProgressConfig struct {
	// TickInterval is the simulated-progress tick rate (default 500ms).
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// TickStep is the percentage added per simulated tick (default 3).
	TickStep int `json:"tick_step" yaml:"tick_step"`

	// SoftCap is the ceiling simulated progress approaches while no
	// authoritative signal exists (default 90).
	SoftCap int `json:"soft_cap" yaml:"soft_cap"`

	// PollInterval is how often authoritative status is polled when the
	// service exposes a job id (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// PollBudget is the hard wall-clock ceiling on waiting for the
	// backend (default 90s).
	PollBudget time.Duration `json:"poll_budget" yaml:"poll_budget"`
}

// StoreConfig holds settings for the persistent collection store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (default ".firmscout").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// CollectionConfig holds settings for collection reconciliation.
type CollectionConfig struct {
	// SuppressionPasses is how many reconciliation passes a deletion
	// tombstone survives while the deleted key keeps reappearing in
	// reloads (default 3).
	SuppressionPasses int `json:"suppression_passes" yaml:"suppression_passes"`

	// ListLimit caps how many saved items a collection load reads
	// (default 500).
	ListLimit int `json:"list_limit" yaml:"list_limit"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Service    SearchServiceConfig `json:"service" yaml:"service"`
	Credits    CreditConfig        `json:"credits" yaml:"credits"`
	Progress   ProgressConfig      `json:"progress" yaml:"progress"`
	Store      StoreConfig         `json:"store" yaml:"store"`
	Collection CollectionConfig    `json:"collection" yaml:"collection"`
}
