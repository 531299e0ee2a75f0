// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-monitor/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ScholarConfig configures the Semantic Scholar client.
type ScholarConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the Graph API root (default https://api.semanticscholar.org/graph/v1).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is optional; it raises the API's rate limit.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of attempts per request (default 10).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryDelay is the wait after a retryable failure (default 3s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// DiscoveryConfig configures the citation discovery engine.
type DiscoveryConfig struct {
	// MaxCitationsPerSeed caps the citation list requested per seed (default 50).
	MaxCitationsPerSeed int `json:"max_citations_per_seed" yaml:"max_citations_per_seed" mapstructure:"max_citations_per_seed"`

	// MaxSeeds limits how many seeds are processed; 0 means all.
	MaxSeeds int `json:"max_seeds" yaml:"max_seeds" mapstructure:"max_seeds"`

	// MaxSeedRetries is the per-seed attempt budget (default 10).
	MaxSeedRetries int `json:"max_seed_retries" yaml:"max_seed_retries" mapstructure:"max_seed_retries"`

	// RequestDelay is the pause between consecutive API calls (default 5s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// RequeueDelay is the pause before a failed seed is requeued (default 3s).
	RequeueDelay time.Duration `json:"requeue_delay" yaml:"requeue_delay" mapstructure:"requeue_delay"`
}

// LLMConfig configures the OpenAI-compatible classification endpoint.
type LLMConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIBase is the endpoint root (default http://127.0.0.1:8000/v1).
	APIBase string `json:"api_base" yaml:"api_base" mapstructure:"api_base"`

	// APIKey defaults to "EMPTY", which local inference servers accept.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Model is resolved from the endpoint's model list when empty.
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`

	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `json:"top_p" yaml:"top_p" mapstructure:"top_p"`

	// IncludeExtraFields adds year and venue to the classification prompt.
	IncludeExtraFields bool `json:"include_extra_fields" yaml:"include_extra_fields" mapstructure:"include_extra_fields"`
}

// AnalysisConfig configures the concurrent analysis stage.
type AnalysisConfig struct {
	// Concurrency is the number of in-flight classifications, clamped to 1-16 (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RequestsPerSecond throttles classification calls; 0 disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// SeedConfig locates the paper listings that seeds are extracted from.
type SeedConfig struct {
	// Dir holds the listing files (default docs/html).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Files names the listings inside Dir, processed in order.
	Files []string `json:"files" yaml:"files" mapstructure:"files"`
}

// ReportConfig configures persisted outputs.
type ReportConfig struct {
	// Dir receives the dated JSON and Markdown reports (default paper_logs).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// CachePath is the SQLite cache file (default cache/scholar_cache.db).
	CachePath string `json:"cache_path" yaml:"cache_path" mapstructure:"cache_path"`

	// Timezone names the zone used for report date stamps (default Asia/Shanghai).
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ScheduleConfig configures unattended monitor runs.
type ScheduleConfig struct {
	// Cron is a five-field cron expression; empty disables scheduling.
	Cron string `json:"cron,omitempty" yaml:"cron,omitempty" mapstructure:"cron"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Dir receives daily log files; empty disables file logging.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// MonitorConfig is the complete configuration tree read from
// scholar-monitor.yaml and SCHOLAR_MONITOR_* environment variables.
type MonitorConfig struct {
	Scholar   ScholarConfig   `json:"scholar" yaml:"scholar" mapstructure:"scholar"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Analysis  AnalysisConfig  `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Seeds     SeedConfig      `json:"seeds" yaml:"seeds" mapstructure:"seeds"`
	Report    ReportConfig    `json:"report" yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}
