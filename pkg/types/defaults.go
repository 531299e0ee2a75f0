// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults for the monitor pipeline.
const (
	DefaultScholarBaseURL      = "https://api.semanticscholar.org/graph/v1"
	DefaultScholarTimeout      = 30 * time.Second
	DefaultMaxRetries          = 10
	DefaultRetryDelay          = 3 * time.Second
	DefaultRequestDelay        = 5 * time.Second
	DefaultMaxCitationsPerSeed = 50
	DefaultMaxSeedRetries      = 10

	DefaultLLMAPIBase  = "http://127.0.0.1:8000/v1"
	DefaultLLMAPIKey   = "EMPTY"
	DefaultLLMTimeout  = 120 * time.Second
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.3
	DefaultTopP        = 0.9

	DefaultConcurrency = 4
	MaxConcurrency     = 16

	DefaultSeedDir   = "docs/html"
	DefaultReportDir = "paper_logs"
	DefaultCachePath = "cache/scholar_cache.db"
	DefaultTimezone  = "Asia/Shanghai"
	DefaultLogDir    = "logs"
	DefaultAddr      = ":8765"
)

// DefaultSeedFiles are the paper listings scanned for seeds, in order.
var DefaultSeedFiles = []string{
	"invasive.html",
	"non-invasive.html",
	"fingerprint-transfer.html",
	"fingerprint-detection-remove.html",
}

// DefaultConfig returns a MonitorConfig populated with the defaults above.
func DefaultConfig(userAgent string) MonitorConfig {
	return MonitorConfig{
		Scholar: ScholarConfig{
			HTTPConfig: HTTPConfig{Timeout: DefaultScholarTimeout, UserAgent: userAgent},
			BaseURL:    DefaultScholarBaseURL,
			MaxRetries: DefaultMaxRetries,
			RetryDelay: DefaultRetryDelay,
		},
		Discovery: DiscoveryConfig{
			MaxCitationsPerSeed: DefaultMaxCitationsPerSeed,
			MaxSeedRetries:      DefaultMaxSeedRetries,
			RequestDelay:        DefaultRequestDelay,
			RequeueDelay:        DefaultRetryDelay,
		},
		LLM: LLMConfig{
			HTTPConfig:  HTTPConfig{Timeout: DefaultLLMTimeout, UserAgent: userAgent},
			APIBase:     DefaultLLMAPIBase,
			APIKey:      DefaultLLMAPIKey,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
			TopP:        DefaultTopP,
		},
		Analysis: AnalysisConfig{Concurrency: DefaultConcurrency},
		Seeds:    SeedConfig{Dir: DefaultSeedDir, Files: append([]string(nil), DefaultSeedFiles...)},
		Report: ReportConfig{
			Dir:       DefaultReportDir,
			CachePath: DefaultCachePath,
			Timezone:  DefaultTimezone,
		},
		Server:  ServerConfig{Addr: DefaultAddr, ShutdownTimeout: 10 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "console", Dir: DefaultLogDir},
	}
}
