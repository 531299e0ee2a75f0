// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: semantic-scholar-api-key, llm-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// Key file names.
const (
	ScholarAPIKey = "semantic-scholar-api-key"
	LLMAPIKey     = "llm-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills API keys in cfg that are still empty from the loaded secrets.
// Keys already set by the config file or environment win.
func Apply(cfg *types.MonitorConfig, secrets map[string]string) {
	if cfg.Scholar.APIKey == "" {
		cfg.Scholar.APIKey = secrets[ScholarAPIKey]
	}
	if v, ok := secrets[LLMAPIKey]; ok && (cfg.LLM.APIKey == "" || cfg.LLM.APIKey == types.DefaultLLMAPIKey) {
		cfg.LLM.APIKey = v
	}
}
