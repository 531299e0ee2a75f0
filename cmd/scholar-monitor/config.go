// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// userAgent identifies the monitor to the APIs it calls.
func userAgent() string {
	return "scholar-monitor/" + version
}

// optionalKeys have no default value but must be known to viper so that
// SCHOLAR_MONITOR_* variables reach them.
var optionalKeys = []string{"scholar.api_key", "llm.model", "schedule.cron"}

// configure points v at the config file and environment and registers the
// defaults. A missing config file is not an error.
func configure(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("scholar-monitor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "scholar-monitor"))
		}
	}

	v.SetEnvPrefix("SCHOLAR_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v, types.DefaultConfig(userAgent())); err != nil {
		fmt.Fprintln(os.Stderr, "warning: registering defaults:", err)
	}

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

// setDefaults registers every field of cfg as a viper default, keyed by its
// yaml path.
func setDefaults(v *viper.Viper, cfg types.MonitorConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	walkDefaults(v, "", tree)
	for _, key := range optionalKeys {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			walkDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig decodes the merged configuration.
func loadConfig(v *viper.Viper) (types.MonitorConfig, error) {
	var cfg types.MonitorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}
