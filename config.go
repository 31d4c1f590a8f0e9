package zekta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configFileName = "zekta.config.json"
	configVersion  = 1

	bucketsDirName = "buckets"
	bucketFileExt  = ".bucket"
)

// seriesConfig is the on-disk series configuration. The format is fixed:
// UTF-8 JSON {"version":1,"valueByteLength":N}.
type seriesConfig struct {
	Version         int `json:"version"`
	ValueByteLength int `json:"valueByteLength"`
}

func configPath(dir string) string {
	return filepath.Join(dir, configFileName)
}

// loadConfig reads and validates the series config. A missing file surfaces
// as fs.ErrNotExist for the caller to resolve against its create policy.
func loadConfig(dir string) (seriesConfig, error) {
	var cfg seriesConfig
	raw, err := os.ReadFile(configPath(dir))
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", configFileName, err)
	}
	if cfg.Version != configVersion {
		return cfg, fmt.Errorf("config version %d: %w", cfg.Version, ErrUnsupportedVersion)
	}
	return cfg, nil
}

// writeConfig creates the series directory if needed and persists cfg.
func writeConfig(dir string, cfg seriesConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(dir), raw, 0o644)
}
