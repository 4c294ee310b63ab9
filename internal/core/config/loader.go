package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 30 * time.Second
	}
	if cfg.Recovery.FailureThreshold == 0 {
		cfg.Recovery.FailureThreshold = 5
	}
	if cfg.Recovery.RecoveryTimeout == 0 {
		cfg.Recovery.RecoveryTimeout = 60 * time.Second
	}

	for i := range cfg.Leagues {
		if cfg.Leagues[i].ScanInterval == 0 {
			cfg.Leagues[i].ScanInterval = 6 * time.Hour
		}
	}

	return &cfg, nil
}
