package config

import (
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
	redisclient "github.com/longnd/fixturewatch/internal/infra/redis"
	"github.com/longnd/fixturewatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	DataDir  string             `yaml:"data_dir"`
	Leagues  []LeagueConfig     `yaml:"leagues"`
	Scraper  ScraperConfig      `yaml:"scraper"`
	Recovery RecoveryConfig     `yaml:"recovery"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// LeagueConfig holds settings for one scraped league/season.
type LeagueConfig struct {
	ID              domain.LeagueID `yaml:"id"`
	Season          string          `yaml:"season"`
	ScanInterval    time.Duration   `yaml:"scan_interval"`
	RetentionPeriod time.Duration   `yaml:"retention_period"` // 0 = infinite
}

// ScraperConfig holds settings for the upstream schedule source.
type ScraperConfig struct {
	BaseURL     string        `yaml:"base_url"`
	FallbackURL string        `yaml:"fallback_url"` // optional lower-fidelity mirror
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
}

// RecoveryConfig holds circuit breaker settings.
type RecoveryConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}
