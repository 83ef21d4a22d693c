package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults: a local sqlite file keeps the engine zero-setup;
	// postgres is opt-in for hosted deployments
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "colonyforge.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "colonyforge"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "colonyforge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Backend defaults
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "https://play.colonyforge.io/api/v1"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.RateLimit.Requests == 0 {
		cfg.Backend.RateLimit.Requests = 4
	}
	if cfg.Backend.RateLimit.Burst == 0 {
		cfg.Backend.RateLimit.Burst = 4
	}
	if cfg.Backend.Retry.MaxAttempts == 0 {
		cfg.Backend.Retry.MaxAttempts = 5
	}
	if cfg.Backend.Retry.BackoffBase == 0 {
		cfg.Backend.Retry.BackoffBase = 1 * time.Second
	}

	// Scheduler defaults
	if cfg.Scheduler.ActiveInterval == 0 {
		cfg.Scheduler.ActiveInterval = 250 * time.Millisecond
	}
	if cfg.Scheduler.IdleInterval == 0 {
		cfg.Scheduler.IdleInterval = 5 * time.Second
	}
	if cfg.Scheduler.CompletionGrace == 0 {
		cfg.Scheduler.CompletionGrace = 1 * time.Second
	}
	if cfg.Scheduler.NotFinishedYetDelay == 0 {
		cfg.Scheduler.NotFinishedYetDelay = 2 * time.Second
	}
	if cfg.Scheduler.FailureBackoffBase == 0 {
		cfg.Scheduler.FailureBackoffBase = 5 * time.Second
	}
	if cfg.Scheduler.FailureBackoffMax == 0 {
		cfg.Scheduler.FailureBackoffMax = 60 * time.Second
	}

	// Engine defaults
	if cfg.Engine.CatalogPath == "" {
		cfg.Engine.CatalogPath = "catalog.json"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
