package config

import "time"

// SchedulerConfig holds the reconciliation loop timing
type SchedulerConfig struct {
	// Tick cadence while any job exists
	ActiveInterval time.Duration `mapstructure:"active_interval"`

	// Tick cadence with no jobs (the loop never stops)
	IdleInterval time.Duration `mapstructure:"idle_interval"`

	// Delay past a job's end time before the first completion attempt,
	// absorbing small client/server clock skew
	CompletionGrace time.Duration `mapstructure:"completion_grace"`

	// Retry delay after the server reports a job still running
	NotFinishedYetDelay time.Duration `mapstructure:"not_finished_yet_delay"`

	// Bounds for the generic completion failure backoff
	FailureBackoffBase time.Duration `mapstructure:"failure_backoff_base"`
	FailureBackoffMax  time.Duration `mapstructure:"failure_backoff_max"`
}
