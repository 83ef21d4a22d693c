package persistence

import (
	"time"
)

// JobModel represents the jobs table: one row per running or
// pending-completion job, keyed by player and target entity. The unique
// target key enforces the one-job-per-target rule at the storage layer too.
type JobModel struct {
	PlayerID      int        `gorm:"column:player_id;primaryKey;not null"`
	TargetID      string     `gorm:"column:target_id;primaryKey;not null"`
	JobID         string     `gorm:"column:job_id;not null"`
	CorrelationID string     `gorm:"column:correlation_id"`
	StartTs       time.Time  `gorm:"column:start_ts;not null"`
	EndTs         time.Time  `gorm:"column:end_ts;not null"`
	NextCheckTs   *time.Time `gorm:"column:next_check_ts"`
	Attempts      int        `gorm:"column:attempts;default:0"`
	LockedCosts   string     `gorm:"column:locked_costs;type:text"` // JSON as text
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null"`
}

func (JobModel) TableName() string {
	return "jobs"
}

// JobEventModel represents the job_events table: the queryable history of
// lifecycle events (starts, completions, cancels, stale cleanups, retries)
type JobEventModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID  int       `gorm:"column:player_id;not null;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (JobEventModel) TableName() string {
	return "job_events"
}

// EngineModels lists every model the engine migrates
func EngineModels() []interface{} {
	return []interface{}{
		&JobModel{},
		&JobEventModel{},
	}
}
