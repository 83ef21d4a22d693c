package persistence

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// JobEvent is one queryable lifecycle event row
type JobEvent struct {
	ID        int
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormJobEventRepository records job lifecycle events in the database.
// It also implements the engine logger contract, so every store/scheduler
// log line doubles as durable job history.
type GormJobEventRepository struct {
	db       *gorm.DB
	playerID shared.PlayerID
	clock    shared.Clock
}

// NewGormJobEventRepository creates a new job event repository
// If clock is nil, uses RealClock (production behavior)
func NewGormJobEventRepository(db *gorm.DB, playerID shared.PlayerID, clock shared.Clock) *GormJobEventRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormJobEventRepository{db: db, playerID: playerID, clock: clock}
}

// Log persists one event row. Failures are swallowed: event history is
// best-effort and must never break a lifecycle transition.
func (r *GormJobEventRepository) Log(level, message string, metadata map[string]interface{}) {
	metadataJSON := ""
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(data)
		}
	}

	r.db.Create(&JobEventModel{
		PlayerID:  r.playerID.Value(),
		Timestamp: r.clock.Now(),
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	})
}

// RecentEvents returns the newest events first, optionally filtered by level
func (r *GormJobEventRepository) RecentEvents(ctx context.Context, limit int, level *string) ([]JobEvent, error) {
	query := r.db.WithContext(ctx).
		Where("player_id = ?", r.playerID.Value()).
		Order("timestamp DESC, id DESC").
		Limit(limit)
	if level != nil {
		query = query.Where("level = ?", *level)
	}

	var models []JobEventModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	events := make([]JobEvent, 0, len(models))
	for _, model := range models {
		event := JobEvent{
			ID:        model.ID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
		}
		if model.Metadata != "" {
			_ = json.Unmarshal([]byte(model.Metadata), &event.Metadata)
		}
		events = append(events, event)
	}
	return events, nil
}
