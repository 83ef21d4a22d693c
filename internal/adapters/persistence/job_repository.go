package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// GormJobRepository is the GORM-based durable job store. Written after every
// lifecycle transition so jobs survive a process restart.
type GormJobRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormJobRepository creates a new job repository
// If clock is nil, uses RealClock (production behavior)
func NewGormJobRepository(db *gorm.DB, clock shared.Clock) *GormJobRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormJobRepository{db: db, clock: clock}
}

// SaveJob upserts a job record keyed by player and target
func (r *GormJobRepository) SaveJob(ctx context.Context, playerID shared.PlayerID, record common.JobRecord) error {
	model, err := r.toModel(playerID, record)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}, {Name: "target_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// DeleteJob removes a job record; deleting an absent record is a no-op
func (r *GormJobRepository) DeleteJob(ctx context.Context, playerID shared.PlayerID, targetID string) error {
	return r.db.WithContext(ctx).
		Where("player_id = ? AND target_id = ?", playerID.Value(), targetID).
		Delete(&JobModel{}).Error
}

// ListJobs returns all persisted jobs for a player
func (r *GormJobRepository) ListJobs(ctx context.Context, playerID shared.PlayerID) ([]common.JobRecord, error) {
	var models []JobModel
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID.Value()).
		Order("target_id").
		Find(&models).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	records := make([]common.JobRecord, 0, len(models))
	for _, model := range models {
		record, err := r.toRecord(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *GormJobRepository) toModel(playerID shared.PlayerID, record common.JobRecord) (*JobModel, error) {
	lockedJSON := ""
	if len(record.LockedCosts) > 0 {
		data, err := json.Marshal(record.LockedCosts)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal locked costs: %w", err)
		}
		lockedJSON = string(data)
	}

	model := &JobModel{
		PlayerID:      playerID.Value(),
		TargetID:      record.TargetID,
		JobID:         record.JobID,
		CorrelationID: record.CorrelationID,
		StartTs:       record.StartTs,
		EndTs:         record.EndTs,
		Attempts:      record.Attempts,
		LockedCosts:   lockedJSON,
		UpdatedAt:     r.clock.Now(),
	}
	if !record.NextCheckTs.IsZero() {
		nextCheck := record.NextCheckTs
		model.NextCheckTs = &nextCheck
	}
	return model, nil
}

func (r *GormJobRepository) toRecord(model JobModel) (common.JobRecord, error) {
	record := common.JobRecord{
		TargetID:      model.TargetID,
		JobID:         model.JobID,
		CorrelationID: model.CorrelationID,
		StartTs:       model.StartTs,
		EndTs:         model.EndTs,
		Attempts:      model.Attempts,
	}
	if model.NextCheckTs != nil {
		record.NextCheckTs = *model.NextCheckTs
	}
	if model.LockedCosts != "" {
		if err := json.Unmarshal([]byte(model.LockedCosts), &record.LockedCosts); err != nil {
			return common.JobRecord{}, fmt.Errorf("failed to unmarshal locked costs for %s: %w", model.TargetID, err)
		}
	}
	return record, nil
}
