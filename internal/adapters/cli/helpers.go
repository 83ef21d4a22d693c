package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/andrescamacho/colonyforge/internal/adapters/api"
	"github.com/andrescamacho/colonyforge/internal/adapters/metrics"
	"github.com/andrescamacho/colonyforge/internal/adapters/persistence"
	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/engine"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
	"github.com/andrescamacho/colonyforge/internal/infrastructure/config"
	"github.com/andrescamacho/colonyforge/internal/infrastructure/database"
)

// session bundles everything a CLI command needs for one invocation
type session struct {
	engine *engine.Engine
	events *persistence.GormJobEventRepository
	ctx    context.Context
	db     *gorm.DB
}

func (s *session) close() {
	_ = database.Close(s.db)
}

// newSession builds an in-process engine from config, catalog, state
// snapshot and the durable job store, restoring persisted jobs
func newSession(ctx context.Context) (*session, error) {
	cfg := config.LoadConfigOrDefault(configPath)

	pid, err := resolvePlayerID(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	cat, err := catalog.LoadFile(cfg.Engine.CatalogPath)
	if err != nil {
		database.Close(db)
		return nil, err
	}
	if verbose {
		for _, warning := range cat.Warnings() {
			fmt.Fprintln(os.Stderr, "catalog:", warning)
		}
	}

	snap, err := LoadStateSnapshot(statePath)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	events := persistence.NewGormJobEventRepository(db, pid, nil)
	var engineLog common.EngineLogger = events
	if verbose {
		engineLog = common.NewMultiLogger(
			common.NewStreamLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format, nil),
			events,
		)
	}
	ctx = common.WithLogger(ctx, engineLog)

	eng, err := engine.New(engine.Options{
		PlayerID: pid,
		Token:    cfg.Backend.Token,
		Catalog:  cat,
		State:    common.NewGameState(snap),
		Client: api.NewReconciliationClientWithConfig(
			cfg.Backend.BaseURL,
			cfg.Backend.Retry.MaxAttempts,
			cfg.Backend.Retry.BackoffBase,
			nil,
		),
		Repo:    persistence.NewGormJobRepository(db, nil),
		Metrics: metrics.NewJobMetrics(),
		StoreConfig: jobs.StoreConfig{
			CompletionGrace:     cfg.Scheduler.CompletionGrace,
			NotFinishedYetDelay: cfg.Scheduler.NotFinishedYetDelay,
			FailureBackoffBase:  cfg.Scheduler.FailureBackoffBase,
			FailureBackoffMax:   cfg.Scheduler.FailureBackoffMax,
		},
		SchedulerConfig: jobs.SchedulerConfig{
			ActiveInterval: cfg.Scheduler.ActiveInterval,
			IdleInterval:   cfg.Scheduler.IdleInterval,
		},
	})
	if err != nil {
		database.Close(db)
		return nil, err
	}

	if err := eng.Restore(ctx); err != nil {
		database.Close(db)
		return nil, err
	}

	return &session{engine: eng, events: events, ctx: ctx, db: db}, nil
}

// resolvePlayerID picks the player: --player-id flag, then config, then the
// saved user default
func resolvePlayerID(cfg *config.Config) (shared.PlayerID, error) {
	id := playerID
	if id == 0 {
		id = cfg.Engine.PlayerID
	}
	if id == 0 {
		if handler, err := config.NewUserConfigHandler(); err == nil {
			if userCfg, err := handler.Load(); err == nil && userCfg.DefaultPlayerID != nil {
				id = *userCfg.DefaultPlayerID
			}
		}
	}
	if id == 0 {
		return shared.PlayerID{}, fmt.Errorf("no player selected: pass --player-id or set engine.player_id")
	}
	return shared.NewPlayerID(id)
}

// stateFile is the on-disk JSON shape of a player state snapshot
type stateFile struct {
	Inventory struct {
		Solid         map[string]float64 `json:"solid"`
		Liquid        map[string]float64 `json:"liquid"`
		Livestock     map[string]float64 `json:"livestock"`
		CapacityTotal map[string]float64 `json:"capacityTotal"`
		CapacityUsed  map[string]float64 `json:"capacityUsed"`
	} `json:"inventory"`
	OwnedKeys []string    `json:"ownedKeys"`
	Stage     int         `json:"stage"`
	Research  interface{} `json:"research"` // canonical list or any legacy save shape
}

// LoadStateSnapshot reads a player state snapshot file. Exported because the
// daemon shares the same load path.
func LoadStateSnapshot(path string) (common.GameStateSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.GameStateSnapshot{}, fmt.Errorf("failed to read state snapshot: %w", err)
	}

	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return common.GameStateSnapshot{}, fmt.Errorf("failed to parse state snapshot: %w", err)
	}

	return common.GameStateSnapshot{
		Inventory: inventory.Snapshot{
			Solid:         file.Inventory.Solid,
			Liquid:        file.Inventory.Liquid,
			Livestock:     file.Inventory.Livestock,
			CapacityTotal: file.Inventory.CapacityTotal,
			CapacityUsed:  file.Inventory.CapacityUsed,
		},
		OwnedKeys:      file.OwnedKeys,
		Stage:          file.Stage,
		LegacyResearch: file.Research,
	}, nil
}
