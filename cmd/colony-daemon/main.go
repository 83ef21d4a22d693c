package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/colonyforge/internal/adapters/api"
	"github.com/andrescamacho/colonyforge/internal/adapters/cli"
	"github.com/andrescamacho/colonyforge/internal/adapters/metrics"
	"github.com/andrescamacho/colonyforge/internal/adapters/persistence"
	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/engine"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
	"github.com/andrescamacho/colonyforge/internal/infrastructure/config"
	"github.com/andrescamacho/colonyforge/internal/infrastructure/database"
	"github.com/andrescamacho/colonyforge/internal/infrastructure/pidfile"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	statePath := flag.String("state", "state.json", "Path to the player state snapshot")
	pidPath := flag.String("pidfile", "", "Path to PID file for single-instance enforcement")
	flag.Parse()

	fmt.Println("ColonyForge Engine Daemon v0.1.0")
	fmt.Println("================================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configPath)

	if *pidPath != "" {
		pf := pidfile.New(*pidPath)
		if err := pf.Acquire(); err != nil {
			log.Fatalf("Fatal error: %v", err)
		}
		defer pf.Release()
	}

	if err := run(cfg, *statePath); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config, statePath string) error {
	// 1. Database
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	// 2. Player identity
	playerID, err := shared.NewPlayerID(cfg.Engine.PlayerID)
	if err != nil {
		return fmt.Errorf("engine.player_id: %w", err)
	}

	// 3. Content and state
	fmt.Printf("Loading catalog from %s...\n", cfg.Engine.CatalogPath)
	cat, err := catalog.LoadFile(cfg.Engine.CatalogPath)
	if err != nil {
		return err
	}
	for _, warning := range cat.Warnings() {
		fmt.Println("catalog:", warning)
	}

	snap, err := cli.LoadStateSnapshot(statePath)
	if err != nil {
		return err
	}
	state := common.NewGameState(snap)

	// 4. Metrics
	jobMetrics := metrics.NewJobMetrics()
	requestMetrics := metrics.NewRequestMetrics()
	registry := prometheus.NewRegistry()
	if err := jobMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := requestMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// 5. Engine. Lifecycle events fan out to the configured stream and the
	// durable per-player event table.
	logWriter, closeLog, err := openLogWriter(&cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	events := persistence.NewGormJobEventRepository(db, playerID, nil)
	engineLog := common.NewMultiLogger(
		common.NewStreamLogger(logWriter, cfg.Logging.Level, cfg.Logging.Format, nil),
		events,
	)
	eng, err := engine.New(engine.Options{
		PlayerID: playerID,
		Token:    cfg.Backend.Token,
		Catalog:  cat,
		State:    state,
		Client: api.NewReconciliationClientWithConfig(
			cfg.Backend.BaseURL,
			cfg.Backend.Retry.MaxAttempts,
			cfg.Backend.Retry.BackoffBase,
			nil,
		).WithMetrics(requestMetrics),
		Repo:    persistence.NewGormJobRepository(db, nil),
		Metrics: jobMetrics,
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
		return err
	}

	ctx, cancel := context.WithCancel(common.WithLogger(context.Background(), engineLog))
	defer cancel()

	fmt.Println("Restoring persisted jobs...")
	if err := eng.Restore(ctx); err != nil {
		return err
	}
	fmt.Printf("Restored %d job(s)\n", eng.Store().Count())

	// 6. Metrics endpoint
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: addr, Handler: mux}

		go func() {
			fmt.Printf("Metrics listening on http://%s%s\n", addr, cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	// 7. Reconciliation loop until signalled
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	fmt.Println("Scheduler running")
	eng.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	fmt.Println("Shutdown complete")
	return nil
}

// openLogWriter resolves the configured stream log destination
func openLogWriter(cfg *config.LoggingConfig) (io.Writer, func(), error) {
	switch cfg.Output {
	case "stderr":
		return os.Stderr, func() {}, nil
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	default:
		return os.Stdout, func() {}, nil
	}
}
