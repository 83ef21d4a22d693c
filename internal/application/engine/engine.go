package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/colonyforge/internal/adapters/metrics"
	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/application/jobs/commands"
	"github.com/andrescamacho/colonyforge/internal/application/jobs/queries"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// Options assembles the engine's collaborators
type Options struct {
	PlayerID shared.PlayerID
	Token    string
	Catalog  *catalog.Catalog
	State    *common.GameState
	Client   common.AuthorityClient
	Repo     common.JobRepository
	Clock    shared.Clock
	Metrics  *metrics.JobMetrics

	StoreConfig     jobs.StoreConfig
	SchedulerConfig jobs.SchedulerConfig
}

// Engine is the composition root of the client simulation: the job store,
// the reconciliation scheduler and the mediator the outer surfaces (CLI,
// UI bindings) send commands and queries through.
type Engine struct {
	store     *jobs.Store
	scheduler *jobs.Scheduler
	mediator  common.Mediator
	catalog   *catalog.Catalog
	state     *common.GameState
}

// New wires an engine. Restore is not called here; callers decide when to
// load persisted jobs (after migrations, before the scheduler starts).
func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.State == nil {
		return nil, fmt.Errorf("game state is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("authority client is required")
	}

	store := jobs.NewStore(
		opts.PlayerID,
		opts.Token,
		opts.Client,
		opts.Repo,
		opts.State,
		opts.Clock,
		opts.Metrics,
		opts.StoreConfig,
	)
	scheduler := jobs.NewScheduler(store, opts.Metrics, opts.SchedulerConfig)

	m := common.NewMediator()
	registrations := []error{
		common.RegisterHandler[*commands.StartJobCommand](m, commands.NewStartJobHandler(store, opts.Catalog)),
		common.RegisterHandler[*commands.CancelJobCommand](m, commands.NewCancelJobHandler(store)),
		common.RegisterHandler[*queries.ResolveTargetQuery](m, queries.NewResolveTargetHandler(store, opts.Catalog)),
		common.RegisterHandler[*queries.ListJobsQuery](m, queries.NewListJobsHandler(store)),
		common.RegisterHandler[*queries.JobProgressQuery](m, queries.NewJobProgressHandler(store)),
	}
	for _, err := range registrations {
		if err != nil {
			return nil, fmt.Errorf("failed to register handler: %w", err)
		}
	}

	return &Engine{
		store:     store,
		scheduler: scheduler,
		mediator:  m,
		catalog:   opts.Catalog,
		state:     opts.State,
	}, nil
}

// Restore loads persisted jobs, discarding ghosts
func (e *Engine) Restore(ctx context.Context) error {
	return e.store.Restore(ctx)
}

// Run drives the reconciliation loop until the context is cancelled
func (e *Engine) Run(ctx context.Context) {
	e.scheduler.Run(ctx)
}

// Tick runs one scheduler pass and returns the delay until the next.
// For hosts that drive the loop themselves instead of calling Run.
func (e *Engine) Tick(ctx context.Context) time.Duration {
	return e.scheduler.Tick(ctx)
}

// Send dispatches a command or query
func (e *Engine) Send(ctx context.Context, request common.Request) (common.Response, error) {
	return e.mediator.Send(ctx, request)
}

// OnProgress installs the per-tick progress callback. Must be set before Run.
func (e *Engine) OnProgress(fn func([]jobs.ProgressSnapshot)) {
	e.scheduler.OnProgress(fn)
}

// Store exposes the job store for surfaces that read it directly
func (e *Engine) Store() *jobs.Store {
	return e.store
}

// State exposes the player game state
func (e *Engine) State() *common.GameState {
	return e.state
}

// Catalog exposes the loaded definitions catalog
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}
