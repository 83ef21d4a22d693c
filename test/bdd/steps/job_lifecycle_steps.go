package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/engine"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/application/jobs/commands"
	"github.com/andrescamacho/colonyforge/internal/application/jobs/queries"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
	"github.com/andrescamacho/colonyforge/test/helpers"
)

// levelDuration is the build time of every catalog entry the steps create.
// Long enough that a job never finishes before the steps advance the clock.
const levelDuration = 60

type jobLifecycleContext struct {
	clock     *shared.MockClock
	authority *helpers.FakeAuthority
	engine    *engine.Engine

	defs      []*catalog.LeveledDefinition
	inventory map[string]float64
	stage     int

	resolveResp *queries.ResolveTargetResponse
	startErrs   []error
	cancelErr   error
	lastJobID   string
}

func (ctx *jobLifecycleContext) reset() {
	ctx.clock = shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx.authority = helpers.NewFakeAuthority(ctx.clock)
	ctx.engine = nil
	ctx.defs = nil
	ctx.inventory = make(map[string]float64)
	ctx.stage = 1
	ctx.resolveResp = nil
	ctx.startErrs = nil
	ctx.cancelErr = nil
	ctx.lastJobID = ""
}

// ensureEngine builds the engine lazily, after the Background steps have
// described the catalog and the player
func (ctx *jobLifecycleContext) ensureEngine() error {
	if ctx.engine != nil {
		return nil
	}

	pid, err := shared.NewPlayerID(1)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Options{
		PlayerID: pid,
		Token:    "test-token",
		Catalog:  catalog.NewCatalog(ctx.defs),
		State: common.NewGameState(common.GameStateSnapshot{
			Inventory: inventory.Snapshot{Solid: ctx.inventory},
			Stage:     ctx.stage,
		}),
		Client:          ctx.authority,
		Clock:           ctx.clock,
		StoreConfig:     jobs.DefaultStoreConfig(),
		SchedulerConfig: jobs.DefaultSchedulerConfig(),
	})
	if err != nil {
		return err
	}

	ctx.engine = eng
	return nil
}

// Given steps

func (ctx *jobLifecycleContext) aCatalogSeries(familyKey string, levels, amount int, resource string) error {
	for level := 1; level <= levels; level++ {
		id, err := shared.ParseEntityID(fmt.Sprintf("%s.l%d", familyKey, level))
		if err != nil {
			return err
		}
		ctx.defs = append(ctx.defs, &catalog.LeveledDefinition{
			ID:              id,
			Cost:            inventory.Normalize(map[string]float64{resource: float64(amount)}),
			DurationSeconds: levelDuration,
			StageRequired:   1,
		})
	}
	return nil
}

func (ctx *jobLifecycleContext) aPlayerWithResourceAtStage(amount int, resource string, stage int) error {
	ctx.inventory[resource] = float64(amount)
	ctx.stage = stage
	return nil
}

// When steps

func (ctx *jobLifecycleContext) thePlayerResolves(familyKey string) error {
	if err := ctx.ensureEngine(); err != nil {
		return err
	}

	resp, err := ctx.engine.Send(context.Background(), &queries.ResolveTargetQuery{FamilyKey: familyKey})
	if err != nil {
		return err
	}
	ctx.resolveResp = resp.(*queries.ResolveTargetResponse)
	return nil
}

func (ctx *jobLifecycleContext) thePlayerStartsAJobFor(targetID string) error {
	if err := ctx.ensureEngine(); err != nil {
		return err
	}

	resp, err := ctx.engine.Send(context.Background(), &commands.StartJobCommand{TargetID: targetID})
	ctx.startErrs = append(ctx.startErrs, err)
	if err == nil {
		ctx.lastJobID = resp.(*commands.StartJobResponse).JobID
	}
	return nil
}

func (ctx *jobLifecycleContext) theServerWillRefundOnCancel(amount int, resource string) error {
	if ctx.lastJobID == "" {
		return fmt.Errorf("no job has been started")
	}
	ctx.authority.SetLockedCosts(ctx.lastJobID, []common.CostLine{
		{Resource: resource, Amount: float64(amount)},
	})
	return nil
}

func (ctx *jobLifecycleContext) thePlayerCancelsTheJobFor(targetID string) error {
	_, ctx.cancelErr = ctx.engine.Send(context.Background(), &commands.CancelJobCommand{TargetID: targetID})
	return nil
}

func (ctx *jobLifecycleContext) theServerHasAlreadyCompletedTheJob() error {
	if ctx.lastJobID == "" {
		return fmt.Errorf("no job has been started")
	}
	ctx.authority.ForgetJob(ctx.lastJobID)
	return nil
}

func (ctx *jobLifecycleContext) theServersClockLagsBySeconds(seconds int) error {
	ctx.authority.Skew = time.Duration(seconds) * time.Second
	return nil
}

func (ctx *jobLifecycleContext) theJobEndsAndTheSchedulerTicks() error {
	// Past the end plus the completion grace window
	ctx.clock.Advance(levelDuration*time.Second + 2*time.Second)
	ctx.engine.Tick(context.Background())
	return nil
}

func (ctx *jobLifecycleContext) secondsPassAndTheSchedulerTicks(seconds int) error {
	ctx.clock.Advance(time.Duration(seconds) * time.Second)
	ctx.engine.Tick(context.Background())
	return nil
}

// Then steps

func (ctx *jobLifecycleContext) theOfferedTargetIs(targetID string) error {
	if ctx.resolveResp == nil {
		return fmt.Errorf("no target has been resolved")
	}
	if ctx.resolveResp.Resolution != catalog.ResolutionOffered {
		return fmt.Errorf("expected an offered target, got resolution %s", ctx.resolveResp.Resolution)
	}
	if ctx.resolveResp.TargetID != targetID {
		return fmt.Errorf("expected target %s, got %s", targetID, ctx.resolveResp.TargetID)
	}
	return nil
}

func (ctx *jobLifecycleContext) resourceIsEscrowed(amount int, resource string) error {
	have := ctx.engine.State().Ledger().Have(resource)
	expected := ctx.inventory[resource] - float64(amount)
	if have != expected {
		return fmt.Errorf("expected %s balance %.0f after escrow, got %.0f", resource, expected, have)
	}
	return nil
}

func (ctx *jobLifecycleContext) aJobIsRunningFor(targetID string) error {
	id, err := shared.ParseEntityID(targetID)
	if err != nil {
		return err
	}
	if _, ok := ctx.engine.Store().Get(id); !ok {
		return fmt.Errorf("expected a running job for %s", targetID)
	}
	return nil
}

func (ctx *jobLifecycleContext) noJobRemainsFor(targetID string) error {
	id, err := shared.ParseEntityID(targetID)
	if err != nil {
		return err
	}
	if _, ok := ctx.engine.Store().Get(id); ok {
		return fmt.Errorf("expected no running job for %s", targetID)
	}
	return nil
}

func (ctx *jobLifecycleContext) thePlayerOwnsAtLevel(familyKey string, level int) error {
	owned := ctx.engine.State().OwnedLevel(familyKey)
	if owned != level {
		return fmt.Errorf("expected %s owned at level %d, got %d", familyKey, level, owned)
	}
	return nil
}

func (ctx *jobLifecycleContext) theSecondStartIsRejected() error {
	if len(ctx.startErrs) < 2 {
		return fmt.Errorf("expected two start attempts, got %d", len(ctx.startErrs))
	}
	err := ctx.startErrs[1]
	if err == nil {
		return fmt.Errorf("expected the second start to fail")
	}
	if !shared.IsRejectedStart(err) {
		return fmt.Errorf("expected a rejected start, got: %v", err)
	}
	return nil
}

func (ctx *jobLifecycleContext) thePlayerHas(amount int, resource string) error {
	have := ctx.engine.State().Ledger().Have(resource)
	if have != float64(amount) {
		return fmt.Errorf("expected %d %s, got %.0f", amount, resource, have)
	}
	return nil
}

func (ctx *jobLifecycleContext) theCancelSucceeds() error {
	if ctx.cancelErr != nil {
		return fmt.Errorf("expected the cancel to succeed, got: %v", ctx.cancelErr)
	}
	return nil
}

// InitializeJobLifecycleScenario registers the job lifecycle step definitions
func InitializeJobLifecycleScenario(sc *godog.ScenarioContext) {
	ctx := &jobLifecycleContext{}

	sc.Before(func(c context.Context, scenario *godog.Scenario) (context.Context, error) {
		ctx.reset()
		return c, nil
	})

	sc.Step(`^a catalog with a "([^"]*)" series of (\d+) levels costing (\d+) "([^"]*)" each$`, ctx.aCatalogSeries)
	sc.Step(`^a player with (\d+) "([^"]*)" at stage (\d+)$`, ctx.aPlayerWithResourceAtStage)

	sc.Step(`^the player resolves "([^"]*)"$`, ctx.thePlayerResolves)
	sc.Step(`^the player starts a job for "([^"]*)"$`, ctx.thePlayerStartsAJobFor)
	sc.Step(`^the server will refund (\d+) "([^"]*)" on cancel$`, ctx.theServerWillRefundOnCancel)
	sc.Step(`^the player cancels the job for "([^"]*)"$`, ctx.thePlayerCancelsTheJobFor)
	sc.Step(`^the server has already completed the job$`, ctx.theServerHasAlreadyCompletedTheJob)
	sc.Step(`^the server's clock lags by (\d+) seconds$`, ctx.theServersClockLagsBySeconds)
	sc.Step(`^the job's end time passes and the scheduler ticks$`, ctx.theJobEndsAndTheSchedulerTicks)
	sc.Step(`^(\d+) seconds pass and the scheduler ticks$`, ctx.secondsPassAndTheSchedulerTicks)

	sc.Step(`^the offered target is "([^"]*)"$`, ctx.theOfferedTargetIs)
	sc.Step(`^(\d+) "([^"]*)" is escrowed$`, ctx.resourceIsEscrowed)
	sc.Step(`^a job is running for "([^"]*)"$`, ctx.aJobIsRunningFor)
	sc.Step(`^no job remains for "([^"]*)"$`, ctx.noJobRemainsFor)
	sc.Step(`^the player owns "([^"]*)" at level (\d+)$`, ctx.thePlayerOwnsAtLevel)
	sc.Step(`^the second start is rejected$`, ctx.theSecondStartIsRejected)
	sc.Step(`^the player has (\d+) "([^"]*)"$`, ctx.thePlayerHas)
	sc.Step(`^the cancel succeeds$`, ctx.theCancelSucceeds)
}
