// Package coordinator is the run coordinator (spec §7, component C8): a heartbeat loop that wakes
// up on a fixed interval, and — unless a previous cycle is still running — walks one optimization
// cycle through Stage IDLE -> DataAcquisition -> ForecastRetrieval -> Optimization ->
// ControlDispatch -> IDLE, handing the result off to a Dispatcher, a Persistence store, and a
// DataPlatform uploader.
//
// The heartbeat shape (first run fires immediately rather than waiting for the first tick, a
// ticker drives subsequent runs, missed ticks are coalesced into a single catch-up run rather than
// queued) is grounded on modo.Client.Run and dataplatform's upload loop, both of which use the same
// "ticker + select on ctx.Done()" shape; the stage sequencing itself is grounded on the
// heartbeat/lock semantics described for ems.py's manage_energy, generalised to Go's
// mutex.TryLock rather than an async lock primitive.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cepro/eosbess/fitness"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genetic"
	"github.com/cepro/eosbess/genome"
	"github.com/cepro/eosbess/genparams"
	"github.com/cepro/eosbess/materializer"
	"log/slog"
)

// memoCacheCapacity is the per-run memoization cache's bound (spec §4.8).
const memoCacheCapacity = 100

// ErrRunInProgress is returned by ExecuteOnce when a previous cycle has not yet finished; the
// heartbeat loop logs and skips the tick rather than queuing a second concurrent run.
var ErrRunInProgress = errors.New("coordinator: previous run still in progress")

// Dispatcher issues a materialized Plan's instructions to the physical devices. Implementations
// live in package dispatch, wrapping the battery/meter Modbus adapters.
type Dispatcher interface {
	ApplyPlan(ctx context.Context, plan materializer.Plan) error
}

// Persistence stores a completed Plan for later retrieval/audit. Implementations live in package
// persistence, adapting the teacher's repository package.
type Persistence interface {
	SavePlan(ctx context.Context, plan materializer.Plan) error
}

// Uploader ships a completed Plan's trace to an external data platform for analysis, adapting the
// teacher's data_platform/supabase upload path.
type Uploader interface {
	UploadPlan(ctx context.Context, plan materializer.Plan) error
}

// Coordinator owns one site's optimize-and-dispatch cycle.
type Coordinator struct {
	SiteConfig  genparams.SiteConfig
	Prediction  forecast.Prediction
	Measurement forecast.Measurement
	Dispatcher  Dispatcher
	Persistence Persistence
	Uploader    Uploader

	logger *slog.Logger

	runLock sync.Mutex
	history *runHistoryCache
	memo    *runCache

	stageMu sync.RWMutex
	stage   Stage
}

// New constructs a Coordinator with a bounded history of the last historyLen run outcomes.
func New(siteConfig genparams.SiteConfig, prediction forecast.Prediction, measurement forecast.Measurement, dispatcher Dispatcher, persistence Persistence, uploader Uploader, historyLen int) *Coordinator {
	return &Coordinator{
		SiteConfig:  siteConfig,
		Prediction:  prediction,
		Measurement: measurement,
		Dispatcher:  dispatcher,
		Persistence: persistence,
		Uploader:    uploader,
		logger:      slog.Default(),
		history:     newRunHistoryCache(historyLen),
		memo:        newRunCache(memoCacheCapacity),
		stage:       StageIdle,
	}
}

// Stage reports the run cycle's current stage (spec §7/§4.8), observable by any goroutine while a
// cycle is mid-flight rather than only once ExecuteOnce returns.
func (c *Coordinator) Stage() Stage {
	c.stageMu.RLock()
	defer c.stageMu.RUnlock()
	return c.stage
}

func (c *Coordinator) setStage(s Stage) {
	c.stageMu.Lock()
	c.stage = s
	c.stageMu.Unlock()
}

// Run loops forever, executing one optimization cycle immediately and then every period
// thereafter, until ctx is cancelled. If a cycle is still running when the next tick fires (it
// shouldn't be, under normal operation, since a cycle completes well within one period) the tick
// is dropped rather than queued — the next tick after that will simply re-run against whatever
// forecast/measurement data is current then, which is the missed-interval catch-up behaviour: no
// backlog of stale runs ever accumulates.
func (c *Coordinator) Run(ctx context.Context, period time.Duration) error {
	c.runOnceLogged(ctx)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.runOnceLogged(ctx)
		}
	}
}

func (c *Coordinator) runOnceLogged(ctx context.Context) {
	outcome := c.ExecuteOnce(ctx)
	c.history.Add(time.Now().UnixNano(), outcome)

	if outcome.Succeeded() {
		c.logger.Info("optimization cycle completed", "stage", outcome.FinalStage)
		return
	}
	if errors.Is(outcome.Err, ErrRunInProgress) {
		c.logger.Warn("skipped optimization cycle", "error", outcome.Err)
		return
	}
	c.logger.Error("optimization cycle failed", "stage", outcome.FinalStage, "error", outcome.Err)
}

// ExecuteOnce runs a single cycle to completion (or to its first failing stage) and returns the
// outcome. It never panics and never blocks past ctx's cancellation once the in-flight
// Prediction/Measurement/Dispatcher/Persistence/Uploader calls respect ctx themselves.
func (c *Coordinator) ExecuteOnce(ctx context.Context) RunOutcome {
	if !c.runLock.TryLock() {
		return RunOutcome{FinalStage: StageIdle, Err: ErrRunInProgress}
	}
	defer c.runLock.Unlock()
	defer c.setStage(StageIdle)

	// a prior run's memoized derating factors belong to that run's forecast; carrying them over
	// would memoize a stale answer against this run's (possibly different) temperatures.
	c.memo.Reset()

	now := time.Now()

	loc, err := time.LoadLocation(c.SiteConfig.TimezoneName)
	if err != nil {
		c.setStage(StageDataAcquisition)
		return RunOutcome{FinalStage: c.Stage(), Err: fmt.Errorf("load site timezone %q: %w", c.SiteConfig.TimezoneName, err)}
	}

	c.setStage(StageDataAcquisition)
	measured, err := genparams.FetchMeasurements(ctx, c.Measurement)
	if err != nil {
		return RunOutcome{FinalStage: c.Stage(), Err: err}
	}

	c.setStage(StageForecastRetrieval)
	bundle, err := genparams.FetchForecast(ctx, c.Prediction, now, loc, c.SiteConfig.HorizonHoursOrDefault())
	if err != nil {
		return RunOutcome{FinalStage: c.Stage(), Err: err}
	}

	c.setStage(StageOptimization)
	run, err := genparams.Build(c.SiteConfig, bundle, measured, loc, now, c.memo)
	if err != nil {
		return RunOutcome{FinalStage: c.Stage(), Err: fmt.Errorf("assemble run parameters: %w", err)}
	}

	result, err := genetic.Run(run.GAConfig, run.Codec, evaluateFunc(run.Evaluator))
	if err != nil {
		return RunOutcome{FinalStage: c.Stage(), Err: fmt.Errorf("run genetic engine: %w", err)}
	}

	_, simResult, err := run.Evaluator.Evaluate(&result.Best)
	if err != nil {
		return RunOutcome{FinalStage: c.Stage(), Err: fmt.Errorf("re-simulate best genome: %w", err)}
	}

	c.setStage(StageControlDispatch)
	plan, err := materializer.Materialize(now, simResult, c.SiteConfig.Battery, c.SiteConfig.Inverter, evID(c.SiteConfig), applianceID(c.SiteConfig))
	if err != nil {
		return RunOutcome{FinalStage: c.Stage(), Err: fmt.Errorf("materialize plan: %w", err)}
	}

	if c.Dispatcher != nil {
		if err := c.Dispatcher.ApplyPlan(ctx, plan); err != nil {
			return RunOutcome{FinalStage: c.Stage(), Err: fmt.Errorf("dispatch plan: %w", err)}
		}
	}
	if c.Persistence != nil {
		if err := c.Persistence.SavePlan(ctx, plan); err != nil {
			c.logger.Error("failed to persist plan", "error", err)
		}
	}
	if c.Uploader != nil {
		if err := c.Uploader.UploadPlan(ctx, plan); err != nil {
			c.logger.Error("failed to upload plan", "error", err)
		}
	}

	return RunOutcome{FinalStage: StageControlDispatch}
}

// History returns up to n most recent run outcomes, newest first.
func (c *Coordinator) History(n int) []RunOutcome {
	return c.history.Recent(n)
}

func evID(cfg genparams.SiteConfig) string {
	if cfg.EV == nil {
		return ""
	}
	return cfg.EV.ID.String()
}

func applianceID(cfg genparams.SiteConfig) string {
	if cfg.Appliance == nil {
		return ""
	}
	return cfg.Appliance.ID.String()
}

func evaluateFunc(e *fitness.Evaluator) genetic.EvaluateFunc {
	return func(g *genome.Genome) (float64, error) {
		fit, _, err := e.Evaluate(g)
		return fit, err
	}
}
