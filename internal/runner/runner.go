// Package runner drives an adapter through a scenario tick by tick.
//
// A run creates one world, applies fixtures, dispatches tick-0 steps, then
// alternates World.DoTick with the steps the timeline has due at the new
// tick. Assertion failures are recorded and the run continues; adapter
// errors abort it because the world can no longer be trusted.
//
// Thread-safety model:
//   - A Runner holds no per-run state and may run several scenarios
//     concurrently, provided the adapter returns independent worlds.
//   - Each run is strictly sequential; adapter calls never overlap.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
	"github.com/JunkyDeveloper/flint-core/internal/results"
	"github.com/JunkyDeveloper/flint-core/internal/scenario"
	"github.com/JunkyDeveloper/flint-core/internal/spatial"
	"github.com/JunkyDeveloper/flint-core/internal/timeline"
)

// TracerName is the instrumentation scope of run spans.
const TracerName = "github.com/JunkyDeveloper/flint-core/internal/runner"

// Runner executes scenarios against an adapter.
type Runner struct {
	adapter   adapter.Adapter
	config    TestRunConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	stateHook func(scenario string, state State)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for the per-run span.
// The default comes from the global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithStateHook registers a callback invoked on every state transition.
// It is called from the goroutine executing the run.
func WithStateHook(hook func(scenario string, state State)) Option {
	return func(r *Runner) {
		r.stateHook = hook
	}
}

// New creates a Runner. The config is validated by Run.
func New(a adapter.Adapter, config TestRunConfig, opts ...Option) *Runner {
	r := &Runner{
		adapter: a,
		config:  config,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the runner's configuration.
func (r *Runner) Config() TestRunConfig {
	return r.config
}

// Run executes s against a fresh world and returns its report.
//
// An error is returned only when the scenario cannot be run at all: the
// config is invalid or the schedule is inconsistent (a
// *timeline.ScheduleError). Both are detected before the world is created.
// Every other outcome, including adapter failures, is a report.
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*results.RunReport, error) {
	if s == nil {
		return nil, errors.New("scenario is nil")
	}
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	tl, err := timeline.New(s.Steps)
	if err != nil {
		return nil, fmt.Errorf("schedule scenario %q: %w", s.Name, err)
	}

	ctx, span := r.tracer.Start(ctx, "flint.run", trace.WithAttributes(
		attribute.String("flint.scenario", s.Name),
		attribute.Int("flint.steps", len(s.Steps)),
	))
	defer span.End()

	server := r.adapter.ServerInfo()
	ex := &execution{
		runner:   r,
		scenario: s,
		timeline: tl,
		agg:      results.NewAggregator(s.Name, server),
		logger:   r.logger.With("scenario", s.Name),
	}
	ex.logger.Info("run started", "server", server.Version, "steps", len(s.Steps), "max_ticks", r.config.MaxTicks)

	report := ex.execute(ctx)

	span.SetAttributes(
		attribute.String("flint.verdict", string(report.Verdict)),
		attribute.Int64("flint.ticks", int64(report.TicksElapsed)),
	)
	if report.Failure != nil {
		span.SetAttributes(attribute.String("flint.failure", string(report.Failure.Kind)))
		span.SetStatus(codes.Error, report.Failure.Message)
	}

	ex.logger.Info("run finished",
		"verdict", report.Verdict,
		"ticks", report.TicksElapsed,
		"steps", len(report.Steps),
	)
	return report, nil
}

// execution is the state of one run.
type execution struct {
	runner   *Runner
	scenario *scenario.Scenario
	timeline *timeline.Timeline
	agg      *results.Aggregator
	logger   *slog.Logger

	world  adapter.World
	player adapter.Player
	equal  spatial.Equality
	state  State
}

func (ex *execution) execute(ctx context.Context) *results.RunReport {
	world, err := ex.runner.adapter.CreateTestWorld(ctx)
	if err != nil {
		ex.logger.Error("create world failed", "error", err)
		ex.transition(StateAborted)
		ex.agg.Abort(results.FailureAdapter, results.NoStep, adapter.NewAdapterError(adapter.OpCreateTestWorld, err))
		ex.agg.SetPending(len(ex.scenario.Steps))
		return ex.agg.Complete(0)
	}
	ex.world = world
	ex.equal = spatial.EqualityFor(world)
	defer ex.release()
	ex.transition(StateCreated)

	fixtures := ex.timeline.Fixtures()
	for i, step := range fixtures {
		if !ex.dispatch(step) {
			ex.agg.SetPending(len(fixtures) - i - 1 + ex.timeline.Pending())
			return ex.agg.Complete(0)
		}
	}
	ex.transition(StateFixturesApplied)

	ex.transition(StateRunning)
	if !ex.dispatchAll(ex.timeline.Due()) {
		return ex.agg.Complete(ex.timeline.Cursor())
	}

	maxTicks := ex.runner.config.MaxTicks
	for !ex.timeline.Exhausted() {
		if ex.timeline.Cursor() >= maxTicks {
			ex.logger.Warn("tick budget exhausted", "max_ticks", maxTicks, "pending", ex.timeline.Pending())
			ex.agg.TimedOut(ex.timeline.Pending(), maxTicks)
			ex.transition(StateCompleted)
			return ex.agg.Complete(ex.timeline.Cursor())
		}

		if err := ex.world.DoTick(); err != nil {
			ex.logger.Error("tick failed", "tick", ex.timeline.Cursor()+1, "error", err)
			ex.agg.Abort(results.FailureAdapter, results.NoStep, adapter.NewAdapterError(adapter.OpDoTick, err))
			ex.agg.SetPending(ex.timeline.Pending())
			ex.transition(StateAborted)
			return ex.agg.Complete(ex.timeline.Cursor())
		}

		due := ex.timeline.Advance()
		if len(due) > 0 {
			ex.logger.Debug("dispatching tick", "tick", ex.timeline.Cursor(), "steps", len(due))
		}
		if !ex.dispatchAll(due) {
			return ex.agg.Complete(ex.timeline.Cursor())
		}
	}

	ex.transition(StateCompleted)
	return ex.agg.Complete(ex.timeline.Cursor())
}

// dispatchAll runs one tick's steps in order. It returns false if the run
// must stop, having recorded why.
func (ex *execution) dispatchAll(due []timeline.ScheduledStep) bool {
	for i, step := range due {
		if !ex.dispatch(step) {
			ex.agg.SetPending(len(due) - i - 1 + ex.timeline.Pending())
			return false
		}
	}
	return true
}

// dispatch applies or checks one step and records its result. It returns
// false if the run must stop.
func (ex *execution) dispatch(step timeline.ScheduledStep) bool {
	result := results.StepResult{
		Index:   step.Index,
		Tick:    step.Tick,
		Fixture: step.Fixture,
		Label:   step.Step.Label,
		Action:  step.Step.Action.Name(),
	}

	err := ex.perform(step.Step.Action, &result)
	if err != nil {
		result.Status = results.StatusErrored
		result.Message = err.Error()
	}
	ex.agg.Append(result)

	ex.logger.Debug("step",
		"tick", step.Tick,
		"step", step.Index,
		"action", result.Action,
		"status", result.Status,
	)

	switch {
	case err != nil:
		ex.logger.Error("adapter error, aborting run", "step", step.Index, "action", result.Action, "error", err)
		ex.agg.Abort(results.FailureAdapter, step.Index, err)
		ex.transition(StateAborted)
		return false

	case result.Status == results.StatusFailed && ex.runner.config.FailFast:
		ex.logger.Info("assertion failed, stopping", "step", step.Index, "action", result.Action)
		ex.transition(StateCompleted)
		return false
	}
	return true
}

// perform executes the action and fills in the result status. A returned
// error is an adapter error.
func (ex *execution) perform(action scenario.Action, result *results.StepResult) error {
	if action.NeedsPlayer() {
		if err := ex.ensurePlayer(); err != nil {
			return err
		}
	}

	if action.Category() == scenario.CategoryAssertion {
		return ex.check(action, result)
	}

	result.Status = results.StatusApplied
	switch a := action.(type) {
	case scenario.Place:
		return adapter.NewAdapterError(adapter.OpSetBlock, ex.world.SetBlock(a.Pos, a.Block))
	case scenario.Remove:
		return adapter.NewAdapterError(adapter.OpSetBlock, ex.world.SetBlock(a.Pos, ir.Air))
	case scenario.Fill:
		return ex.fill(a.Region, a.Block)
	case scenario.Clear:
		return ex.fill(a.Region, ir.Air)
	case scenario.SetSlot:
		return adapter.NewAdapterError(adapter.OpSetSlot, ex.player.SetSlot(a.Slot, a.Item))
	case scenario.SelectHotbar:
		return adapter.NewAdapterError(adapter.OpSelectHotbar, ex.player.SelectHotbar(a.Index))
	case scenario.UseItemOn:
		return adapter.NewAdapterError(adapter.OpUseItemOn, ex.player.UseItemOn(a.Pos, a.Face))
	}
	return fmt.Errorf("unsupported action %q", action.Name())
}

// check runs an assertion. Read failures are adapter errors; mismatches
// are recorded on the result.
func (ex *execution) check(action scenario.Action, result *results.StepResult) error {
	var (
		report spatial.MismatchReport
		err    error
	)

	switch a := action.(type) {
	case scenario.AssertBlock:
		report, err = spatial.Compare(ex.world, []spatial.Expectation{{Pos: a.Pos, Block: a.Block}}, ex.equal)
	case scenario.AssertRegion:
		report, err = spatial.CompareRegion(ex.world, a.Region, a.Block, ex.equal)
	case scenario.AssertBlocks:
		expected := make([]spatial.Expectation, len(a.Checks))
		for i, c := range a.Checks {
			expected[i] = spatial.Expectation{Pos: c.Pos, Block: c.Block}
		}
		report, err = spatial.Compare(ex.world, expected, ex.equal)
	case scenario.AssertSlot:
		actual, err := ex.player.GetSlot(a.Slot)
		if err != nil {
			return adapter.NewAdapterError(adapter.OpGetSlot, err)
		}
		if ir.ItemsEqual(a.Item, actual) {
			result.Status = results.StatusPassed
			return nil
		}
		result.Status = results.StatusFailed
		result.SlotMismatch = &results.SlotMismatch{Slot: a.Slot, Expected: a.Item, Actual: actual}
		return nil
	default:
		return fmt.Errorf("unsupported assertion %q", action.Name())
	}

	if err != nil {
		return adapter.NewAdapterError(adapter.OpGetBlock, err)
	}
	if report.Empty() {
		result.Status = results.StatusPassed
		return nil
	}
	result.Status = results.StatusFailed
	result.Mismatches = report
	return nil
}

// fill sets every position of region in raster order.
func (ex *execution) fill(region ir.Region, block ir.Block) error {
	for pos := range region.Positions() {
		if err := ex.world.SetBlock(pos, block); err != nil {
			return adapter.NewAdapterError(adapter.OpSetBlock, fmt.Errorf("at %s: %w", pos, err))
		}
	}
	return nil
}

// ensurePlayer creates the run's player on first use.
func (ex *execution) ensurePlayer() error {
	if ex.player != nil {
		return nil
	}
	player, err := ex.world.CreatePlayer()
	if err != nil {
		return adapter.NewAdapterError(adapter.OpCreatePlayer, err)
	}
	ex.logger.Debug("player created")
	ex.player = player
	return nil
}

// release drops the run's world and player, closing the world if it
// supports it.
func (ex *execution) release() {
	if c, ok := ex.world.(io.Closer); ok {
		if err := c.Close(); err != nil {
			ex.logger.Warn("close world failed", "error", err)
		}
	}
	ex.world = nil
	ex.player = nil
}

func (ex *execution) transition(to State) {
	if ex.state.Terminal() {
		return
	}
	ex.logger.Debug("state", "from", ex.state, "to", to)
	ex.state = to
	if ex.runner.stateHook != nil {
		ex.runner.stateHook(ex.scenario.Name, to)
	}
}
