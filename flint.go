// Package flint runs scripted functional tests against block-game servers.
//
// A host server exposes itself by implementing Adapter, World and Player.
// Scenarios are loaded from YAML, JSON or CUE files and executed tick by
// tick against a fresh world; the result is a deterministic RunReport.
//
//	s, err := flint.LoadScenario("scenarios/piston.yaml")
//	if err != nil { ... }
//	report, err := flint.Run(ctx, myAdapter, s, flint.DefaultConfig())
package flint

import (
	"context"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
	"github.com/JunkyDeveloper/flint-core/internal/results"
	"github.com/JunkyDeveloper/flint-core/internal/runner"
	"github.com/JunkyDeveloper/flint-core/internal/scenario"
	"github.com/JunkyDeveloper/flint-core/internal/spatial"
	"github.com/JunkyDeveloper/flint-core/internal/timeline"
)

// Capability contract.
type (
	Adapter       = adapter.Adapter
	World         = adapter.World
	Player        = adapter.Player
	BlockComparer = adapter.BlockComparer
	ServerInfo    = adapter.ServerInfo
	AdapterError  = adapter.AdapterError
)

// World data.
type (
	Block      = ir.Block
	BlockPos   = ir.BlockPos
	Region     = ir.Region
	Item       = ir.Item
	PlayerSlot = ir.PlayerSlot
	BlockFace  = ir.BlockFace
)

// Scenarios and results.
type (
	Scenario       = scenario.Scenario
	Step           = scenario.Step
	Marker         = scenario.Marker
	Action         = scenario.Action
	TestRunConfig  = runner.TestRunConfig
	RunReport      = results.RunReport
	StepResult     = results.StepResult
	Failure        = results.Failure
	Mismatch       = spatial.Mismatch
	MismatchReport = spatial.MismatchReport
	ScheduleError  = timeline.ScheduleError
)

// Actions.
type (
	Place        = scenario.Place
	Remove       = scenario.Remove
	Fill         = scenario.Fill
	Clear        = scenario.Clear
	SetSlot      = scenario.SetSlot
	SelectHotbar = scenario.SelectHotbar
	UseItemOn    = scenario.UseItemOn
	AssertBlock  = scenario.AssertBlock
	AssertRegion = scenario.AssertRegion
	AssertBlocks = scenario.AssertBlocks
	BlockCheck   = scenario.BlockCheck
	AssertSlot   = scenario.AssertSlot
)

// Block faces.
const (
	FaceTop    = ir.FaceTop
	FaceBottom = ir.FaceBottom
	FaceNorth  = ir.FaceNorth
	FaceSouth  = ir.FaceSouth
	FaceEast   = ir.FaceEast
	FaceWest   = ir.FaceWest
)

// Equipment slots. Hotbar and inventory slots come from HotbarSlot and
// ParsePlayerSlot.
const (
	SlotOffhand = ir.SlotOffhand
	SlotHead    = ir.SlotHead
	SlotChest   = ir.SlotChest
	SlotLegs    = ir.SlotLegs
	SlotFeet    = ir.SlotFeet
)

// HotbarSlot returns hotbar slot n (1..9).
func HotbarSlot(n uint8) (PlayerSlot, bool) { return ir.HotbarSlot(n) }

// ParsePlayerSlot parses a slot name such as "hotbar1" or "offhand".
func ParsePlayerSlot(text string) (PlayerSlot, error) { return ir.ParsePlayerSlot(text) }

// Air is the empty block.
var Air = ir.Air

// NewBlock returns a block, adding the minecraft: namespace if id has none.
func NewBlock(id string, props map[string]string) Block { return ir.NewBlock(id, props) }

// NewItem returns an item stack.
func NewItem(id string, count int) Item { return ir.NewItem(id, count) }

// Pos builds a BlockPos.
func Pos(x, y, z int32) BlockPos { return ir.Pos(x, y, z) }

// Step markers.
func At(tick uint64) Marker     { return scenario.At(tick) }
func After(ticks uint64) Marker { return scenario.After(ticks) }
func Immediate() Marker         { return scenario.Immediate() }

// NewAdapterError wraps err as the failure of contract operation op.
func NewAdapterError(op string, err error) error { return adapter.NewAdapterError(op, err) }

// IsAdapterError reports whether err is or wraps an AdapterError.
func IsAdapterError(err error) bool { return adapter.IsAdapterError(err) }

// IsScheduleError reports whether err is or wraps a ScheduleError.
func IsScheduleError(err error) bool { return timeline.IsScheduleError(err) }

// DefaultConfig returns a 1000 tick budget without fail-fast.
func DefaultConfig() TestRunConfig { return runner.DefaultConfig() }

// LoadConfigFromEnv reads FLINT_MAX_TICKS and FLINT_FAIL_FAST.
func LoadConfigFromEnv() (TestRunConfig, error) { return runner.LoadConfigFromEnv() }

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) { return scenario.Load(path) }

// DiffRegion compares every position in region with expected using the
// world's block equality. Mismatches are in raster order.
func DiffRegion(w World, region Region, expected Block) (MismatchReport, error) {
	return spatial.CompareRegion(w, region, expected, spatial.EqualityFor(w))
}

// Run executes s against a fresh world created by a.
//
// An error means the scenario could not be run at all: the config is
// invalid or the schedule is inconsistent. Every other outcome is
// described by the report.
func Run(ctx context.Context, a Adapter, s *Scenario, config TestRunConfig) (*RunReport, error) {
	return runner.New(a, config).Run(ctx, s)
}
