package scenario

import (
	"fmt"
	"slices"

	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// Scenario is one declarative test. It is handed to the runner immutably.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string

	// Description explains what this scenario validates.
	Description string

	// Tags group scenarios for filtering.
	Tags []string

	// Steps in declaration order.
	Steps []Step

	// Source is the file the scenario was loaded from, if any.
	Source string
}

// NeedsPlayer reports whether any step needs a simulated player.
func (s *Scenario) NeedsPlayer() bool {
	for _, step := range s.Steps {
		if step.Action.NeedsPlayer() {
			return true
		}
	}
	return false
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// Step is one scheduled action.
type Step struct {
	// Label is an optional human-readable name for diagnostics.
	Label  string
	Marker Marker
	Action Action
}

// MarkerKind selects how a step's tick is resolved.
type MarkerKind uint8

const (
	// MarkerAt schedules the step at an absolute tick. The zero Marker is At(0).
	MarkerAt MarkerKind = iota
	// MarkerAfter schedules the step a number of ticks after the previous step.
	MarkerAfter
	// MarkerImmediate makes the step a fixture applied before tick 0.
	MarkerImmediate
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerAt:
		return "at"
	case MarkerAfter:
		return "after"
	case MarkerImmediate:
		return "immediate"
	}
	return fmt.Sprintf("marker(%d)", uint8(k))
}

// Marker is a step's schedule marker.
type Marker struct {
	Kind  MarkerKind
	Ticks uint64
}

// Immediate returns a fixture marker.
func Immediate() Marker { return Marker{Kind: MarkerImmediate} }

// At returns a marker for absolute tick n.
func At(n uint64) Marker { return Marker{Kind: MarkerAt, Ticks: n} }

// After returns a marker n ticks after the previous step.
func After(n uint64) Marker { return Marker{Kind: MarkerAfter, Ticks: n} }

func (m Marker) String() string {
	if m.Kind == MarkerImmediate {
		return "immediate"
	}
	return fmt.Sprintf("%s %d", m.Kind, m.Ticks)
}

// Category groups actions by how the runner dispatches them.
type Category uint8

const (
	CategorySetup Category = iota
	CategoryInteraction
	CategoryAssertion
)

func (c Category) String() string {
	switch c {
	case CategorySetup:
		return "setup"
	case CategoryInteraction:
		return "interaction"
	case CategoryAssertion:
		return "assertion"
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Action is implemented by every step kind.
type Action interface {
	// Name is the action keyword used in scenario files ("place", ...).
	Name() string
	Category() Category
	NeedsPlayer() bool
}

// Action names.
const (
	ActionPlace        = "place"
	ActionRemove       = "remove"
	ActionFill         = "fill"
	ActionClear        = "clear"
	ActionSetSlot      = "set_slot"
	ActionSelectHotbar = "select_hotbar"
	ActionUseItemOn    = "use_item_on"
	ActionAssertBlock  = "assert_block"
	ActionAssertRegion = "assert_region"
	ActionAssertBlocks = "assert_blocks"
	ActionAssertSlot   = "assert_slot"
)

// MaxRegionVolume bounds the region of a fill, clear or assert_region.
// Region work runs before and between ticks, outside the tick budget.
const MaxRegionVolume = 1 << 24

// ActionRegion returns the region a fill, clear or assert_region iterates.
func ActionRegion(a Action) (ir.Region, bool) {
	switch a := a.(type) {
	case Fill:
		return a.Region, true
	case Clear:
		return a.Region, true
	case AssertRegion:
		return a.Region, true
	}
	return ir.Region{}, false
}

// CheckRegionVolume rejects an action whose region exceeds
// MaxRegionVolume.
func CheckRegionVolume(a Action) error {
	r, ok := ActionRegion(a)
	if !ok {
		return nil
	}
	if v := r.Volume(); v > MaxRegionVolume {
		return fmt.Errorf("region %s has %d positions, limit is %d", r, v, MaxRegionVolume)
	}
	return nil
}

// Place sets one block.
type Place struct {
	Pos   ir.BlockPos
	Block ir.Block
}

// Remove replaces one block with air.
type Remove struct {
	Pos ir.BlockPos
}

// Fill sets every block of a region.
type Fill struct {
	Region ir.Region
	Block  ir.Block
}

// Clear fills a region with air.
type Clear struct {
	Region ir.Region
}

// SetSlot puts an item into a player slot; a nil Item clears it.
type SetSlot struct {
	Slot ir.PlayerSlot
	Item *ir.Item
}

// SelectHotbar makes a hotbar slot (1-9) active.
type SelectHotbar struct {
	Index uint8
}

// UseItemOn uses the held item on a block face.
type UseItemOn struct {
	Pos  ir.BlockPos
	Face ir.BlockFace
}

// AssertBlock expects one block at one position.
type AssertBlock struct {
	Pos   ir.BlockPos
	Block ir.Block
}

// AssertRegion expects every position of a region to hold the same block.
type AssertRegion struct {
	Region ir.Region
	Block  ir.Block
}

// BlockCheck is one expected position of an AssertBlocks snapshot.
type BlockCheck struct {
	Pos   ir.BlockPos
	Block ir.Block
}

// AssertBlocks expects an explicit snapshot of positions.
type AssertBlocks struct {
	Checks []BlockCheck
}

// AssertSlot expects a player slot's content; a nil Item expects empty.
type AssertSlot struct {
	Slot ir.PlayerSlot
	Item *ir.Item
}

func (Place) Name() string        { return ActionPlace }
func (Remove) Name() string       { return ActionRemove }
func (Fill) Name() string         { return ActionFill }
func (Clear) Name() string        { return ActionClear }
func (SetSlot) Name() string      { return ActionSetSlot }
func (SelectHotbar) Name() string { return ActionSelectHotbar }
func (UseItemOn) Name() string    { return ActionUseItemOn }
func (AssertBlock) Name() string  { return ActionAssertBlock }
func (AssertRegion) Name() string { return ActionAssertRegion }
func (AssertBlocks) Name() string { return ActionAssertBlocks }
func (AssertSlot) Name() string   { return ActionAssertSlot }

func (Place) Category() Category        { return CategorySetup }
func (Remove) Category() Category       { return CategorySetup }
func (Fill) Category() Category         { return CategorySetup }
func (Clear) Category() Category        { return CategorySetup }
func (SetSlot) Category() Category      { return CategorySetup }
func (SelectHotbar) Category() Category { return CategorySetup }
func (UseItemOn) Category() Category    { return CategoryInteraction }
func (AssertBlock) Category() Category  { return CategoryAssertion }
func (AssertRegion) Category() Category { return CategoryAssertion }
func (AssertBlocks) Category() Category { return CategoryAssertion }
func (AssertSlot) Category() Category   { return CategoryAssertion }

func (Place) NeedsPlayer() bool        { return false }
func (Remove) NeedsPlayer() bool       { return false }
func (Fill) NeedsPlayer() bool         { return false }
func (Clear) NeedsPlayer() bool        { return false }
func (SetSlot) NeedsPlayer() bool      { return true }
func (SelectHotbar) NeedsPlayer() bool { return true }
func (UseItemOn) NeedsPlayer() bool    { return true }
func (AssertBlock) NeedsPlayer() bool  { return false }
func (AssertRegion) NeedsPlayer() bool { return false }
func (AssertBlocks) NeedsPlayer() bool { return false }
func (AssertSlot) NeedsPlayer() bool   { return true }
