// Package adapter defines the capability contract a block-game server
// implements so flint can drive it.
//
// Servers implement Adapter to create test worlds, and World/Player to
// provide the actual block and player operations. Flint handles fills and
// clears by iterating SetBlock, so the contract stays minimal.
//
// Every call is synchronous: it completes before the engine considers the
// next step. A returned error is an adapter error and invalidates the
// world for the rest of the run.
package adapter

import (
	"context"

	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// ServerInfo is static metadata attached to a run for diagnostics.
type ServerInfo struct {
	Version string `json:"version"`
}

// Adapter creates disposable worlds.
//
// Each CreateTestWorld call must return a world independent of every other
// world; concurrent runs rely on this.
type Adapter interface {
	// CreateTestWorld returns a fresh, isolated, in-memory test world.
	CreateTestWorld(ctx context.Context) (World, error)

	// ServerInfo returns server metadata for logging and reports.
	ServerInfo() ServerInfo
}

// World is one disposable test world. A world that also implements
// io.Closer is closed when the run that created it ends.
type World interface {
	// DoTick executes exactly one game tick.
	DoTick() error

	// CurrentTick returns the number of ticks executed so far.
	CurrentTick() uint64

	// GetBlock returns the block at pos.
	GetBlock(pos ir.BlockPos) (ir.Block, error)

	// SetBlock places block at pos, with neighbor updates.
	SetBlock(pos ir.BlockPos, block ir.Block) error

	// CreatePlayer spawns a simulated player in this world.
	//
	// Only called when a scenario uses inventory or interaction steps.
	// Pure block scenarios never create a player.
	CreatePlayer() (Player, error)
}

// Player is a simulated player. The server owns the entity; flint can
// manipulate inventory slots directly, select the hotbar, and trigger item
// use so the server's own interaction logic is exercised.
type Player interface {
	// SetSlot puts item into slot; nil clears the slot.
	SetSlot(slot ir.PlayerSlot, item *ir.Item) error

	// GetSlot returns the item in slot, nil if empty.
	GetSlot(slot ir.PlayerSlot) (*ir.Item, error)

	// SelectHotbar makes hotbar slot n (1-9) active.
	SelectHotbar(n uint8) error

	// SelectedHotbar returns the active hotbar slot (1-9).
	SelectedHotbar() uint8

	// UseItemOn uses the item in the active hotbar slot on a block face.
	UseItemOn(pos ir.BlockPos, face ir.BlockFace) error
}

// BlockComparer is implemented by worlds whose block equality differs from
// ir.Block.Equal, e.g. servers that ignore cosmetic properties.
type BlockComparer interface {
	BlocksEqual(a, b ir.Block) bool
}

// Operation names, used in AdapterError.Op and on the remote wire.
const (
	OpServerInfo      = "server_info"
	OpCreateTestWorld = "create_test_world"
	OpCloseWorld      = "close_world"
	OpDoTick          = "do_tick"
	OpCurrentTick     = "current_tick"
	OpGetBlock        = "get_block"
	OpSetBlock        = "set_block"
	OpCreatePlayer    = "create_player"
	OpSetSlot         = "set_slot"
	OpGetSlot         = "get_slot"
	OpSelectHotbar    = "select_hotbar"
	OpSelectedHotbar  = "selected_hotbar"
	OpUseItemOn       = "use_item_on"
	OpBlocksEqual     = "blocks_equal"
)
