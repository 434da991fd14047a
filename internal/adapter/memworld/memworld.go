// Package memworld is a deterministic in-memory implementation of the
// adapter contract.
//
// It simulates nothing: blocks stay where they are put, and ticks only
// advance a counter and run the registered tick hooks. Tests use hooks to
// emulate server behaviour that takes effect a few ticks later.
package memworld

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync/atomic"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// Build height limits. Y must satisfy MinY <= y < MaxY.
const (
	MinY = -64
	MaxY = 320
)

// DefaultVersion is reported by ServerInfo unless WithVersion is given.
const DefaultVersion = "memworld/1.21"

// ErrClosed is returned by every call on a closed world.
var ErrClosed = errors.New("world is closed")

// TickHook runs after a world's tick counter advanced to tick.
// A returned error fails the DoTick call.
type TickHook func(w *World, tick uint64) error

// Adapter creates independent in-memory worlds.
// It is safe for concurrent use.
type Adapter struct {
	version string
	hooks   []TickHook
	created atomic.Int64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithVersion sets the version reported by ServerInfo.
func WithVersion(version string) Option {
	return func(a *Adapter) {
		a.version = version
	}
}

// WithTickHook adds a hook to every world the adapter creates.
// Hooks run in registration order.
func WithTickHook(hook TickHook) Option {
	return func(a *Adapter) {
		a.hooks = append(a.hooks, hook)
	}
}

// New creates an Adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{version: DefaultVersion}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateTestWorld returns a fresh, empty world.
func (a *Adapter) CreateTestWorld(ctx context.Context) (adapter.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.created.Add(1)
	return NewWorld(a.hooks...), nil
}

// ServerInfo reports the configured version.
func (a *Adapter) ServerInfo() adapter.ServerInfo {
	return adapter.ServerInfo{Version: a.version}
}

// WorldsCreated returns how many worlds the adapter has handed out.
func (a *Adapter) WorldsCreated() int {
	return int(a.created.Load())
}

// World is a sparse block map. Unset positions read as air.
// A World is owned by one run and is not safe for concurrent use.
type World struct {
	blocks map[ir.BlockPos]ir.Block
	tick   uint64
	hooks  []TickHook
	closed bool
}

// NewWorld creates an empty world with the given tick hooks.
func NewWorld(hooks ...TickHook) *World {
	return &World{
		blocks: make(map[ir.BlockPos]ir.Block),
		hooks:  hooks,
	}
}

// DoTick advances the tick counter and runs the hooks.
func (w *World) DoTick() error {
	if w.closed {
		return ErrClosed
	}
	w.tick++
	for _, hook := range w.hooks {
		if err := hook(w, w.tick); err != nil {
			return fmt.Errorf("tick %d: %w", w.tick, err)
		}
	}
	return nil
}

// CurrentTick returns the number of completed ticks.
func (w *World) CurrentTick() uint64 {
	return w.tick
}

// GetBlock returns the block at pos.
func (w *World) GetBlock(pos ir.BlockPos) (ir.Block, error) {
	if err := w.check(pos); err != nil {
		return ir.Block{}, err
	}
	b, ok := w.blocks[pos]
	if !ok {
		return ir.Air, nil
	}
	return cloneBlock(b), nil
}

// SetBlock stores block at pos. Setting air removes the entry.
func (w *World) SetBlock(pos ir.BlockPos, block ir.Block) error {
	if err := w.check(pos); err != nil {
		return err
	}
	if block.ID == "" {
		return fmt.Errorf("block at %s has no id", pos)
	}
	if block.IsAir() {
		delete(w.blocks, pos)
		return nil
	}
	w.blocks[pos] = cloneBlock(block)
	return nil
}

// CreatePlayer returns a new player with an empty inventory and hotbar
// slot 1 selected.
func (w *World) CreatePlayer() (adapter.Player, error) {
	if w.closed {
		return nil, ErrClosed
	}
	return &Player{world: w, slots: make(map[ir.PlayerSlot]ir.Item), selected: 1}, nil
}

// Len returns the number of non-air blocks.
func (w *World) Len() int {
	return len(w.blocks)
}

// Close releases the world. Later calls fail with ErrClosed.
func (w *World) Close() error {
	w.closed = true
	w.blocks = nil
	return nil
}

// Closed reports whether Close was called.
func (w *World) Closed() bool {
	return w.closed
}

func (w *World) check(pos ir.BlockPos) error {
	if w.closed {
		return ErrClosed
	}
	if pos.Y() < MinY || pos.Y() >= MaxY {
		return fmt.Errorf("position %s outside build height [%d, %d)", pos, MinY, MaxY)
	}
	return nil
}

func cloneBlock(b ir.Block) ir.Block {
	if len(b.Properties) > 0 {
		b.Properties = maps.Clone(b.Properties)
	}
	return b
}

// Player is a simulated player bound to one world.
type Player struct {
	world    *World
	slots    map[ir.PlayerSlot]ir.Item
	selected uint8
}

// SetSlot puts item into slot; nil empties it.
func (p *Player) SetSlot(slot ir.PlayerSlot, item *ir.Item) error {
	if !slot.Valid() {
		return fmt.Errorf("invalid player slot %d", uint8(slot))
	}
	if item == nil {
		delete(p.slots, slot)
		return nil
	}
	if item.ID == "" || item.Count < 1 {
		return fmt.Errorf("invalid item %s for slot %s", item, slot)
	}
	p.slots[slot] = *item
	return nil
}

// GetSlot returns the content of slot, nil if empty.
func (p *Player) GetSlot(slot ir.PlayerSlot) (*ir.Item, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("invalid player slot %d", uint8(slot))
	}
	item, ok := p.slots[slot]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// SelectHotbar makes hotbar slot n (1..9) active.
func (p *Player) SelectHotbar(n uint8) error {
	if _, ok := ir.HotbarSlot(n); !ok {
		return fmt.Errorf("hotbar index %d out of range 1-9", n)
	}
	p.selected = n
	return nil
}

// SelectedHotbar returns the active hotbar index.
func (p *Player) SelectedHotbar() uint8 {
	return p.selected
}

// UseItemOn places the held item as a block against the given face of pos
// and consumes one item. An empty hand, or an occupied target, does
// nothing.
func (p *Player) UseItemOn(pos ir.BlockPos, face ir.BlockFace) error {
	if _, err := face.MarshalText(); err != nil {
		return err
	}
	if p.world.closed {
		return ErrClosed
	}

	slot, _ := ir.HotbarSlot(p.selected)
	held, ok := p.slots[slot]
	if !ok {
		return nil
	}

	target := pos.Offset(face)
	current, err := p.world.GetBlock(target)
	if err != nil {
		return err
	}
	if !current.IsAir() {
		return nil
	}
	if err := p.world.SetBlock(target, ir.NewBlock(held.ID, nil)); err != nil {
		return err
	}

	held.Count--
	if held.Count == 0 {
		delete(p.slots, slot)
	} else {
		p.slots[slot] = held
	}
	return nil
}
