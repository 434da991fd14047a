// Package testutil provides test doubles for the adapter contract.
package testutil

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// RecordingAdapter wraps an adapter, logging every contract call in order
// and optionally failing chosen calls.
//
// Operations are named with the adapter.Op* constants, plus "close" for
// io.Closer on worlds.
//
// Thread-safety: the call log is guarded by a mutex, so several runs may
// share one RecordingAdapter.
type RecordingAdapter struct {
	inner adapter.Adapter

	mu       sync.Mutex
	calls    []string
	counts   map[string]int
	failures map[string]failure
}

type failure struct {
	nth int // 0 means every call
	err error
}

// NewRecordingAdapter wraps inner.
func NewRecordingAdapter(inner adapter.Adapter) *RecordingAdapter {
	return &RecordingAdapter{
		inner:    inner,
		counts:   make(map[string]int),
		failures: make(map[string]failure),
	}
}

// FailOn makes every call to op return err.
func (r *RecordingAdapter) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = failure{err: err}
}

// FailOnCall makes only the nth call (1-based) to op return err.
func (r *RecordingAdapter) FailOnCall(op string, nth int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = failure{nth: nth, err: err}
}

// Calls returns the operations invoked so far, in order.
func (r *RecordingAdapter) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Count returns how many times op was invoked.
func (r *RecordingAdapter) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[op]
}

// Reset clears the call log. Configured failures are kept.
func (r *RecordingAdapter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.counts = make(map[string]int)
}

// record logs op and returns the injected failure for this call, if any.
func (r *RecordingAdapter) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	r.counts[op]++

	f, ok := r.failures[op]
	if !ok {
		return nil
	}
	if f.nth == 0 || f.nth == r.counts[op] {
		return f.err
	}
	return nil
}

// CreateTestWorld implements adapter.Adapter.
func (r *RecordingAdapter) CreateTestWorld(ctx context.Context) (adapter.World, error) {
	if err := r.record(adapter.OpCreateTestWorld); err != nil {
		return nil, err
	}
	w, err := r.inner.CreateTestWorld(ctx)
	if err != nil {
		return nil, err
	}
	return &recordingWorld{rec: r, inner: w}, nil
}

// ServerInfo implements adapter.Adapter.
func (r *RecordingAdapter) ServerInfo() adapter.ServerInfo {
	r.mu.Lock()
	r.calls = append(r.calls, adapter.OpServerInfo)
	r.counts[adapter.OpServerInfo]++
	r.mu.Unlock()
	return r.inner.ServerInfo()
}

type recordingWorld struct {
	rec   *RecordingAdapter
	inner adapter.World
}

func (w *recordingWorld) DoTick() error {
	if err := w.rec.record(adapter.OpDoTick); err != nil {
		return err
	}
	return w.inner.DoTick()
}

func (w *recordingWorld) CurrentTick() uint64 {
	w.rec.record(adapter.OpCurrentTick)
	return w.inner.CurrentTick()
}

func (w *recordingWorld) GetBlock(pos ir.BlockPos) (ir.Block, error) {
	if err := w.rec.record(adapter.OpGetBlock); err != nil {
		return ir.Block{}, err
	}
	return w.inner.GetBlock(pos)
}

func (w *recordingWorld) SetBlock(pos ir.BlockPos, block ir.Block) error {
	if err := w.rec.record(adapter.OpSetBlock); err != nil {
		return err
	}
	return w.inner.SetBlock(pos, block)
}

func (w *recordingWorld) CreatePlayer() (adapter.Player, error) {
	if err := w.rec.record(adapter.OpCreatePlayer); err != nil {
		return nil, err
	}
	p, err := w.inner.CreatePlayer()
	if err != nil {
		return nil, err
	}
	return &recordingPlayer{rec: w.rec, inner: p}, nil
}

// BlocksEqual forwards to the wrapped world's comparer if it has one.
func (w *recordingWorld) BlocksEqual(a, b ir.Block) bool {
	if c, ok := w.inner.(adapter.BlockComparer); ok {
		return c.BlocksEqual(a, b)
	}
	return a.Equal(b)
}

func (w *recordingWorld) Close() error {
	if err := w.rec.record("close"); err != nil {
		return err
	}
	if c, ok := w.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type recordingPlayer struct {
	rec   *RecordingAdapter
	inner adapter.Player
}

func (p *recordingPlayer) SetSlot(slot ir.PlayerSlot, item *ir.Item) error {
	if err := p.rec.record(adapter.OpSetSlot); err != nil {
		return err
	}
	return p.inner.SetSlot(slot, item)
}

func (p *recordingPlayer) GetSlot(slot ir.PlayerSlot) (*ir.Item, error) {
	if err := p.rec.record(adapter.OpGetSlot); err != nil {
		return nil, err
	}
	return p.inner.GetSlot(slot)
}

func (p *recordingPlayer) SelectHotbar(n uint8) error {
	if err := p.rec.record(adapter.OpSelectHotbar); err != nil {
		return err
	}
	return p.inner.SelectHotbar(n)
}

func (p *recordingPlayer) SelectedHotbar() uint8 {
	p.rec.record(adapter.OpSelectedHotbar)
	return p.inner.SelectedHotbar()
}

func (p *recordingPlayer) UseItemOn(pos ir.BlockPos, face ir.BlockFace) error {
	if err := p.rec.record(adapter.OpUseItemOn); err != nil {
		return err
	}
	return p.inner.UseItemOn(pos, face)
}

// String summarizes the call counts, for failure messages.
func (r *RecordingAdapter) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("RecordingAdapter%v", r.counts)
}
