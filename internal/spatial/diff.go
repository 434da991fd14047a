// Package spatial compares expected block state against what a world
// reports and produces a deterministic mismatch report.
//
// Comparison is read-only. Positions are always visited in raster order
// (x, then y, then z) so reports are identical across runs against
// identical worlds.
package spatial

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// BlockReader reads live block state. Every adapter.World satisfies it.
type BlockReader interface {
	GetBlock(pos ir.BlockPos) (ir.Block, error)
}

// Equality decides whether an actual block satisfies an expected one.
type Equality func(expected, actual ir.Block) bool

// DefaultEquality compares IDs and properties.
func DefaultEquality(expected, actual ir.Block) bool {
	return expected.Equal(actual)
}

// EqualityFor returns the world's own block equality if it implements
// adapter.BlockComparer, otherwise DefaultEquality.
func EqualityFor(r BlockReader) Equality {
	if c, ok := r.(adapter.BlockComparer); ok {
		return c.BlocksEqual
	}
	return DefaultEquality
}

// Expectation is one expected block.
type Expectation struct {
	Pos   ir.BlockPos
	Block ir.Block
}

// Mismatch is one position whose actual block differs from the expected.
type Mismatch struct {
	Pos      ir.BlockPos `json:"pos"`
	Expected ir.Block    `json:"expected"`
	Actual   ir.Block    `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Pos, m.Expected, m.Actual)
}

// MismatchReport lists mismatches in raster order. Empty means pass.
type MismatchReport []Mismatch

// Empty reports whether every compared position matched.
func (r MismatchReport) Empty() bool {
	return len(r) == 0
}

// String joins the mismatches one per line.
func (r MismatchReport) String() string {
	lines := make([]string, len(r))
	for i, m := range r {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}

// Compare reads every expected position and reports those that differ.
// Expectations are visited in raster order of their positions; duplicates
// keep their relative order. A nil eq means DefaultEquality.
func Compare(r BlockReader, expected []Expectation, eq Equality) (MismatchReport, error) {
	if eq == nil {
		eq = DefaultEquality
	}

	sorted := slices.Clone(expected)
	slices.SortStableFunc(sorted, func(a, b Expectation) int {
		return ir.CompareRaster(a.Pos, b.Pos)
	})

	var report MismatchReport
	for _, want := range sorted {
		m, err := compareAt(r, want.Pos, want.Block, eq)
		if err != nil {
			return nil, err
		}
		if m != nil {
			report = append(report, *m)
		}
	}
	return report, nil
}

// CompareRegion expects block at every position of region. An empty
// region is a vacuous pass and reads nothing.
func CompareRegion(r BlockReader, region ir.Region, block ir.Block, eq Equality) (MismatchReport, error) {
	if eq == nil {
		eq = DefaultEquality
	}

	var report MismatchReport
	for pos := range region.Positions() {
		m, err := compareAt(r, pos, block, eq)
		if err != nil {
			return nil, err
		}
		if m != nil {
			report = append(report, *m)
		}
	}
	return report, nil
}

func compareAt(r BlockReader, pos ir.BlockPos, expected ir.Block, eq Equality) (*Mismatch, error) {
	actual, err := r.GetBlock(pos)
	if err != nil {
		return nil, fmt.Errorf("read block at %s: %w", pos, err)
	}
	if eq(expected, actual) {
		return nil, nil
	}
	return &Mismatch{Pos: pos, Expected: expected, Actual: actual}, nil
}
