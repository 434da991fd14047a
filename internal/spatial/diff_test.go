package spatial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// mapReader is a read-only world backed by a map; missing positions are air.
type mapReader struct {
	blocks map[ir.BlockPos]ir.Block
	reads  []ir.BlockPos
	failAt *ir.BlockPos
}

func newMapReader() *mapReader {
	return &mapReader{blocks: make(map[ir.BlockPos]ir.Block)}
}

func (m *mapReader) GetBlock(pos ir.BlockPos) (ir.Block, error) {
	m.reads = append(m.reads, pos)
	if m.failAt != nil && *m.failAt == pos {
		return ir.Block{}, errors.New("chunk not loaded")
	}
	if b, ok := m.blocks[pos]; ok {
		return b, nil
	}
	return ir.Air, nil
}

// idOnly treats blocks as equal when their IDs match.
type idOnly struct{ *mapReader }

func (idOnly) BlocksEqual(a, b ir.Block) bool { return a.ID == b.ID }

var (
	stone = ir.NewBlock("stone", nil)
	dirt  = ir.NewBlock("dirt", nil)
)

func TestCompare_SinglePosition(t *testing.T) {
	r := newMapReader()
	r.blocks[ir.Pos(0, 64, 0)] = stone

	report, err := Compare(r, []Expectation{{Pos: ir.Pos(0, 64, 0), Block: stone}}, nil)
	require.NoError(t, err)
	assert.True(t, report.Empty())

	report, err = Compare(r, []Expectation{{Pos: ir.Pos(0, 64, 0), Block: dirt}}, nil)
	require.NoError(t, err)
	assert.Equal(t, MismatchReport{{Pos: ir.Pos(0, 64, 0), Expected: dirt, Actual: stone}}, report)
	assert.Equal(t, "[0,64,0]: expected minecraft:dirt, got minecraft:stone", report.String())
}

func TestCompare_RasterOrder(t *testing.T) {
	r := newMapReader()
	expected := []Expectation{
		{Pos: ir.Pos(1, 0, 0), Block: stone},
		{Pos: ir.Pos(0, 1, 0), Block: stone},
		{Pos: ir.Pos(0, 0, 1), Block: stone},
		{Pos: ir.Pos(0, 0, 0), Block: stone},
		{Pos: ir.Pos(-1, 5, 5), Block: stone},
	}

	report, err := Compare(r, expected, nil)
	require.NoError(t, err)

	var got []ir.BlockPos
	for _, m := range report {
		got = append(got, m.Pos)
	}
	want := []ir.BlockPos{ir.Pos(-1, 5, 5), ir.Pos(0, 0, 0), ir.Pos(0, 0, 1), ir.Pos(0, 1, 0), ir.Pos(1, 0, 0)}
	assert.Equal(t, want, got)
	assert.Equal(t, want, r.reads, "reads follow raster order too")

	again, err := Compare(newMapReader(), expected, nil)
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestCompare_DuplicatesAreStable(t *testing.T) {
	r := newMapReader()
	report, err := Compare(r, []Expectation{
		{Pos: ir.Pos(0, 0, 0), Block: stone},
		{Pos: ir.Pos(0, 0, 0), Block: dirt},
	}, nil)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, stone, report[0].Expected)
	assert.Equal(t, dirt, report[1].Expected)
}

func TestCompare_DoesNotMutateInput(t *testing.T) {
	expected := []Expectation{{Pos: ir.Pos(2, 0, 0), Block: stone}, {Pos: ir.Pos(1, 0, 0), Block: stone}}
	_, err := Compare(newMapReader(), expected, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Pos(2, 0, 0), expected[0].Pos)
}

func TestCompareRegion(t *testing.T) {
	r := newMapReader()
	region := ir.Region{Min: ir.Pos(0, 64, 0), Max: ir.Pos(1, 64, 1)}
	for pos := range region.Positions() {
		r.blocks[pos] = stone
	}
	r.blocks[ir.Pos(1, 64, 0)] = dirt

	report, err := CompareRegion(r, region, stone, nil)
	require.NoError(t, err)
	assert.Equal(t, MismatchReport{{Pos: ir.Pos(1, 64, 0), Expected: stone, Actual: dirt}}, report)
	assert.Len(t, r.reads, 4)
}

func TestCompareRegion_EmptyIsVacuousPass(t *testing.T) {
	r := newMapReader()
	empty := ir.Region{Min: ir.Pos(1, 64, 0), Max: ir.Pos(0, 64, 0)}

	report, err := CompareRegion(r, empty, stone, nil)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, r.reads)
}

func TestCompareRegion_ReaderError(t *testing.T) {
	r := newMapReader()
	bad := ir.Pos(0, 64, 1)
	r.failAt = &bad

	_, err := CompareRegion(r, ir.Region{Min: ir.Pos(0, 64, 0), Max: ir.Pos(0, 64, 5)}, ir.Air, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read block at [0,64,1]: chunk not loaded")
	assert.Len(t, r.reads, 2, "comparison stops at the first read error")
}

func TestEqualityFor(t *testing.T) {
	lever := ir.NewBlock("lever", map[string]string{"powered": "true"})
	plain := ir.NewBlock("lever", nil)

	r := newMapReader()
	r.blocks[ir.Pos(0, 0, 0)] = lever

	report, err := Compare(r, []Expectation{{Pos: ir.Pos(0, 0, 0), Block: plain}}, EqualityFor(r))
	require.NoError(t, err)
	assert.Len(t, report, 1, "default equality compares properties")

	custom := idOnly{r}
	report, err = Compare(custom, []Expectation{{Pos: ir.Pos(0, 0, 0), Block: plain}}, EqualityFor(custom))
	require.NoError(t, err)
	assert.True(t, report.Empty(), "the world's comparer wins")
}
