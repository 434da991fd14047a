package ir

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionPositions_RasterOrder(t *testing.T) {
	r := Region{Min: Pos(0, 0, 0), Max: Pos(1, 1, 1)}

	got := slices.Collect(r.Positions())
	want := []BlockPos{
		{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1},
		{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1},
	}
	assert.Equal(t, want, got)
	assert.True(t, slices.IsSortedFunc(got, CompareRaster))
}

func TestRegion_Empty(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		empty  bool
		volume int64
	}{
		{"single block", Region{Min: Pos(5, 64, 5), Max: Pos(5, 64, 5)}, false, 1},
		{"slab", Region{Min: Pos(0, 64, 0), Max: Pos(2, 64, 1)}, false, 6},
		{"inverted x", Region{Min: Pos(1, 0, 0), Max: Pos(0, 0, 0)}, true, 0},
		{"inverted z", Region{Min: Pos(0, 0, 3), Max: Pos(9, 9, 2)}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.region.Empty())
			assert.Equal(t, tt.volume, tt.region.Volume())
			assert.Len(t, slices.Collect(tt.region.Positions()), int(tt.volume))
		})
	}
}

func TestRegion_VolumeSaturates(t *testing.T) {
	const lo, hi = -2147483648, 2147483647

	plane := Region{Min: Pos(lo, 64, lo), Max: Pos(hi, 64, hi)}
	assert.Equal(t, int64(math.MaxInt64), plane.Volume())

	column := Region{Min: Pos(0, lo, 0), Max: Pos(0, hi, 0)}
	assert.Equal(t, int64(1)<<32, column.Volume())
}

func TestRegionOf_NormalizesCorners(t *testing.T) {
	r := RegionOf(Pos(3, 70, -2), Pos(-1, 64, 4))
	assert.Equal(t, Pos(-1, 64, -2), r.Min)
	assert.Equal(t, Pos(3, 70, 4), r.Max)
	assert.True(t, r.Contains(Pos(0, 65, 0)))
	assert.False(t, r.Contains(Pos(0, 71, 0)))
}

func TestRegionPositions_StopsEarly(t *testing.T) {
	r := Region{Min: Pos(0, 0, 0), Max: Pos(9, 9, 9)}
	n := 0
	for range r.Positions() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestBlockPos_Offset(t *testing.T) {
	p := Pos(0, 64, 0)
	assert.Equal(t, Pos(0, 65, 0), p.Offset(FaceTop))
	assert.Equal(t, Pos(0, 63, 0), p.Offset(FaceBottom))
	assert.Equal(t, Pos(0, 64, -1), p.Offset(FaceNorth))
	assert.Equal(t, Pos(0, 64, 1), p.Offset(FaceSouth))
	assert.Equal(t, Pos(1, 64, 0), p.Offset(FaceEast))
	assert.Equal(t, Pos(-1, 64, 0), p.Offset(FaceWest))
	assert.Equal(t, "[0,64,0]", p.String())
}

func TestBlock_Equal(t *testing.T) {
	stone := NewBlock("stone", nil)
	assert.Equal(t, "minecraft:stone", stone.ID)
	assert.True(t, stone.Equal(Block{ID: "minecraft:stone", Properties: map[string]string{}}))
	assert.False(t, stone.Equal(NewBlock("dirt", nil)))

	lever := NewBlock("minecraft:lever", map[string]string{"powered": "true"})
	assert.False(t, lever.Equal(NewBlock("lever", map[string]string{"powered": "false"})))
	assert.True(t, lever.Equal(NewBlock("lever", map[string]string{"powered": "true"})))
	assert.Equal(t, "minecraft:lever[powered=true]", lever.String())
	assert.True(t, Air.IsAir())
}

func TestPlayerSlot_TextRoundTrip(t *testing.T) {
	for s := SlotHotbar1; int(s) <= SlotCount; s++ {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var parsed PlayerSlot
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed, "slot %s", text)
	}
}

func TestParsePlayerSlot_Invalid(t *testing.T) {
	for _, text := range []string{"hotbar0", "hotbar10", "inventory27", "backpack", ""} {
		_, err := ParsePlayerSlot(text)
		assert.Error(t, err, text)
	}
}

func TestHotbarSlot(t *testing.T) {
	s, ok := HotbarSlot(3)
	require.True(t, ok)
	assert.Equal(t, SlotHotbar3, s)

	n, ok := s.Hotbar()
	require.True(t, ok)
	assert.Equal(t, uint8(3), n)

	_, ok = HotbarSlot(0)
	assert.False(t, ok)
	_, ok = SlotOffhand.Hotbar()
	assert.False(t, ok)
}

func TestParseBlockFace(t *testing.T) {
	f, err := ParseBlockFace("Up")
	require.NoError(t, err)
	assert.Equal(t, FaceTop, f)

	f, err = ParseBlockFace("west")
	require.NoError(t, err)
	assert.Equal(t, FaceWest, f)

	_, err = ParseBlockFace("sideways")
	assert.Error(t, err)
}
