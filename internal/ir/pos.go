package ir

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"math/bits"
)

// BlockPos identifies a world coordinate as [x, y, z].
type BlockPos [3]int32

// Pos builds a BlockPos from its components.
func Pos(x, y, z int32) BlockPos {
	return BlockPos{x, y, z}
}

// X returns the x component.
func (p BlockPos) X() int32 { return p[0] }

// Y returns the y component.
func (p BlockPos) Y() int32 { return p[1] }

// Z returns the z component.
func (p BlockPos) Z() int32 { return p[2] }

// Offset returns the position adjacent to p across the given face.
func (p BlockPos) Offset(face BlockFace) BlockPos {
	switch face {
	case FaceTop:
		return BlockPos{p[0], p[1] + 1, p[2]}
	case FaceBottom:
		return BlockPos{p[0], p[1] - 1, p[2]}
	case FaceNorth:
		return BlockPos{p[0], p[1], p[2] - 1}
	case FaceSouth:
		return BlockPos{p[0], p[1], p[2] + 1}
	case FaceEast:
		return BlockPos{p[0] + 1, p[1], p[2]}
	case FaceWest:
		return BlockPos{p[0] - 1, p[1], p[2]}
	}
	return p
}

func (p BlockPos) String() string {
	return fmt.Sprintf("[%d,%d,%d]", p[0], p[1], p[2])
}

// CompareRaster orders positions x-major, then y, then z.
// It is the ordering used for every region walk and mismatch report.
func CompareRaster(a, b BlockPos) int {
	if c := cmp.Compare(a[0], b[0]); c != 0 {
		return c
	}
	if c := cmp.Compare(a[1], b[1]); c != 0 {
		return c
	}
	return cmp.Compare(a[2], b[2])
}

// Region is an inclusive bounding box.
//
// A region is empty when any Min component exceeds the matching Max
// component. Corners are taken as given; use RegionOf to normalize two
// arbitrary corners.
type Region struct {
	Min BlockPos `json:"min"`
	Max BlockPos `json:"max"`
}

// RegionOf returns the smallest region containing both corners.
func RegionOf(a, b BlockPos) Region {
	return Region{
		Min: BlockPos{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])},
		Max: BlockPos{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])},
	}
}

// Empty reports whether the region contains no positions.
func (r Region) Empty() bool {
	return r.Min[0] > r.Max[0] || r.Min[1] > r.Max[1] || r.Min[2] > r.Max[2]
}

// Volume returns the number of positions in the region, saturating at
// math.MaxInt64.
func (r Region) Volume() int64 {
	if r.Empty() {
		return 0
	}
	dx := uint64(int64(r.Max[0]) - int64(r.Min[0]) + 1)
	dy := uint64(int64(r.Max[1]) - int64(r.Min[1]) + 1)
	dz := uint64(int64(r.Max[2]) - int64(r.Min[2]) + 1)

	hi, xy := bits.Mul64(dx, dy)
	if hi != 0 {
		return math.MaxInt64
	}
	hi, v := bits.Mul64(xy, dz)
	if hi != 0 || v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p BlockPos) bool {
	for i := 0; i < 3; i++ {
		if p[i] < r.Min[i] || p[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Positions yields every position in the region in raster order:
// x outermost, then y, then z innermost.
func (r Region) Positions() iter.Seq[BlockPos] {
	return func(yield func(BlockPos) bool) {
		if r.Empty() {
			return
		}
		// int64 loop counters so a Max of MaxInt32 terminates.
		for x := int64(r.Min[0]); x <= int64(r.Max[0]); x++ {
			for y := int64(r.Min[1]); y <= int64(r.Max[1]); y++ {
				for z := int64(r.Min[2]); z <= int64(r.Max[2]); z++ {
					if !yield(BlockPos{int32(x), int32(y), int32(z)}) {
						return
					}
				}
			}
		}
	}
}

func (r Region) String() string {
	return fmt.Sprintf("%s..%s", r.Min, r.Max)
}
