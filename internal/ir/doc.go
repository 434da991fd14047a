// Package ir provides the value types shared by every flint package.
//
// This package contains the spatial model (positions, regions, faces) and
// the block and inventory value types the engine passes across the
// capability contract. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Positions are signed 32-bit integers with no world bounds
//   - Regions iterate in raster order (x, then y, then z) so diffs are
//     reproducible across runs
//   - Block equality is structural; adapters may override it
//   - All JSON tags use snake_case
//   - Ticks are logical counters, never wall-clock timestamps
package ir
