// Package scenario defines the declarative model of a flint test and loads
// it from disk.
//
// # Scenario Format
//
// Scenarios are YAML, JSON or CUE documents with the following structure:
//
//	name: lever_toggle
//	description: "Right-clicking a lever powers it"
//	tags: [redstone]
//	cleanup: { min: [-4, 60, -4], max: [4, 70, 4] }
//	steps:
//	  - do: place
//	    immediate: true
//	    pos: [0, 64, 0]
//	    block: { id: lever, properties: { powered: "false" } }
//	  - do: set_slot
//	    immediate: true
//	    slot: hotbar1
//	    item: stick
//	  - at: 1
//	    do: use_item_on
//	    pos: [0, 64, 0]
//	    face: top
//	  - after: 2
//	    do: assert_block
//	    pos: [0, 64, 0]
//	    is: { id: lever, properties: { powered: "true" } }
//
// # Schedule Markers
//
// Each step carries one schedule marker:
//
//   - immediate: true   fixture, applied before tick 0
//   - at: N             absolute tick N
//   - after: N          N ticks after the previous step's tick
//
// A step with no marker runs at tick 0, after all fixtures.
//
// # Actions
//
// Setup actions: place, remove, fill, clear, set_slot, select_hotbar.
// Interactions: use_item_on.
// Assertions: assert_block, assert_region, assert_blocks, assert_slot.
//
// Every document is checked against an embedded CUE schema before it is
// decoded, so typos in field names are rejected with a position.
package scenario
