package ir

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DefaultNamespace is prepended to block and item IDs that carry none.
const DefaultNamespace = "minecraft"

// Block is a block identity plus its state properties.
//
// The engine never interprets a block beyond equality.
type Block struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Air is the empty block.
var Air = Block{ID: "minecraft:air"}

// NewBlock returns a block with a normalized ID.
func NewBlock(id string, props map[string]string) Block {
	b := Block{ID: NormalizeID(id)}
	if len(props) > 0 {
		b.Properties = maps.Clone(props)
	}
	return b
}

// NormalizeID prefixes id with the default namespace if it has none.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	return DefaultNamespace + ":" + id
}

// Equal reports whether two blocks have the same ID and properties.
// A nil and an empty property map are equal.
func (b Block) Equal(other Block) bool {
	if NormalizeID(b.ID) != NormalizeID(other.ID) {
		return false
	}
	if len(b.Properties) == 0 && len(other.Properties) == 0 {
		return true
	}
	return maps.Equal(b.Properties, other.Properties)
}

// IsAir reports whether the block is air.
func (b Block) IsAir() bool {
	return NormalizeID(b.ID) == Air.ID
}

// String renders the block as id[k=v,...] with sorted property keys.
func (b Block) String() string {
	if len(b.Properties) == 0 {
		return b.ID
	}
	keys := slices.Sorted(maps.Keys(b.Properties))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + b.Properties[k]
	}
	return b.ID + "[" + strings.Join(parts, ",") + "]"
}

// Item is an inventory stack. A nil *Item models an empty slot.
type Item struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// NewItem returns a stack with a normalized ID. Counts below 1 become 1.
func NewItem(id string, count int) Item {
	if count < 1 {
		count = 1
	}
	return Item{ID: NormalizeID(id), Count: count}
}

// Equal reports whether two stacks hold the same item and count.
func (i Item) Equal(other Item) bool {
	return NormalizeID(i.ID) == NormalizeID(other.ID) && i.Count == other.Count
}

func (i Item) String() string {
	return fmt.Sprintf("%s x%d", i.ID, i.Count)
}

// ItemsEqual compares two optional stacks; two empty slots are equal.
func ItemsEqual(a, b *Item) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// FormatItem renders an optional stack, "empty" for nil.
func FormatItem(i *Item) string {
	if i == nil {
		return "empty"
	}
	return i.String()
}
