package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// PlayerSlot addresses one slot of a simulated player's inventory.
//
// Values 1..9 are the hotbar so that a hotbar slot's value equals the
// index passed to SelectHotbar.
type PlayerSlot uint8

const (
	SlotHotbar1 PlayerSlot = iota + 1
	SlotHotbar2
	SlotHotbar3
	SlotHotbar4
	SlotHotbar5
	SlotHotbar6
	SlotHotbar7
	SlotHotbar8
	SlotHotbar9
	SlotOffhand
	SlotHead
	SlotChest
	SlotLegs
	SlotFeet
	slotInventoryBase
)

// InventorySlots is the number of main inventory slots.
const InventorySlots = 27

// SlotCount is the number of addressable slots.
const SlotCount = int(slotInventoryBase) - 1 + InventorySlots

var namedSlots = map[PlayerSlot]string{
	SlotOffhand: "offhand",
	SlotHead:    "head",
	SlotChest:   "chest",
	SlotLegs:    "legs",
	SlotFeet:    "feet",
}

// HotbarSlot returns the slot for hotbar index n (1..9).
func HotbarSlot(n uint8) (PlayerSlot, bool) {
	if n < 1 || n > 9 {
		return 0, false
	}
	return PlayerSlot(n), true
}

// InventorySlot returns the main inventory slot i (0..26).
func InventorySlot(i int) (PlayerSlot, bool) {
	if i < 0 || i >= InventorySlots {
		return 0, false
	}
	return slotInventoryBase + PlayerSlot(i), true
}

// Valid reports whether s is inside the address space.
func (s PlayerSlot) Valid() bool {
	return s >= SlotHotbar1 && int(s) < int(slotInventoryBase)+InventorySlots
}

// Hotbar returns the hotbar index of s, if s is a hotbar slot.
func (s PlayerSlot) Hotbar() (uint8, bool) {
	if s >= SlotHotbar1 && s <= SlotHotbar9 {
		return uint8(s), true
	}
	return 0, false
}

func (s PlayerSlot) String() string {
	switch {
	case s >= SlotHotbar1 && s <= SlotHotbar9:
		return "hotbar" + strconv.Itoa(int(s))
	case s >= slotInventoryBase && s.Valid():
		return "inventory" + strconv.Itoa(int(s-slotInventoryBase))
	}
	if name, ok := namedSlots[s]; ok {
		return name
	}
	return fmt.Sprintf("slot(%d)", uint8(s))
}

// ParsePlayerSlot parses the text form produced by String.
func ParsePlayerSlot(text string) (PlayerSlot, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	for slot, name := range namedSlots {
		if name == t {
			return slot, nil
		}
	}
	if rest, ok := strings.CutPrefix(t, "hotbar"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 1 && n <= 9 {
			return PlayerSlot(n), nil
		}
		return 0, fmt.Errorf("invalid hotbar slot %q: index must be 1-9", text)
	}
	if rest, ok := strings.CutPrefix(t, "inventory"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil {
			if slot, ok := InventorySlot(n); ok {
				return slot, nil
			}
		}
		return 0, fmt.Errorf("invalid inventory slot %q: index must be 0-%d", text, InventorySlots-1)
	}
	return 0, fmt.Errorf("unknown player slot %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (s PlayerSlot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid player slot %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PlayerSlot) UnmarshalText(text []byte) error {
	slot, err := ParsePlayerSlot(string(text))
	if err != nil {
		return err
	}
	*s = slot
	return nil
}

// BlockFace is the side of a block an interaction targets.
type BlockFace uint8

const (
	FaceTop BlockFace = iota
	FaceBottom
	FaceNorth
	FaceSouth
	FaceEast
	FaceWest
)

var faceNames = [...]string{"top", "bottom", "north", "south", "east", "west"}

func (f BlockFace) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return fmt.Sprintf("face(%d)", uint8(f))
}

// ParseBlockFace parses a face name. "up" and "down" are accepted as
// aliases of top and bottom.
func ParseBlockFace(text string) (BlockFace, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case "up":
		return FaceTop, nil
	case "down":
		return FaceBottom, nil
	}
	for i, name := range faceNames {
		if name == t {
			return BlockFace(i), nil
		}
	}
	return 0, fmt.Errorf("unknown block face %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (f BlockFace) MarshalText() ([]byte, error) {
	if int(f) >= len(faceNames) {
		return nil, fmt.Errorf("invalid block face %d", uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *BlockFace) UnmarshalText(text []byte) error {
	face, err := ParseBlockFace(string(text))
	if err != nil {
		return err
	}
	*f = face
	return nil
}
