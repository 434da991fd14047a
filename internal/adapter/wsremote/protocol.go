// Package wsremote carries the adapter contract over a websocket so a
// server running in another process can be driven like a local adapter.
//
// The wire is one JSON text message per request and one per response.
// Requests on a connection are handled strictly in order and every
// response echoes its request ID.
//
// Ops are the adapter.Op* names. Worlds and players are referenced by
// IDs the server hands out; they live as long as the connection.
//
// A world whose server-side implementation has its own block equality is
// flagged by create_test_world; the client then asks blocks_equal
// instead of comparing locally.
package wsremote

import (
	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// Request is one contract call.
type Request struct {
	ID     uint64         `json:"id"`
	Op     string         `json:"op"`
	World  string         `json:"world,omitempty"`
	Player string         `json:"player,omitempty"`
	Pos    *ir.BlockPos   `json:"pos,omitempty"`
	Block  *ir.Block      `json:"block,omitempty"`
	Other  *ir.Block      `json:"other,omitempty"`
	Slot   *ir.PlayerSlot `json:"slot,omitempty"`
	Item   *ir.Item       `json:"item,omitempty"`
	Hotbar uint8          `json:"hotbar,omitempty"`
	Face   *ir.BlockFace  `json:"face,omitempty"`
}

// Response answers the Request with the same ID. Only the fields relevant
// to the op are set.
type Response struct {
	ID       uint64    `json:"id"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	World    string    `json:"world,omitempty"`
	Comparer bool      `json:"comparer,omitempty"`
	Player   string    `json:"player,omitempty"`
	Tick     uint64    `json:"tick,omitempty"`
	Block    *ir.Block `json:"block,omitempty"`
	Item     *ir.Item  `json:"item,omitempty"`
	Hotbar   uint8     `json:"hotbar,omitempty"`
	Equal    bool      `json:"equal,omitempty"`
	Version  string    `json:"version,omitempty"`
}

// RemoteError is a failure reported by the serving adapter.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func failed(id uint64, err error) Response {
	return Response{ID: id, Error: err.Error()}
}
