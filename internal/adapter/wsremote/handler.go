package wsremote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
)

// Handler serves an adapter over websocket connections.
//
// Each connection owns the worlds it creates. When the connection drops,
// every world still open is closed.
type Handler struct {
	adapter  adapter.Adapter
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// IdleTimeout closes a connection that sends nothing for this long.
	IdleTimeout time.Duration
}

// NewHandler serves a. A nil logger discards everything.
func NewHandler(a adapter.Adapter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		adapter: a,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		IdleTimeout: 5 * time.Minute,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	s := &session{
		handler: h,
		ctx:     r.Context(),
		logger:  h.logger.With("remote", r.RemoteAddr),
		worlds:  make(map[string]adapter.World),
		players: make(map[string]adapter.Player),
	}
	defer s.release()
	s.logger.Debug("connection opened")

	for {
		_ = conn.SetReadDeadline(time.Now().Add(h.IdleTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("connection closed", "error", err)
			}
			return
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			resp = failed(req.ID, fmt.Errorf("decode request: %w", err))
		} else {
			resp = s.handle(req)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("write failed", "error", err)
			return
		}
	}
}

// session is the state of one connection. It is used by a single
// goroutine.
type session struct {
	handler *Handler
	ctx     context.Context
	logger  *slog.Logger
	worlds  map[string]adapter.World
	players map[string]adapter.Player
}

func (s *session) handle(req Request) Response {
	resp, err := s.dispatch(req)
	if err != nil {
		s.logger.Debug("request failed", "op", req.Op, "error", err)
		return failed(req.ID, err)
	}
	resp.ID = req.ID
	resp.OK = true
	return resp
}

var knownOps = map[string]bool{
	adapter.OpServerInfo:      true,
	adapter.OpCreateTestWorld: true,
	adapter.OpCloseWorld:      true,
	adapter.OpDoTick:          true,
	adapter.OpCurrentTick:     true,
	adapter.OpGetBlock:        true,
	adapter.OpSetBlock:        true,
	adapter.OpCreatePlayer:    true,
	adapter.OpSetSlot:         true,
	adapter.OpGetSlot:         true,
	adapter.OpSelectHotbar:    true,
	adapter.OpSelectedHotbar:  true,
	adapter.OpUseItemOn:       true,
	adapter.OpBlocksEqual:     true,
}

func (s *session) dispatch(req Request) (Response, error) {
	if !knownOps[req.Op] {
		return Response{}, fmt.Errorf("unknown op %q", req.Op)
	}

	switch req.Op {
	case adapter.OpServerInfo:
		return Response{Version: s.handler.adapter.ServerInfo().Version}, nil

	case adapter.OpCreateTestWorld:
		w, err := s.handler.adapter.CreateTestWorld(s.ctx)
		if err != nil {
			return Response{}, err
		}
		id := uuid.NewString()
		s.worlds[id] = w
		_, comparer := w.(adapter.BlockComparer)
		s.logger.Debug("world created", "world", id, "comparer", comparer)
		return Response{World: id, Comparer: comparer}, nil
	}

	w, ok := s.worlds[req.World]
	if !ok {
		return Response{}, fmt.Errorf("unknown world %q", req.World)
	}

	switch req.Op {
	case adapter.OpCloseWorld:
		delete(s.worlds, req.World)
		for id, p := range s.players {
			if pw, ok := p.(ownedPlayer); ok && pw.world == req.World {
				delete(s.players, id)
			}
		}
		return Response{}, closeWorld(w)

	case adapter.OpDoTick:
		if err := w.DoTick(); err != nil {
			return Response{}, err
		}
		return Response{Tick: w.CurrentTick()}, nil

	case adapter.OpCurrentTick:
		return Response{Tick: w.CurrentTick()}, nil

	case adapter.OpGetBlock:
		if req.Pos == nil {
			return Response{}, errors.New("missing pos")
		}
		b, err := w.GetBlock(*req.Pos)
		if err != nil {
			return Response{}, err
		}
		return Response{Block: &b}, nil

	case adapter.OpSetBlock:
		if req.Pos == nil || req.Block == nil {
			return Response{}, errors.New("missing pos or block")
		}
		return Response{}, w.SetBlock(*req.Pos, *req.Block)

	case adapter.OpBlocksEqual:
		if req.Block == nil || req.Other == nil {
			return Response{}, errors.New("missing block or other")
		}
		if c, ok := w.(adapter.BlockComparer); ok {
			return Response{Equal: c.BlocksEqual(*req.Block, *req.Other)}, nil
		}
		return Response{Equal: req.Block.Equal(*req.Other)}, nil

	case adapter.OpCreatePlayer:
		p, err := w.CreatePlayer()
		if err != nil {
			return Response{}, err
		}
		id := uuid.NewString()
		s.players[id] = ownedPlayer{Player: p, world: req.World}
		return Response{Player: id}, nil
	}

	p, ok := s.players[req.Player]
	if !ok {
		return Response{}, fmt.Errorf("unknown player %q", req.Player)
	}

	switch req.Op {
	case adapter.OpSetSlot:
		if req.Slot == nil {
			return Response{}, errors.New("missing slot")
		}
		return Response{}, p.SetSlot(*req.Slot, req.Item)

	case adapter.OpGetSlot:
		if req.Slot == nil {
			return Response{}, errors.New("missing slot")
		}
		item, err := p.GetSlot(*req.Slot)
		if err != nil {
			return Response{}, err
		}
		return Response{Item: item}, nil

	case adapter.OpSelectHotbar:
		return Response{}, p.SelectHotbar(req.Hotbar)

	case adapter.OpSelectedHotbar:
		return Response{Hotbar: p.SelectedHotbar()}, nil

	case adapter.OpUseItemOn:
		if req.Pos == nil || req.Face == nil {
			return Response{}, errors.New("missing pos or face")
		}
		return Response{}, p.UseItemOn(*req.Pos, *req.Face)
	}

	return Response{}, fmt.Errorf("op %q not handled", req.Op)
}

// release closes every world the connection left open.
func (s *session) release() {
	for id, w := range s.worlds {
		if err := closeWorld(w); err != nil {
			s.logger.Warn("close world failed", "world", id, "error", err)
		}
	}
	clear(s.worlds)
	clear(s.players)
}

type ownedPlayer struct {
	adapter.Player
	world string
}

func closeWorld(w adapter.World) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
