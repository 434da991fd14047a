package wsremote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// DefaultCallTimeout bounds one request/response round trip.
const DefaultCallTimeout = 10 * time.Second

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("wsremote: client closed")

// Client is an adapter.Adapter backed by a remote Handler.
//
// Thread-safety: calls are serialized on the connection, so worlds of
// concurrent runs share it safely but do not execute in parallel.
//
// A failed send or receive, including a call timeout, leaves the
// connection unusable. The client closes itself and every later call
// returns ErrClientClosed.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  *slog.Logger
	info    adapter.ServerInfo

	mu     sync.Mutex
	nextID uint64
	closed bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout sets the per-call deadline. The default is
// DefaultCallTimeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithClientLogger sets the logger. The default discards everything.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Dial connects to the handler at url (ws:// or wss://) and fetches the
// server info.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		timeout: DefaultCallTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c.conn = conn

	resp, err := c.call(ctx, Request{Op: adapter.OpServerInfo})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("server info: %w", err)
	}
	c.info = adapter.ServerInfo{Version: resp.Version}
	c.logger.Debug("connected", "url", url, "server", c.info.Version)
	return c, nil
}

// Close closes the connection. The server releases every world created
// through it.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// ServerInfo implements adapter.Adapter. The value is fetched once by Dial.
func (c *Client) ServerInfo() adapter.ServerInfo {
	return c.info
}

// CreateTestWorld implements adapter.Adapter.
func (c *Client) CreateTestWorld(ctx context.Context) (adapter.World, error) {
	resp, err := c.call(ctx, Request{Op: adapter.OpCreateTestWorld})
	if err != nil {
		return nil, err
	}
	if resp.World == "" {
		return nil, fmt.Errorf("%s: response carries no world id", adapter.OpCreateTestWorld)
	}
	w := &remoteWorld{client: c, id: resp.World}
	if resp.Comparer {
		return &comparingWorld{w}, nil
	}
	return w, nil
}

// call sends req and waits for its response. A response with ok=false is
// returned as an *adapter.AdapterError wrapping a *RemoteError.
func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Response{}, ErrClientClosed
	}

	c.nextID++
	req.ID = c.nextID

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		c.abandon(req.Op, err)
		return Response{}, fmt.Errorf("%s: send: %w", req.Op, err)
	}

	_ = c.conn.SetReadDeadline(deadline)
	var resp Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		c.abandon(req.Op, err)
		return Response{}, fmt.Errorf("%s: receive: %w", req.Op, err)
	}
	if resp.ID != req.ID {
		err := fmt.Errorf("response id %d, want %d", resp.ID, req.ID)
		c.abandon(req.Op, err)
		return Response{}, fmt.Errorf("%s: receive: %w", req.Op, err)
	}
	if !resp.OK {
		return resp, adapter.NewAdapterError(req.Op, &RemoteError{Op: req.Op, Message: resp.Error})
	}
	return resp, nil
}

// abandon closes a connection that can no longer be read or written.
// c.mu must be held.
func (c *Client) abandon(op string, err error) {
	c.logger.Warn("connection lost", "op", op, "error", err)
	c.closed = true
	_ = c.conn.Close()
}

// do runs a world or player call. The contract carries no context past
// CreateTestWorld; the call timeout bounds these.
func (c *Client) do(req Request) (Response, error) {
	return c.call(context.Background(), req)
}

type remoteWorld struct {
	client *Client
	id     string

	mu   sync.Mutex
	tick uint64
}

func (w *remoteWorld) DoTick() error {
	resp, err := w.client.do(Request{Op: adapter.OpDoTick, World: w.id})
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.tick = resp.Tick
	w.mu.Unlock()
	return nil
}

// CurrentTick asks the server, falling back to the last tick seen if the
// call fails.
func (w *remoteWorld) CurrentTick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	resp, err := w.client.do(Request{Op: adapter.OpCurrentTick, World: w.id})
	if err == nil {
		w.tick = resp.Tick
	}
	return w.tick
}

func (w *remoteWorld) GetBlock(pos ir.BlockPos) (ir.Block, error) {
	resp, err := w.client.do(Request{Op: adapter.OpGetBlock, World: w.id, Pos: &pos})
	if err != nil {
		return ir.Block{}, err
	}
	if resp.Block == nil {
		return ir.Block{}, fmt.Errorf("%s: response carries no block", adapter.OpGetBlock)
	}
	return *resp.Block, nil
}

func (w *remoteWorld) SetBlock(pos ir.BlockPos, block ir.Block) error {
	_, err := w.client.do(Request{Op: adapter.OpSetBlock, World: w.id, Pos: &pos, Block: &block})
	return err
}

func (w *remoteWorld) CreatePlayer() (adapter.Player, error) {
	resp, err := w.client.do(Request{Op: adapter.OpCreatePlayer, World: w.id})
	if err != nil {
		return nil, err
	}
	if resp.Player == "" {
		return nil, fmt.Errorf("%s: response carries no player id", adapter.OpCreatePlayer)
	}
	return &remotePlayer{client: w.client, world: w.id, id: resp.Player}, nil
}

// Close releases the world on the server.
func (w *remoteWorld) Close() error {
	_, err := w.client.do(Request{Op: adapter.OpCloseWorld, World: w.id})
	if errors.Is(err, ErrClientClosed) {
		return nil
	}
	return err
}

// comparingWorld is a remote world whose server defines block equality.
type comparingWorld struct {
	*remoteWorld
}

// BlocksEqual asks the server. If the call fails the blocks count as
// different; the failure itself surfaces on the next world call.
func (w *comparingWorld) BlocksEqual(a, b ir.Block) bool {
	resp, err := w.client.do(Request{Op: adapter.OpBlocksEqual, World: w.id, Block: &a, Other: &b})
	if err != nil {
		w.client.logger.Warn("blocks_equal failed", "world", w.id, "error", err)
		return false
	}
	return resp.Equal
}

type remotePlayer struct {
	client *Client
	world  string
	id     string
}

func (p *remotePlayer) request(op string) Request {
	return Request{Op: op, World: p.world, Player: p.id}
}

func (p *remotePlayer) SetSlot(slot ir.PlayerSlot, item *ir.Item) error {
	req := p.request(adapter.OpSetSlot)
	req.Slot = &slot
	req.Item = item
	_, err := p.client.do(req)
	return err
}

func (p *remotePlayer) GetSlot(slot ir.PlayerSlot) (*ir.Item, error) {
	req := p.request(adapter.OpGetSlot)
	req.Slot = &slot
	resp, err := p.client.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (p *remotePlayer) SelectHotbar(n uint8) error {
	req := p.request(adapter.OpSelectHotbar)
	req.Hotbar = n
	_, err := p.client.do(req)
	return err
}

// SelectedHotbar returns 0 if the server cannot be reached.
func (p *remotePlayer) SelectedHotbar() uint8 {
	resp, err := p.client.do(p.request(adapter.OpSelectedHotbar))
	if err != nil {
		return 0
	}
	return resp.Hotbar
}

func (p *remotePlayer) UseItemOn(pos ir.BlockPos, face ir.BlockFace) error {
	req := p.request(adapter.OpUseItemOn)
	req.Pos = &pos
	req.Face = &face
	_, err := p.client.do(req)
	return err
}
