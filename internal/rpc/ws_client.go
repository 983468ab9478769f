package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by calls on a closed client.
var ErrClosed = errors.New("client closed")

// errDisconnected fails in-flight calls when the connection drops.
var errDisconnected = errors.New("websocket disconnected")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// CallTimeout bounds a single request when ctx has no deadline.
	CallTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		CallTimeout:       30 * time.Second,
	}
}

// WSClient implements Client over a single WebSocket connection. Responses
// are matched to requests by id, so calls may be issued concurrently.
type WSClient struct {
	endpoint string
	config   WSClientConfig
	observer Observer

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// pending maps request ID to the channel waiting for its response
	pending   map[uint64]chan *response
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSClient dials endpoint and starts the read and ping loops.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig, observer Observer) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		observer: observer,
		pending:  make(map[uint64]chan *response),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	if c.closed.Load() {
		conn.Close()
		return ErrClosed
	}

	c.conn = conn
	return nil
}

// Call sends a request and waits for the matching response.
func (c *WSClient) Call(ctx context.Context, method string, params []any, result any) error {
	start := time.Now()
	err := c.call(ctx, method, params, result)
	if c.observer != nil {
		c.observer(method, time.Since(start), err)
	}
	return err
}

func (c *WSClient) call(ctx context.Context, method string, params []any, result any) error {
	if c.closed.Load() {
		return ErrClosed
	}

	reqID := c.requestID.Add(1)
	respCh := make(chan *response, 1)

	c.pendingMu.Lock()
	c.pending[reqID] = respCh
	c.pendingMu.Unlock()
	defer c.forget(reqID)

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return errDisconnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(newRequest(reqID, method, params))
	c.connMu.Unlock()

	if err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	var timeout <-chan time.Time
	if _, ok := ctx.Deadline(); !ok && c.config.CallTimeout > 0 {
		timer := time.NewTimer(c.config.CallTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			if c.closed.Load() {
				return ErrClosed
			}
			return errDisconnected
		}
		return decodeResult(resp, result)
	case <-timeout:
		return fmt.Errorf("%s: no response after %v", method, c.config.CallTimeout)
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *WSClient) forget(reqID uint64) {
	c.pendingMu.Lock()
	delete(c.pending, reqID)
	c.pendingMu.Unlock()
}

// failPending closes every waiting channel so callers see a disconnect.
func (c *WSClient) failPending() {
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// Close closes the WebSocket connection.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.failPending()
	c.wg.Wait()
	return nil
}

// readLoop dispatches responses to waiting calls and reconnects on error.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)

				reconnectDelay *= 2
				if reconnectDelay > c.config.MaxReconnectDelay {
					reconnectDelay = c.config.MaxReconnectDelay
				}
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			c.connMu.Lock()
			if c.conn == conn {
				c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()

			// Requests written to the dead connection will never be answered.
			c.failPending()
			continue
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect dials a new connection after delay. On failure readLoop
// schedules another attempt with a longer delay.
func (c *WSClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = c.connect(ctx)
}

func (c *WSClient) handleMessage(message []byte) {
	var resp response
	if err := json.Unmarshal(message, &resp); err != nil || resp.ID == 0 {
		return
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- &resp
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in readLoop.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

var _ Client = (*WSClient)(nil)
