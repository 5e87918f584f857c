// Package ws owns the duplex transport of one conversation session.
package ws

import (
	"chat-sync/codec"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

type State int

const (
	Idle State = iota
	Connecting
	Open
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handlers receive transport events. They are invoked from the read goroutine,
// one at a time, in delivery order. Any of them may be nil.
type Handlers struct {
	OnFrame func(frame []byte)
	OnClose func()
	OnError func(err error)
}

// Connection is a single-use transport: Idle -> Connecting -> Open -> Closed,
// with Errored reachable from Connecting or Open. It never reconnects.
type Connection struct {
	log      *slog.Logger
	dialer   contract.Dialer
	handlers Handlers

	mu    sync.Mutex
	state State
	conn  contract.Conn

	writeMu sync.Mutex
	done    chan struct{}
}

func NewConnection(log *slog.Logger, dialer contract.Dialer, handlers Handlers) *Connection {
	return &Connection{
		log:      log,
		dialer:   dialer,
		handlers: handlers,
		state:    Idle,
		done:     make(chan struct{}),
	}
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the read loop has exited, or when the connection
// never got past Connecting.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Open dials url and returns once the transport is Open.
// When chatID is set it is written as a bare text frame before any command.
func (c *Connection) Open(ctx context.Context, url string, chatID *string) error {
	c.mu.Lock()
	if c.state != Idle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: open called in state %s", errors.ErrInvalidState, state)
	}
	c.state = Connecting
	c.mu.Unlock()

	c.log.Debug("Opening transport", "url", url)
	conn, err := c.dialer.Dial(ctx, url)

	c.mu.Lock()
	if err != nil {
		if c.state == Connecting {
			c.state = Errored
		}
		c.mu.Unlock()
		close(c.done)
		return fmt.Errorf("%w: dial %s: %w", errors.ErrTransport, url, err)
	}
	if c.state != Connecting {
		// Closed while dialing
		c.mu.Unlock()
		_ = conn.Close()
		close(c.done)
		return errors.ErrClosed
	}
	// writeMu is taken before the state flips so no command can reach the
	// wire ahead of the init frame.
	c.writeMu.Lock()
	c.conn = conn
	c.state = Open
	c.mu.Unlock()

	if chatID != nil {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(*chatID)); err != nil {
			c.writeMu.Unlock()
			err = fmt.Errorf("%w: write: %w", errors.ErrTransport, err)
			c.fail(err)
			close(c.done)
			return err
		}
		c.log.Debug("Session init frame sent", "chat_id", *chatID)
	}
	c.writeMu.Unlock()

	go c.readLoop(conn)
	c.log.Info("Transport open", "url", url)
	return nil
}

// Send encodes and writes cmd. Outside Open the command is dropped.
func (c *Connection) Send(cmd domain.Command) error {
	if state := c.State(); state != Open {
		c.log.Debug("Command dropped, transport not open", "kind", cmd.Kind(), "state", state)
		return nil
	}
	frame, err := codec.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := c.write(websocket.TextMessage, frame); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// Close releases the transport. Calling it more than once is harmless.
func (c *Connection) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.state == Idle || c.state == Connecting || c.state == Open {
		c.state = Closed
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		c.log.Debug("Transport closed")
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("%w: write: %w", errors.ErrTransport, err)
	}
	return nil
}

// fail moves an Open connection to Errored and releases the transport.
func (c *Connection) fail(err error) {
	c.mu.Lock()
	conn := c.conn
	if c.state != Open {
		c.mu.Unlock()
		return
	}
	c.state = Errored
	c.conn = nil
	c.mu.Unlock()

	c.log.Warn("Transport failed", "error", err)
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Connection) readLoop(conn contract.Conn) {
	defer close(c.done)
	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			c.onReadError(err)
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if c.handlers.OnFrame != nil {
			c.handlers.OnFrame(frame)
		}
	}
}

func (c *Connection) onReadError(err error) {
	c.mu.Lock()
	state := c.state
	switch {
	case state != Open:
		// Closed locally or already failed: nothing to report
		c.mu.Unlock()
		return
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.state = Closed
	default:
		c.state = Errored
	}
	conn := c.conn
	c.conn = nil
	next := c.state
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if next == Closed {
		c.log.Info("Transport closed by remote")
		if c.handlers.OnClose != nil {
			c.handlers.OnClose()
		}
		return
	}
	c.log.Warn("Transport read failed", "error", err)
	if c.handlers.OnError != nil {
		c.handlers.OnError(fmt.Errorf("%w: read: %w", errors.ErrTransport, err))
	}
}
