// Package runtime drives one conversation view: it selects a peer, seeds the
// timeline, owns the live transport and routes inbound frames and user intents.
// It contains no reconciliation rules; those live in projection.
package runtime

import (
	"chat-sync/codec"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/infrastructure/ws"
	"chat-sync/projection"
	"chat-sync/services"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	chatPath        = "/chat/ws"
	errorBufferSize = 16
)

// Controller holds at most one active Session. Several controllers may
// coexist; they share nothing.
type Controller struct {
	log            *slog.Logger
	selfID         string
	history        contract.HistoryLoader
	dialer         contract.Dialer
	wsURL          string
	imageBase      string
	connectTimeout time.Duration

	timeline *projection.Timeline
	errs     chan error

	switchMu sync.Mutex // serializes SelectPeer
	applyMu  sync.Mutex // serializes timeline mutations against teardown
	mu       sync.RWMutex
	current  *Session
}

func NewController(log *slog.Logger, selfID string, history contract.HistoryLoader, dialer contract.Dialer,
	wsBase, imageBase string, connectTimeout time.Duration) *Controller {
	return &Controller{
		log:            log,
		selfID:         selfID,
		history:        history,
		dialer:         dialer,
		wsURL:          strings.TrimRight(wsBase, "/") + chatPath,
		imageBase:      strings.TrimRight(imageBase, "/"),
		connectTimeout: connectTimeout,
		timeline:       projection.NewTimeline(selfID),
		errs:           make(chan error, errorBufferSize),
	}
}

func (c *Controller) Timeline() *projection.Timeline {
	return c.timeline
}

// Errors exposes transport failures and dropped frames of the active session.
// Errors are discarded when nobody drains the channel.
func (c *Controller) Errors() <-chan error {
	return c.errs
}

// Session returns the active session, or nil.
func (c *Controller) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// State reports the transport state of the active session.
func (c *Controller) State() ws.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || c.current.conn == nil {
		return ws.Idle
	}
	return c.current.conn.State()
}

// SelectPeer switches the view to peer: the previous session is torn down,
// history is loaded and seeded, then the transport is opened.
// On a history failure the timeline stays empty and no transport is opened.
func (c *Controller) SelectPeer(ctx context.Context, token string, peer domain.Peer) error {
	if peer.ID == "" {
		return fmt.Errorf("%w: peer without id", errors.ErrPrecondition)
	}
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.Close()

	ctx, cancel := context.WithCancel(ctx)
	session := newSession(c.selfID, peer, cancel)
	c.mu.Lock()
	c.current = session
	c.mu.Unlock()
	log := c.log.With("session", session.ID, "peer", peer.ID)

	history, err := c.history.LoadHistory(ctx, token, c.selfID, peer.ID)
	if err != nil {
		c.discard(session)
		log.Warn("History load failed", "error", err)
		return err
	}

	conn := ws.NewConnection(log, c.dialer, ws.Handlers{
		OnFrame: func(frame []byte) { c.onFrame(session, frame) },
		OnClose: func() { log.Info("Conversation closed by backend") },
		OnError: func(err error) { c.report(session, err) },
	})

	c.applyMu.Lock()
	c.mu.Lock()
	if c.current != session {
		c.mu.Unlock()
		c.applyMu.Unlock()
		return errors.ErrClosed
	}
	session.ChatID = history.ChatID
	session.conn = conn
	session.chat = services.NewChatService(c.selfID, conn)
	c.mu.Unlock()
	c.timeline.Seed(history.Messages)
	c.applyMu.Unlock()

	openCtx := ctx
	if c.connectTimeout > 0 {
		var cancelOpen context.CancelFunc
		openCtx, cancelOpen = context.WithTimeout(ctx, c.connectTimeout)
		defer cancelOpen()
	}
	if err := conn.Open(openCtx, c.wsURL, history.ChatID); err != nil {
		c.discard(session)
		log.Warn("Transport open failed", "error", err)
		return err
	}
	log.Info("Conversation ready", "messages", len(history.Messages))
	return nil
}

// Close tears down the active session. It is safe to call at any time.
func (c *Controller) Close() {
	c.applyMu.Lock()
	c.mu.Lock()
	session := c.current
	c.current = nil
	c.mu.Unlock()
	if session != nil {
		c.timeline.Reset()
	}
	c.applyMu.Unlock()

	if session != nil {
		session.teardown()
		c.log.Debug("Session torn down", "session", session.ID)
	}
}

// SendMessage, UpdateMessage and DeleteMessage are fire-and-forget: the
// timeline only changes when the backend echoes the result.
func (c *Controller) SendMessage(text *string, images []string, audio *string) error {
	chat := c.chat()
	if chat == nil {
		c.log.Debug("Send dropped, no active session")
		return nil
	}
	return chat.Send(text, images, audio)
}

func (c *Controller) UpdateMessage(messageID, text string) error {
	chat := c.chat()
	if chat == nil {
		c.log.Debug("Update dropped, no active session")
		return nil
	}
	return chat.Update(messageID, text)
}

func (c *Controller) DeleteMessage(messageID string, forBoth bool) error {
	var chat services.IChatService
	var peerID *string
	c.mu.RLock()
	if c.current != nil {
		chat = c.current.chat
		peerID = lo.ToPtr(c.current.Peer.ID)
	}
	c.mu.RUnlock()

	if chat == nil {
		if forBoth && peerID == nil {
			return fmt.Errorf("%w: mutual delete of %s without a selected peer", errors.ErrPrecondition, messageID)
		}
		c.log.Debug("Delete dropped, no active session")
		return nil
	}
	return chat.Delete(messageID, forBoth, peerID)
}

func (c *Controller) chat() services.IChatService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	return c.current.chat
}

// onFrame runs on the read goroutine of session's transport. applyMu is held
// while applying so a concurrent teardown cannot interleave.
// Timeline watchers run under applyMu and must not call Close or SelectPeer.
func (c *Controller) onFrame(session *Session, frame []byte) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if c.Session() != session {
		c.log.Debug("Frame of a discarded session ignored", "session", session.ID)
		return
	}
	message, err := codec.DecodeMessage(frame, c.imageBase)
	if err != nil {
		c.log.Warn("Inbound frame dropped", "session", session.ID, "error", err)
		c.publish(err)
		return
	}
	c.timeline.Apply(message)
}

func (c *Controller) report(session *Session, err error) {
	c.mu.RLock()
	active := c.current == session
	c.mu.RUnlock()
	if !active {
		return
	}
	c.publish(err)
}

func (c *Controller) publish(err error) {
	select {
	case c.errs <- err:
	default:
		c.log.Debug("Error channel full, error lost", "error", err)
	}
}

// discard drops session if it is still the active one.
func (c *Controller) discard(session *Session) {
	c.applyMu.Lock()
	c.mu.Lock()
	active := c.current == session
	if active {
		c.current = nil
	}
	c.mu.Unlock()
	if active {
		c.timeline.Reset()
	}
	c.applyMu.Unlock()
	session.teardown()
}
