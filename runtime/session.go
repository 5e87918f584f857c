package runtime

import (
	"chat-sync/domain"
	"chat-sync/infrastructure/ws"
	"chat-sync/services"
	"context"

	"github.com/google/uuid"
)

// Session pairs the current user with the selected peer and owns the
// transport opened for them. It is discarded as a whole on teardown.
type Session struct {
	ID     uuid.UUID
	SelfID string
	Peer   domain.Peer
	ChatID *string

	conn   *ws.Connection
	chat   services.IChatService
	cancel context.CancelFunc
}

func newSession(selfID string, peer domain.Peer, cancel context.CancelFunc) *Session {
	return &Session{
		ID:     uuid.New(),
		SelfID: selfID,
		Peer:   peer,
		cancel: cancel,
	}
}

func (s *Session) teardown() {
	s.cancel()
	if s.conn != nil {
		s.conn.Close()
	}
}
