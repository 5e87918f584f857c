//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-sync/domain"
	"context"
)

// Conn is the duplex transport of one session.
// *websocket.Conn from gorilla satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type HistoryLoader interface {
	LoadHistory(ctx context.Context, token, selfID, peerID string) (domain.History, error)
}

// CommandSender transmits an outbound intent.
// Implementations drop the command when the transport is not open.
type CommandSender interface {
	Send(cmd domain.Command) error
}
