package rest

import (
	"chat-sync/codec"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"fmt"
	"net/url"
)

const historyPath = "/api/chat/init"

type historyResponse struct {
	ChatID       *string             `json:"chat_id"`
	ChatMessages []codec.WireMessage `json:"chat_messages"`
}

// HistoryClient seeds a conversation: prior messages plus the chat id
// the transport announces once it is open.
type HistoryClient struct {
	client *Client
}

func NewHistoryClient(client *Client) HistoryClient {
	return HistoryClient{client: client}
}

// LoadHistory is a one-shot call, never retried.
// A conversation without prior messages yields an empty, non-nil slice.
func (h HistoryClient) LoadHistory(ctx context.Context, token, selfID, peerID string) (domain.History, error) {
	query := url.Values{}
	query.Set("user1_id", selfID)
	query.Set("user2_id", peerID)

	var response historyResponse
	if err := h.client.getJSON(ctx, token, historyPath, query, errors.ErrHistoryFetch, &response); err != nil {
		return domain.History{}, err
	}
	messages, err := codec.FromWireList(response.ChatMessages, h.client.BaseURL())
	if err != nil {
		return domain.History{}, fmt.Errorf("%w: %w", errors.ErrHistoryFetch, err)
	}

	history := domain.History{Messages: messages}
	if response.ChatID != nil && *response.ChatID != "" {
		history.ChatID = response.ChatID
	}
	h.client.log.Debug("History loaded", "peer", peerID, "messages", len(messages), "has_chat_id", history.ChatID != nil)
	return history, nil
}
