package rest

import (
	"chat-sync/codec"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"fmt"
	"net/url"

	"github.com/samber/lo"
)

const (
	availableUsersPath = "/api/user/available-users"
	messagePath        = "/api/message"
)

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// DirectoryClient reads users and single messages. It owns no state.
type DirectoryClient struct {
	client *Client
}

func NewDirectoryClient(client *Client) DirectoryClient {
	return DirectoryClient{client: client}
}

func (d DirectoryClient) AvailableUsers(ctx context.Context, token string) ([]domain.Peer, error) {
	var users []wireUser
	if err := d.client.getJSON(ctx, token, availableUsersPath, nil, errors.ErrRequest, &users); err != nil {
		return nil, err
	}
	peers := lo.FilterMap(users, func(u wireUser, _ int) (domain.Peer, bool) {
		return domain.Peer{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar}, u.ID != ""
	})
	return peers, nil
}

func (d DirectoryClient) GetMessage(ctx context.Context, token, messageID string) (domain.Message, error) {
	query := url.Values{}
	query.Set("messageId", messageID)

	var wire codec.WireMessage
	if err := d.client.getJSON(ctx, token, messagePath, query, errors.ErrRequest, &wire); err != nil {
		return domain.Message{}, err
	}
	if err := codec.Validate(wire); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrRequest, err)
	}
	return codec.FromWire(wire, d.client.BaseURL()), nil
}
