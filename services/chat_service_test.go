package services

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var _ IChatService = (*ChatService)(nil)

func TestChatService_Send(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockCommandSender(ctrl)
	service := NewChatService("self", sender)

	// Then a create command carrying the current user is handed to the transport
	sender.EXPECT().Send(domain.Command{
		Message:  lo.ToPtr("hi"),
		SenderID: "self",
		Images:   []string{"img-1"},
		IsUpdate: false,
	}).Return(nil).Times(1)

	// When sending a text with one image
	err := service.Send(lo.ToPtr("hi"), []string{"img-1"}, nil)
	req.NoError(err)
}

func TestChatService_Update(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockCommandSender(ctrl)
	service := NewChatService("self", sender)

	sender.EXPECT().Send(gomock.Any()).DoAndReturn(func(cmd domain.Command) error {
		req.Equal(domain.UpdateCommand, cmd.Kind())
		req.Equal("m1", *cmd.ID)
		req.Equal("hi!", *cmd.Message)
		req.Equal("", cmd.SenderID)
		req.True(cmd.IsUpdate)
		return nil
	}).Times(1)

	req.NoError(service.Update("m1", "hi!"))
}

func TestChatService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		forBoth   bool
		peerID    *string
		deleteFor []string
	}{
		{"for self", false, nil, []string{"self"}},
		{"for self ignores peer", false, lo.ToPtr("peer"), []string{"self"}},
		{"for both", true, lo.ToPtr("peer"), []string{"self", "peer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			sender := mocks.NewMockCommandSender(ctrl)
			service := NewChatService("self", sender)

			sender.EXPECT().Send(domain.Command{
				ID:        lo.ToPtr("m1"),
				SenderID:  "",
				DeleteFor: tt.deleteFor,
				IsUpdate:  false,
			}).Return(nil).Times(1)

			req.NoError(service.Delete("m1", tt.forBoth, tt.peerID))
		})
	}
}

func TestChatService_Delete_MutualWithoutPeerFailsFast(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockCommandSender(ctrl)
	service := NewChatService("self", sender)

	// Then nothing reaches the transport
	sender.EXPECT().Send(gomock.Any()).Times(0)

	err := service.Delete("m1", true, nil)
	req.ErrorIs(err, errors.ErrPrecondition)

	err = service.Delete("m1", true, lo.ToPtr(""))
	req.ErrorIs(err, errors.ErrPrecondition)
}
