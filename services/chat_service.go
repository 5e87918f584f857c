package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
)

// IChatService is what a session needs to emit commands.
type IChatService interface {
	Send(text *string, images []string, audio *string) error
	Update(messageID, text string) error
	Delete(messageID string, forBoth bool, peerID *string) error
}

// ChatService turns user intents into outbound commands.
// It never touches the timeline: effects become visible once the backend echoes them.
type ChatService struct {
	selfID string
	sender contract.CommandSender
}

func NewChatService(selfID string, sender contract.CommandSender) *ChatService {
	return &ChatService{selfID: selfID, sender: sender}
}

func (s *ChatService) Send(text *string, images []string, audio *string) error {
	return s.sender.Send(domain.NewCreateCommand(s.selfID, text, images, audio))
}

func (s *ChatService) Update(messageID, text string) error {
	return s.sender.Send(domain.NewUpdateCommand(messageID, text))
}

// Delete hides the message for the current user, or for both participants
// when forBoth is set. A mutual delete without a peer is a caller bug.
func (s *ChatService) Delete(messageID string, forBoth bool, peerID *string) error {
	deleteFor := []string{s.selfID}
	if forBoth {
		if peerID == nil || *peerID == "" {
			return fmt.Errorf("%w: mutual delete of %s requires a peer id", errors.ErrPrecondition, messageID)
		}
		deleteFor = append(deleteFor, *peerID)
	}
	return s.sender.Send(domain.NewDeleteCommand(messageID, deleteFor))
}
