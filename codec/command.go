package codec

import (
	"chat-sync/domain"
	"encoding/json"
	"fmt"
)

// WireCommand is one outbound JSON frame.
// sender_id and is_update are always emitted, even when empty or false.
type WireCommand struct {
	ID        *string  `json:"id,omitempty"`
	Message   *string  `json:"message,omitempty"`
	SenderID  string   `json:"sender_id"`
	Images    []string `json:"images,omitempty" validate:"omitempty,dive,required"`
	Audio     *string  `json:"audio,omitempty"`
	DeleteFor []string `json:"delete_for,omitempty" validate:"omitempty,dive,required"`
	IsUpdate  bool     `json:"is_update"`
}

func EncodeCommand(cmd domain.Command) ([]byte, error) {
	wire := toWireCommand(cmd)
	if err := validate.Struct(wire); err != nil {
		return nil, fmt.Errorf("invalid %s command: %w", cmd.Kind(), err)
	}
	return json.Marshal(wire)
}

func toWireCommand(cmd domain.Command) WireCommand {
	return WireCommand{
		ID:        cmd.ID,
		Message:   cmd.Message,
		SenderID:  cmd.SenderID,
		Images:    cmd.Images,
		Audio:     cmd.Audio,
		DeleteFor: cmd.DeleteFor,
		IsUpdate:  cmd.IsUpdate,
	}
}
