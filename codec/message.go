// Package codec translates between backend wire shapes and domain values.
// Inbound frames go through an explicit schema step before they reach a timeline.
package codec

import (
	"bytes"
	"chat-sync/domain"
	"chat-sync/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// WireMessage is a message record as the backend sends it,
// both in history responses and as inbound websocket events.
type WireMessage struct {
	ID         string           `json:"id" validate:"required"`
	Message    string           `json:"message"`
	Images     []string         `json:"images"`
	Audio      string           `json:"audio"`
	UserFrom   string           `json:"user_from"`
	DeletedFor map[string]int64 `json:"deleted_for"`
	CreatedAt  int64            `json:"created_at"`
	UpdatedAt  int64            `json:"updated_at"`
}

// DecodeMessage turns one inbound frame into a Message.
// Anything that is not a JSON object carrying an id is rejected with ErrDecode.
func DecodeMessage(raw []byte, imageBase string) (domain.Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.Message{}, fmt.Errorf("%w: frame is not a JSON object", errors.ErrDecode)
	}
	var wire WireMessage
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrDecode, err)
	}
	if err := Validate(wire); err != nil {
		return domain.Message{}, err
	}
	return FromWire(wire, imageBase), nil
}

// Validate applies the schema rules to an already unmarshalled record.
func Validate(wire WireMessage) error {
	if err := validate.Struct(wire); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrDecode, err)
	}
	return nil
}

// FromWire maps backend field names onto the canonical Message and
// resolves every image reference into a fetchable URL. Empty references
// are skipped rather than failing the whole record.
func FromWire(wire WireMessage, imageBase string) domain.Message {
	return domain.Message{
		ID:          wire.ID,
		TextContent: wire.Message,
		ImageContent: lo.FilterMap(wire.Images, func(ref string, _ int) (string, bool) {
			return domain.ImageURL(imageBase, ref), ref != ""
		}),
		AudioContent: wire.Audio,
		Sender:       wire.UserFrom,
		DeletedFor:   wire.DeletedFor,
		CreatedAt:    wire.CreatedAt,
		UpdatedAt:    wire.UpdatedAt,
	}
}

// FromWireList decodes a batch, failing on the first invalid record.
func FromWireList(wires []WireMessage, imageBase string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(wires))
	for _, w := range wires {
		if err := Validate(w); err != nil {
			return nil, err
		}
		messages = append(messages, FromWire(w, imageBase))
	}
	return messages, nil
}
