// Package domain contains core concepts of the conversation engine.
// This file defines the canonical Message held in a timeline.
// No network, codec, or UI logic should be added here.
package domain

// Message is the canonical, locally held shape of a chat message.
// ImageContent holds resolved URLs, never raw references.
type Message struct {
	ID           string // stable across edits
	TextContent  string
	ImageContent []string
	AudioContent string
	Sender       string
	DeletedFor   map[string]int64 // user id -> deletion timestamp
	CreatedAt    int64
	UpdatedAt    int64
}

// IsDeletedFor reports whether the message carries a tombstone for userID.
func (m Message) IsDeletedFor(userID string) bool {
	_, ok := m.DeletedFor[userID]
	return ok
}

// History is the result of the initial conversation load.
// ChatID is nil when the backend did not hand out a session identifier.
type History struct {
	ChatID   *string
	Messages []Message
}
