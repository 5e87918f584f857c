// Package domain contains core concepts of the conversation engine.
// This file defines the conversation participants as seen by the client.
package domain

// Peer is a user the current user can open a conversation with.
// Its exact shape is owned by the directory service; only ID is required.
type Peer struct {
	ID       string
	Username string
	Email    string
	Avatar   string
}
