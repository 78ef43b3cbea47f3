// Package store keeps per-user conversation history.
package store

import (
	"context"
	"errors"
)

// ErrEmptyUserID is returned when a history operation has no user id.
var ErrEmptyUserID = errors.New("store: empty user id")

// ConversationStore maps a user id to the ordered text messages received
// from that user. Implementations must be safe for concurrent use.
type ConversationStore interface {
	// Append adds message to the end of the user's history.
	Append(ctx context.Context, userID, message string) error
	// History returns a copy of the user's messages, oldest first.
	// Unknown users get an empty slice.
	History(ctx context.Context, userID string) ([]string, error)
}
