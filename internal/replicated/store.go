package replicated

import (
	"context"
	"errors"
)

// Slot names synchronized independently within a session. There is no
// cross-slot ordering or atomicity: a write to Players and a write to
// GameState issued by one logical action propagate as two unordered
// updates, so every consumer must tolerate partial state.
const (
	SlotGameState    = "gameState"
	SlotPlayers      = "players"
	SlotChatMessages = "chatMessages"
	SlotDrawingPaths = "drawingPaths"
	SlotUsedWords    = "usedWords"
)

// ErrNoValue is returned by Get when the slot has never been written.
var ErrNoValue = errors.New("no value for slot")

// Update notifies a watcher that a slot has a new converged value. The
// watcher re-reads the slot; updates carry no payload so that chunked
// writes surface as a single notification.
type Update struct {
	Slot string
}

// Store is a last-writer-wins replicated key-value store scoped to one
// session. Values are JSON-encoded; writes over the payload ceiling are
// chunked across multiple underlying keys transparently.
type Store interface {
	// Get unmarshals the current value of slot into out. Returns
	// ErrNoValue if the slot has never been written.
	Get(ctx context.Context, slot string, out any) error

	// Set marshals v and replaces the slot's value.
	Set(ctx context.Context, slot string, v any) error

	// Watch returns a channel of slot-change notifications. The channel
	// closes when ctx is cancelled.
	Watch(ctx context.Context) (<-chan Update, error)

	Close() error
}
