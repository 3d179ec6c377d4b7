package models

import "time"

// ChatMessage is one entry in the append-only chat/guess log. Entries are
// never mutated after creation.
//
// The literal text of an accepted guess is never written to the replicated
// log; other viewers only see the IsCorrect marker. The author keeps the
// text in their local optimistic copy.
type ChatMessage struct {
	ID        string    `json:"id"`
	AuthorID  PlayerID  `json:"author_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsGuess   bool      `json:"is_guess"`
	IsCorrect bool      `json:"is_correct,omitempty"`
}

// Stroke is an opaque drawing payload relayed through the drawingPaths
// slot. The pixel/stroke format belongs to the rendering layer; the core
// only clears and forwards it.
type Stroke struct {
	AuthorID PlayerID       `json:"author_id"`
	Data     map[string]any `json:"data"`
}
