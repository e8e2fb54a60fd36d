// Package cards holds the question and answer card types, the supplier
// contract the game session draws decks from, and YAML card packs.
package cards

import "context"

type Card struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	NumAnswers int    `json:"numAnswers"`
}

// Supplier provides fresh batches of cards. Implementations may block on
// I/O; callers run them off the session's critical section.
type Supplier interface {
	Questions(ctx context.Context, n int) ([]Question, error)
	Answers(ctx context.Context, n int) ([]Card, error)
}
