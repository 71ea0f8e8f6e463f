// Package game runs turtle-soup sessions: it builds the host prompt,
// streams the host reply to the player with protocol markers stripped,
// classifies the judgment, and advances the session state machine.
package game

import (
	"time"

	"github.com/openclue/soupmaster/internal/classify"
)

// Status is a session lifecycle state. active is the initial state;
// completed and abandoned are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further exchange is permitted.
func (s Status) Terminal() bool {
	return s != StatusActive
}

// Session is one play-through of a puzzle.
type Session struct {
	ID       string `json:"id"`
	PuzzleID string `json:"puzzle_id"`
	// PlayerID is empty for anonymous sessions. Anonymous sessions are
	// readable and playable by anyone who holds the session ID.
	PlayerID string `json:"player_id,omitempty"`
	Status   Status `json:"status"`
	// ConsecutiveNoCount caches the current negative-judgment streak.
	// It is derived state, recomputable from the message history.
	ConsecutiveNoCount int `json:"consecutive_no_count"`
	// RevealRequested distinguishes "gave up and looked" from "solved
	// by reasoning" on completed sessions.
	RevealRequested bool `json:"reveal_requested"`
	// Progress is the highest progress value seen so far, 0-100. It
	// never decreases.
	Progress int `json:"progress"`
	// Clues accumulates confirmed or eliminated information, without
	// duplicates, in discovery order.
	Clues     []string   `json:"clues"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation entry. Content is always marker-free
// display text; ordering is creation order and is semantically
// significant (it is the host model's context window).
type Message struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Meta      *MessageMeta `json:"metadata,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// MessageMeta carries structured facts extracted from a reply.
type MessageMeta struct {
	Category    classify.Category `json:"category,omitempty"`
	Progress    *int              `json:"progress,omitempty"`
	Clues       []string          `json:"clues,omitempty"`
	PuzzleID    string            `json:"puzzle_id,omitempty"`
	PuzzleTitle string            `json:"puzzle_title,omitempty"`
}

// ExchangeResult is the structured outcome of one question/answer
// exchange. It is transient; the durable record lives on the session
// and in the message metadata.
type ExchangeResult struct {
	Response string            `json:"response"`
	Category classify.Category `json:"category"`
	// Progress is the session progress after folding this exchange in,
	// or nil when the reply carried no progress token.
	Progress *int `json:"progress"`
	// Clues lists only the clues new to this session.
	Clues  []string `json:"clues"`
	Solved bool     `json:"solved"`
}
