package share

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/openclue/soupmaster/internal/db"
	"github.com/openclue/soupmaster/internal/game"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// shareIDChars excludes ambiguous characters (0/O, 1/l/I) so the IDs
// survive being read aloud or retyped.
const (
	shareIDChars  = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
	shareIDLength = 8
)

// Store manages shared replay links for finished and in-progress
// sessions.
type Store struct {
	db      *db.DB
	games   *game.Store
	puzzles *puzzle.Store
}

// NewStore creates a new share store.
func NewStore(database *db.DB, games *game.Store, puzzles *puzzle.Store) *Store {
	return &Store{db: database, games: games, puzzles: puzzles}
}

// View is a read-only replay of a shared session. The solution is
// included only once the session has ended.
type View struct {
	ShareID     string         `json:"share_id"`
	PuzzleTitle string         `json:"puzzle_title"`
	Description string         `json:"description"`
	Solution    string         `json:"solution,omitempty"`
	Status      game.Status    `json:"status"`
	Progress    int            `json:"progress"`
	Clues       []string       `json:"clues"`
	Messages    []game.Message `json:"messages"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateShare returns a share ID for the session, reusing the existing
// one when the session has been shared before.
func (s *Store) CreateShare(ctx context.Context, sessionID string) (string, error) {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT share_id FROM shared_sessions WHERE session_id = ?`, sessionID,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up share: %w", err)
	}

	shareID := generateShareID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO shared_sessions (share_id, session_id, created_at) VALUES (?, ?, ?)`,
		shareID, sessionID, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting share: %w", err)
	}
	return shareID, nil
}

// Resolve loads the full replay for a share ID, or nil when the share
// does not exist.
func (s *Store) Resolve(ctx context.Context, shareID string) (*View, error) {
	var sessionID string
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at FROM shared_sessions WHERE share_id = ?`, shareID,
	).Scan(&sessionID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving share: %w", err)
	}

	sess, err := s.games.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	p, err := s.puzzles.GetByID(ctx, sess.PuzzleID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	messages, err := s.games.ListMessages(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}

	view := &View{
		ShareID:     shareID,
		PuzzleTitle: p.Title,
		Description: p.Description,
		Status:      sess.Status,
		Progress:    sess.Progress,
		Clues:       sess.Clues,
		Messages:    messages,
		CreatedAt:   createdAt,
	}
	if sess.Status.Terminal() {
		view.Solution = p.Solution
	}
	return view, nil
}

func generateShareID() string {
	b := make([]byte, shareIDLength)
	for i := range b {
		b[i] = shareIDChars[rand.Intn(len(shareIDChars))]
	}
	return string(b)
}
