package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openclue/soupmaster/internal/db"
)

// Store is the SQLite-backed implementation of SessionStore and
// MessageStore.
type Store struct {
	db *db.DB
}

// NewStore creates a new game store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateSession inserts a fresh active session.
func (s *Store) CreateSession(ctx context.Context, puzzleID, playerID string) (*Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.New().String(),
		PuzzleID:  puzzleID,
		PlayerID:  playerID,
		Status:    StatusActive,
		Clues:     []string{},
		StartTime: now,
		UpdatedAt: now,
	}

	var player interface{}
	if playerID != "" {
		player = playerID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (id, puzzle_id, player_id, status, consecutive_no_count, reveal_requested, progress, clues, start_time, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, 0, '[]', ?, ?)`,
		sess.ID, sess.PuzzleID, player, sess.Status, sess.StartTime, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return &sess, nil
}

// GetSession retrieves a session, or nil when it does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var player sql.NullString
	var end sql.NullTime
	var reveal int
	var clues string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, puzzle_id, player_id, status, consecutive_no_count, reveal_requested, progress, clues, start_time, end_time, updated_at
		 FROM game_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.PuzzleID, &player, &sess.Status, &sess.ConsecutiveNoCount, &reveal, &sess.Progress, &clues, &sess.StartTime, &end, &sess.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	sess.PlayerID = player.String
	sess.RevealRequested = reveal != 0
	if end.Valid {
		sess.EndTime = &end.Time
	}
	if err := json.Unmarshal([]byte(clues), &sess.Clues); err != nil {
		return nil, fmt.Errorf("decoding clues: %w", err)
	}
	return &sess, nil
}

// UpdateSession writes back the mutable session fields.
func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	clues, err := json.Marshal(sess.Clues)
	if err != nil {
		return fmt.Errorf("encoding clues: %w", err)
	}
	reveal := 0
	if sess.RevealRequested {
		reveal = 1
	}
	var end interface{}
	if sess.EndTime != nil {
		end = *sess.EndTime
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions
		 SET status = ?, consecutive_no_count = ?, reveal_requested = ?, progress = ?, clues = ?, end_time = ?, updated_at = ?
		 WHERE id = ?`,
		sess.Status, sess.ConsecutiveNoCount, reveal, sess.Progress, string(clues), end, sess.UpdatedAt, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating session %s: %w", sess.ID, sql.ErrNoRows)
	}
	return nil
}

// AppendMessage appends one conversation entry.
func (s *Store) AppendMessage(ctx context.Context, m Message) (*Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now().UTC()

	meta := "{}"
	if m.Meta != nil {
		raw, err := json.Marshal(m.Meta)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		meta = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, session_id, role, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Role, m.Content, meta, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	return &m, nil
}

// ListMessages returns a session's conversation in creation order. A
// limit of zero means all messages.
func (s *Store) ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `SELECT id, session_id, role, content, metadata, created_at
		 FROM conversations WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var meta string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if meta != "" && meta != "{}" {
			var mm MessageMeta
			if err := json.Unmarshal([]byte(meta), &mm); err != nil {
				return nil, fmt.Errorf("decoding metadata: %w", err)
			}
			m.Meta = &mm
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
