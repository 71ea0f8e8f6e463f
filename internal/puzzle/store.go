package puzzle

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openclue/soupmaster/internal/db"
)

// Store manages puzzle persistence.
type Store struct {
	db *db.DB
}

// NewStore creates a new puzzle store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a puzzle. An empty ID is assigned.
func (s *Store) Create(ctx context.Context, p Puzzle) (*Puzzle, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Difficulty == 0 {
		p.Difficulty = 3
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}
	var aid any
	if p.Aid != nil {
		raw, err := json.Marshal(p.Aid)
		if err != nil {
			return nil, fmt.Errorf("encoding judgment aid: %w", err)
		}
		aid = string(raw)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO puzzles (id, title, description, solution, difficulty, tags, logic_profile, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Solution, p.Difficulty, string(tags), aid, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting puzzle: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a puzzle including its judgment aid, or nil when it
// does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Puzzle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, solution, difficulty, tags, logic_profile, created_at, updated_at
		 FROM puzzles WHERE id = ?`, id)
	p, err := scanPuzzle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting puzzle: %w", err)
	}
	return p, nil
}

// ListFilter narrows a puzzle listing.
type ListFilter struct {
	Difficulty int
	Tag        string
	Limit      int
	Offset     int
}

// List returns puzzles matching the filter, newest first, plus the
// total count before paging.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Puzzle, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Difficulty > 0 {
		where += " AND difficulty = ?"
		args = append(args, filter.Difficulty)
	}
	if filter.Tag != "" {
		// tags is a JSON array of strings
		where += ` AND EXISTS (SELECT 1 FROM json_each(puzzles.tags) WHERE json_each.value = ?)`
		args = append(args, filter.Tag)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM puzzles"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting puzzles: %w", err)
	}

	query := `SELECT id, title, description, solution, difficulty, tags, logic_profile, created_at, updated_at
		 FROM puzzles` + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing puzzles: %w", err)
	}
	defer rows.Close()

	var puzzles []Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning puzzle: %w", err)
		}
		puzzles = append(puzzles, *p)
	}
	return puzzles, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPuzzle(row rowScanner) (*Puzzle, error) {
	var p Puzzle
	var tags string
	var aid sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Solution, &p.Difficulty, &tags, &aid, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if aid.Valid && aid.String != "" {
		var a JudgmentAid
		if err := json.Unmarshal([]byte(aid.String), &a); err != nil {
			return nil, fmt.Errorf("decoding judgment aid: %w", err)
		}
		p.Aid = &a
	}
	return &p, nil
}
