package game

import (
	"context"
	"testing"
	"time"

	"github.com/openclue/soupmaster/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func createTestPuzzle(t *testing.T, store *Store) string {
	t.Helper()
	// Sessions reference puzzles; insert one directly.
	_, err := store.db.ExecContext(context.Background(),
		`INSERT INTO puzzles (id, title, description, solution, difficulty, tags, created_at, updated_at)
		 VALUES ('p1', '电梯', '汤面', '汤底', 3, '[]', ?, ?)`,
		time.Now().UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("inserting puzzle: %v", err)
	}
	return "p1"
}

func TestCreateAndGetSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	puzzleID := createTestPuzzle(t, store)

	created, err := store.CreateSession(ctx, puzzleID, "alice")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" {
		t.Error("expected non-empty ID")
	}
	if created.Status != StatusActive {
		t.Errorf("expected active, got %s", created.Status)
	}

	fetched, err := store.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if fetched.PuzzleID != puzzleID || fetched.PlayerID != "alice" {
		t.Errorf("unexpected session: %+v", fetched)
	}
	if fetched.Progress != 0 || fetched.ConsecutiveNoCount != 0 || fetched.RevealRequested {
		t.Errorf("fresh session carries state: %+v", fetched)
	}
	if len(fetched.Clues) != 0 {
		t.Errorf("expected no clues, got %v", fetched.Clues)
	}
}

func TestGetSessionMissing(t *testing.T) {
	store := setupTestStore(t)
	s, err := store.GetSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil, got %+v", s)
	}
}

func TestUpdateSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	puzzleID := createTestPuzzle(t, store)

	s, _ := store.CreateSession(ctx, puzzleID, "")
	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.Progress = 95
	s.ConsecutiveNoCount = 2
	s.RevealRequested = true
	s.Clues = []string{"身高很关键", "排除：电梯故障"}
	s.EndTime = &now

	if err := store.UpdateSession(ctx, s); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	fetched, _ := store.GetSession(ctx, s.ID)
	if fetched.Status != StatusCompleted || fetched.Progress != 95 {
		t.Errorf("update not persisted: %+v", fetched)
	}
	if !fetched.RevealRequested || fetched.ConsecutiveNoCount != 2 {
		t.Errorf("flags not persisted: %+v", fetched)
	}
	if len(fetched.Clues) != 2 || fetched.Clues[1] != "排除：电梯故障" {
		t.Errorf("clues not persisted: %v", fetched.Clues)
	}
	if fetched.EndTime == nil {
		t.Error("end time not persisted")
	}
}

func TestUpdateMissingSession(t *testing.T) {
	store := setupTestStore(t)
	err := store.UpdateSession(context.Background(), &Session{ID: "missing", Clues: []string{}})
	if err == nil {
		t.Error("expected error updating a missing session")
	}
}

func TestAppendAndListMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	puzzleID := createTestPuzzle(t, store)
	s, _ := store.CreateSession(ctx, puzzleID, "")

	progress := 30
	inputs := []Message{
		{SessionID: s.ID, Role: RoleSystem, Content: "游戏开始"},
		{SessionID: s.ID, Role: RoleUser, Content: "和电梯有关吗？"},
		{SessionID: s.ID, Role: RoleAssistant, Content: "是的。", Meta: &MessageMeta{
			Category: "yes",
			Progress: &progress,
			Clues:    []string{"电梯相关"},
		}},
	}
	for _, m := range inputs {
		if _, err := store.AppendMessage(ctx, m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	msgs, err := store.ListMessages(ctx, s.ID, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.Role != inputs[i].Role || m.Content != inputs[i].Content {
			t.Errorf("message %d out of order: %+v", i, m)
		}
	}
	meta := msgs[2].Meta
	if meta == nil || meta.Category != "yes" || meta.Progress == nil || *meta.Progress != 30 {
		t.Errorf("metadata not round-tripped: %+v", meta)
	}
	if msgs[0].Meta != nil {
		t.Errorf("expected nil metadata, got %+v", msgs[0].Meta)
	}
}

func TestListMessagesLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	puzzleID := createTestPuzzle(t, store)
	s, _ := store.CreateSession(ctx, puzzleID, "")

	for i := 0; i < 5; i++ {
		if _, err := store.AppendMessage(ctx, Message{SessionID: s.ID, Role: RoleUser, Content: "q"}); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	msgs, err := store.ListMessages(ctx, s.ID, 2)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %d", len(msgs))
	}
}
