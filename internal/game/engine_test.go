package game

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/openclue/soupmaster/internal/config"
	"github.com/openclue/soupmaster/internal/db"
	"github.com/openclue/soupmaster/internal/llm"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// scriptedStream replays canned fragments, then an optional error,
// then EOF.
type scriptedStream struct {
	fragments []string
	err       error
	i         int
	unblock   chan struct{}
}

func (s *scriptedStream) Recv() (string, error) {
	if s.unblock != nil {
		<-s.unblock
	}
	if s.i < len(s.fragments) {
		frag := s.fragments[s.i]
		s.i++
		return frag, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error { return nil }

type scriptedProvider struct {
	fragments []string
	streamErr error // returned by Recv after the fragments
	openErr   error // returned by StreamComplete itself

	started chan struct{} // closed when StreamComplete is called, if set
	unblock chan struct{} // gates every Recv, if set
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: strings.Join(p.fragments, "")}, nil
}

func (p *scriptedProvider) StreamComplete(ctx context.Context, req llm.CompletionRequest) (llm.Stream, error) {
	if p.started != nil {
		close(p.started)
		p.started = nil
	}
	if p.openErr != nil {
		return nil, p.openErr
	}
	return &scriptedStream{fragments: p.fragments, err: p.streamErr, unblock: p.unblock}, nil
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) sink(ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) types() []EventType {
	var out []EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *eventRecorder) chunkText() string {
	var b strings.Builder
	for _, ev := range r.events {
		if ev.Type == EventChunk {
			b.WriteString(ev.Data.(ChunkPayload).Text)
		}
	}
	return b.String()
}

func setupEngine(t *testing.T, provider llm.StreamProvider) (*Engine, *Store, *puzzle.Puzzle) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	puzzles := puzzle.NewStore(database)
	p, err := puzzles.Create(context.Background(), puzzle.Puzzle{
		Title:       "电梯",
		Description: "他每天坐电梯到十八楼。",
		Solution:    "他个子太矮，只够得到十八楼的按钮。",
	})
	if err != nil {
		t.Fatalf("Create puzzle: %v", err)
	}

	games := NewStore(database)
	engine := NewEngine(games, games, puzzles, provider, config.DefaultConfig().Game)
	return engine, games, p
}

func startSession(t *testing.T, engine *Engine, puzzleID, playerID string) *Session {
	t.Helper()
	s, _, err := engine.Start(context.Background(), puzzleID, playerID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestStartRecordsWelcome(t *testing.T) {
	engine, games, p := setupEngine(t, &scriptedProvider{})
	s := startSession(t, engine, p.ID, "")

	if s.Status != StatusActive {
		t.Errorf("expected active session, got %s", s.Status)
	}
	msgs, err := games.ListMessages(context.Background(), s.ID, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != RoleSystem {
		t.Fatalf("expected one system message, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, p.Title) {
		t.Errorf("welcome message missing puzzle title: %q", msgs[0].Content)
	}
}

func TestStartUnknownPuzzle(t *testing.T) {
	engine, _, _ := setupEngine(t, &scriptedProvider{})
	_, _, err := engine.Start(context.Background(), "no-such-puzzle", "")
	if !errors.Is(err, ErrPuzzleNotFound) {
		t.Errorf("expected ErrPuzzleNotFound, got %v", err)
	}
}

func TestExchangeFullFlow(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"是的，和电梯有关。", "[PROGRESS:3", "0%]"}}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	var rec eventRecorder
	res, err := engine.Exchange(context.Background(), s.ID, "", "和电梯有关吗？", false, rec.sink)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	if res.Response != "是的，和电梯有关。" {
		t.Errorf("unexpected response: %q", res.Response)
	}
	if res.Category != "yes" {
		t.Errorf("expected yes, got %s", res.Category)
	}
	if res.Progress == nil || *res.Progress != 30 {
		t.Errorf("expected progress 30, got %v", res.Progress)
	}
	if res.Solved {
		t.Error("should not be solved")
	}

	types := rec.types()
	if types[0] != EventStart || types[len(types)-1] != EventComplete {
		t.Errorf("unexpected event order: %v", types)
	}
	if rec.chunkText() != "是的，和电梯有关。" {
		t.Errorf("chunks leaked marker text: %q", rec.chunkText())
	}

	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Progress != 30 {
		t.Errorf("session progress not persisted: %d", sess.Progress)
	}
	if sess.Status != StatusActive {
		t.Errorf("session should stay active, got %s", sess.Status)
	}

	msgs, _ := games.ListMessages(context.Background(), s.ID, 0)
	// welcome + question + reply
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	reply := msgs[2]
	if reply.Role != RoleAssistant || reply.Content != "是的，和电梯有关。" {
		t.Errorf("unexpected reply message: %+v", reply)
	}
	if reply.Meta == nil || reply.Meta.Category != "yes" {
		t.Errorf("reply metadata missing: %+v", reply.Meta)
	}
}

func TestExchangeSolvedCompletesSession(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"恭喜破案！真相是他个子太矮。[PROGRESS:60%]"}}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	var rec eventRecorder
	res, err := engine.Exchange(context.Background(), s.ID, "", "因为他太矮按不到按钮吗？", false, rec.sink)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if !res.Solved {
		t.Fatal("expected solved result")
	}

	var sawSolved bool
	for _, ev := range rec.events {
		if ev.Type == EventSolved {
			sawSolved = true
			if ev.Data.(SolvedPayload).Solution != p.Solution {
				t.Errorf("solved event missing solution")
			}
		}
	}
	if !sawSolved {
		t.Error("no solved event emitted")
	}

	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", sess.Status)
	}
	if sess.RevealRequested {
		t.Error("reveal flag must stay clear on a solve")
	}
	if sess.EndTime == nil {
		t.Error("end time not set")
	}
}

func TestExchangeSolvedByProgressThreshold(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"是的，就是这样。[PROGRESS:95%]"}}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	var rec eventRecorder
	res, err := engine.Exchange(context.Background(), s.ID, "", "他是矮个子吗？", false, rec.sink)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if !res.Solved {
		t.Error("progress at threshold should complete the game")
	}
	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", sess.Status)
	}
}

func TestExchangeProgressNeverRegresses(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"是的。[PROGRESS:50%]"}}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	if _, err := engine.Exchange(context.Background(), s.ID, "", "q1", false, func(Event) error { return nil }); err != nil {
		t.Fatalf("first Exchange: %v", err)
	}

	provider.fragments = []string{"无关。[PROGRESS:30%]"}
	var rec eventRecorder
	res, err := engine.Exchange(context.Background(), s.ID, "", "q2", false, rec.sink)
	if err != nil {
		t.Fatalf("second Exchange: %v", err)
	}
	if res.Progress == nil || *res.Progress != 50 {
		t.Errorf("expected folded progress 50, got %v", res.Progress)
	}
	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Progress != 50 {
		t.Errorf("session progress regressed: %d", sess.Progress)
	}
}

func TestExchangeClueDedup(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"是的。[CLUE:身高很关键]"}}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	if _, err := engine.Exchange(context.Background(), s.ID, "", "q1", false, func(Event) error { return nil }); err != nil {
		t.Fatalf("first Exchange: %v", err)
	}

	provider.fragments = []string{"是的。[CLUE:身高很关键][CLUE:注意按钮位置]"}
	res, err := engine.Exchange(context.Background(), s.ID, "", "q2", false, func(Event) error { return nil })
	if err != nil {
		t.Fatalf("second Exchange: %v", err)
	}
	if len(res.Clues) != 1 || res.Clues[0] != "注意按钮位置" {
		t.Errorf("expected only the new clue, got %v", res.Clues)
	}

	sess, _ := games.GetSession(context.Background(), s.ID)
	want := []string{"身高很关键", "注意按钮位置"}
	if len(sess.Clues) != 2 || sess.Clues[0] != want[0] || sess.Clues[1] != want[1] {
		t.Errorf("expected accumulated clues %v, got %v", want, sess.Clues)
	}
}

func TestExchangeNegativeStreak(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"不是。"}}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	for i := 0; i < 3; i++ {
		if _, err := engine.Exchange(context.Background(), s.ID, "", "q", false, func(Event) error { return nil }); err != nil {
			t.Fatalf("Exchange %d: %v", i, err)
		}
	}
	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.ConsecutiveNoCount != 3 {
		t.Errorf("expected streak 3, got %d", sess.ConsecutiveNoCount)
	}

	provider.fragments = []string{"是的。"}
	if _, err := engine.Exchange(context.Background(), s.ID, "", "q", false, func(Event) error { return nil }); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	sess, _ = games.GetSession(context.Background(), s.ID)
	if sess.ConsecutiveNoCount != 0 {
		t.Errorf("expected streak reset, got %d", sess.ConsecutiveNoCount)
	}
}

func TestExchangeRejectsEmptyQuestion(t *testing.T) {
	engine, _, p := setupEngine(t, &scriptedProvider{})
	s := startSession(t, engine, p.ID, "")

	var rec eventRecorder
	_, err := engine.Exchange(context.Background(), s.ID, "", "   ", false, rec.sink)
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("no events expected, got %v", rec.types())
	}
}

func TestExchangeRejectsUnknownSession(t *testing.T) {
	engine, _, _ := setupEngine(t, &scriptedProvider{})
	_, err := engine.Exchange(context.Background(), "missing", "", "q", false, func(Event) error { return nil })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExchangeRejectsEndedSession(t *testing.T) {
	engine, _, p := setupEngine(t, &scriptedProvider{})
	s := startSession(t, engine, p.ID, "")
	if _, err := engine.Surrender(context.Background(), s.ID, ""); err != nil {
		t.Fatalf("Surrender: %v", err)
	}

	_, err := engine.Exchange(context.Background(), s.ID, "", "q", false, func(Event) error { return nil })
	if !errors.Is(err, ErrSessionEnded) {
		t.Errorf("expected ErrSessionEnded, got %v", err)
	}
}

func TestExchangeOwnership(t *testing.T) {
	engine, _, p := setupEngine(t, &scriptedProvider{fragments: []string{"是的。"}})
	s := startSession(t, engine, p.ID, "alice")

	_, err := engine.Exchange(context.Background(), s.ID, "bob", "q", false, func(Event) error { return nil })
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	if _, err := engine.Exchange(context.Background(), s.ID, "alice", "q", false, func(Event) error { return nil }); err != nil {
		t.Errorf("owner exchange failed: %v", err)
	}
}

func TestExchangeBusySession(t *testing.T) {
	provider := &scriptedProvider{
		fragments: []string{"是的。"},
		started:   make(chan struct{}),
		unblock:   make(chan struct{}),
	}
	started := provider.started
	engine, _, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	done := make(chan error, 1)
	go func() {
		_, err := engine.Exchange(context.Background(), s.ID, "", "slow question", false, func(Event) error { return nil })
		done <- err
	}()

	<-started
	_, err := engine.Exchange(context.Background(), s.ID, "", "impatient question", false, func(Event) error { return nil })
	if !errors.Is(err, ErrExchangeInFlight) {
		t.Errorf("expected ErrExchangeInFlight, got %v", err)
	}

	close(provider.unblock)
	if err := <-done; err != nil {
		t.Fatalf("first exchange failed: %v", err)
	}

	// The guard releases once the exchange finishes.
	if _, err := engine.Exchange(context.Background(), s.ID, "", "next question", false, func(Event) error { return nil }); err != nil {
		t.Errorf("follow-up exchange failed: %v", err)
	}
}

func TestExchangeStreamFailure(t *testing.T) {
	provider := &scriptedProvider{openErr: errors.New("connection refused")}
	engine, games, p := setupEngine(t, provider)
	s := startSession(t, engine, p.ID, "")

	var rec eventRecorder
	_, err := engine.Exchange(context.Background(), s.ID, "", "q", false, rec.sink)
	if err == nil {
		t.Fatal("expected error")
	}

	types := rec.types()
	if len(types) != 2 || types[0] != EventStart || types[1] != EventError {
		t.Fatalf("expected start then error, got %v", types)
	}
	msg := rec.events[1].Data.(ErrorPayload).Error
	if strings.Contains(msg, "connection refused") {
		t.Errorf("raw upstream error leaked to player: %q", msg)
	}

	// The question is recorded, the reply is not.
	msgs, _ := games.ListMessages(context.Background(), s.ID, 0)
	if len(msgs) != 2 {
		t.Errorf("expected welcome + question, got %d messages", len(msgs))
	}
	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Status != StatusActive {
		t.Errorf("failed exchange must not end the session, got %s", sess.Status)
	}
}

func TestRevealEndsSession(t *testing.T) {
	engine, games, p := setupEngine(t, &scriptedProvider{})
	s := startSession(t, engine, p.ID, "")

	got, err := engine.Reveal(context.Background(), s.ID, "")
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if got.Solution != p.Solution {
		t.Errorf("unexpected solution: %q", got.Solution)
	}

	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Status != StatusCompleted || !sess.RevealRequested {
		t.Errorf("expected completed+revealed, got %+v", sess)
	}

	msgs, _ := games.ListMessages(context.Background(), s.ID, 0)
	last := msgs[len(msgs)-1]
	if last.Role != RoleSystem || !strings.Contains(last.Content, p.Solution) {
		t.Errorf("reveal not recorded: %+v", last)
	}

	if _, err := engine.Reveal(context.Background(), s.ID, ""); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("second reveal should fail, got %v", err)
	}
}

func TestSurrenderAbandonsSession(t *testing.T) {
	engine, games, p := setupEngine(t, &scriptedProvider{})
	s := startSession(t, engine, p.ID, "")

	if _, err := engine.Surrender(context.Background(), s.ID, ""); err != nil {
		t.Fatalf("Surrender: %v", err)
	}
	sess, _ := games.GetSession(context.Background(), s.ID)
	if sess.Status != StatusAbandoned {
		t.Errorf("expected abandoned, got %s", sess.Status)
	}
	if sess.EndTime == nil {
		t.Error("end time not set")
	}
}
