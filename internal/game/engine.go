package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/openclue/soupmaster/internal/classify"
	"github.com/openclue/soupmaster/internal/config"
	"github.com/openclue/soupmaster/internal/llm"
	"github.com/openclue/soupmaster/internal/marker"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// SessionStore persists game sessions. GetSession returns (nil, nil)
// for an unknown ID.
type SessionStore interface {
	CreateSession(ctx context.Context, puzzleID, playerID string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
}

// MessageStore persists the append-only conversation log.
type MessageStore interface {
	AppendMessage(ctx context.Context, m Message) (*Message, error)
	// ListMessages returns the session's messages in creation order.
	// A limit of zero means all.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
}

// PuzzleStore resolves puzzles including their judgment aid. GetByID
// returns (nil, nil) for an unknown ID.
type PuzzleStore interface {
	GetByID(ctx context.Context, id string) (*puzzle.Puzzle, error)
}

// Engine orchestrates question/answer exchanges and owns the session
// state machine. Exchanges are serialized per session: a new question
// is rejected while the previous one is still streaming.
type Engine struct {
	sessions SessionStore
	messages MessageStore
	puzzles  PuzzleStore
	provider llm.StreamProvider
	cfg      config.Game

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewEngine creates an engine with explicit configuration; nothing is
// read from the environment.
func NewEngine(sessions SessionStore, messages MessageStore, puzzles PuzzleStore, provider llm.StreamProvider, cfg config.Game) *Engine {
	return &Engine{
		sessions: sessions,
		messages: messages,
		puzzles:  puzzles,
		provider: provider,
		cfg:      cfg,
		inFlight: map[string]struct{}{},
	}
}

// Start creates a session for the given puzzle and records the opening
// system message.
func (e *Engine) Start(ctx context.Context, puzzleID, playerID string) (*Session, *puzzle.Puzzle, error) {
	p, err := e.puzzles.GetByID(ctx, puzzleID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading puzzle: %w", err)
	}
	if p == nil {
		return nil, nil, ErrPuzzleNotFound
	}

	s, err := e.sessions.CreateSession(ctx, puzzleID, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}

	welcome := fmt.Sprintf("游戏开始！谜题：\"%s\"。请根据汤面提出是非问题来推理真相。", p.Title)
	_, err = e.messages.AppendMessage(ctx, Message{
		SessionID: s.ID,
		Role:      RoleSystem,
		Content:   welcome,
		Meta:      &MessageMeta{PuzzleID: p.ID, PuzzleTitle: p.Title},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recording welcome message: %w", err)
	}

	return s, p, nil
}

// Session returns a session and its conversation, enforcing the
// owner-or-anonymous access rule.
func (e *Engine) Session(ctx context.Context, sessionID, playerID string) (*Session, []Message, error) {
	s, err := e.loadSession(ctx, sessionID, playerID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := e.messages.ListMessages(ctx, sessionID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("loading messages: %w", err)
	}
	return s, msgs, nil
}

// Exchange runs one question/answer round: prompt construction,
// streaming generation with marker-safe relay, final extraction,
// classification, and the session-state update. Events are delivered to
// sink in order; ErrEmptyQuestion, ErrSessionEnded, ErrForbidden,
// ErrSessionNotFound and ErrExchangeInFlight are returned before any
// event is emitted.
func (e *Engine) Exchange(ctx context.Context, sessionID, playerID, question string, hintRequested bool, sink EventSink) (*ExchangeResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	s, err := e.loadSession(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, ErrSessionEnded
	}

	if err := e.acquire(sessionID); err != nil {
		return nil, err
	}
	defer e.release(sessionID)

	p, err := e.puzzles.GetByID(ctx, s.PuzzleID)
	if err != nil {
		return nil, fmt.Errorf("loading puzzle: %w", err)
	}
	if p == nil {
		return nil, ErrPuzzleNotFound
	}

	history, err := e.messages.ListMessages(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	analysis := Analyze(history, e.cfg.MaxHistoryTurns, hintRequested)
	hints := SelectHints(analysis, p.Aid, e.cfg)
	systemPrompt := BuildSystemPrompt(p, hints)
	turns := BuildTurns(systemPrompt, history, question, e.cfg.MaxHistoryTurns)

	if _, err := e.messages.AppendMessage(ctx, Message{
		SessionID: sessionID,
		Role:      RoleUser,
		Content:   question,
	}); err != nil {
		return nil, fmt.Errorf("recording question: %w", err)
	}

	if err := sink(Event{Type: EventStart, Data: StartPayload{Status: "started"}}); err != nil {
		return nil, err
	}

	raw, err := e.streamReply(ctx, turns, sink)
	if err != nil {
		ue := llm.WrapError(err, raw != "")
		log.Printf("game: generation failed for session %s: %v", sessionID, ue)
		if sinkErr := sink(Event{Type: EventError, Data: ErrorPayload{Error: ue.SafeMessage()}}); sinkErr != nil {
			return nil, sinkErr
		}
		return nil, ue
	}

	ext := marker.Extract(raw)
	category := classify.Classify(ext.Display)

	result, err := e.applyExchange(ctx, s, ext, category)
	if err != nil {
		log.Printf("game: state update failed for session %s: %v", sessionID, err)
		if sinkErr := sink(Event{Type: EventError, Data: ErrorPayload{Error: "处理请求时发生错误，请重试"}}); sinkErr != nil {
			return nil, sinkErr
		}
		return nil, err
	}

	if result.Progress != nil {
		if err := sink(Event{Type: EventProgress, Data: ProgressPayload{Progress: *result.Progress}}); err != nil {
			return nil, err
		}
	}
	if len(result.Clues) > 0 {
		if err := sink(Event{Type: EventClues, Data: CluesPayload{Clues: result.Clues}}); err != nil {
			return nil, err
		}
	}
	if result.Solved {
		if err := sink(Event{Type: EventSolved, Data: SolvedPayload{Solution: p.Solution}}); err != nil {
			return nil, err
		}
	}
	if err := sink(Event{Type: EventComplete, Data: result}); err != nil {
		return nil, err
	}

	return result, nil
}

// streamReply drives the generation stream, relaying display-safe
// fragments as chunk events while accumulating the raw text that final
// extraction runs on. The call runs under the caller's context plus the
// configured ceiling, so a disconnected consumer aborts the upstream
// request instead of letting it run to completion.
func (e *Engine) streamReply(ctx context.Context, turns []llm.Message, sink EventSink) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GenerationTimeout)
	defer cancel()

	stream, err := e.provider.StreamComplete(ctx, llm.CompletionRequest{
		Messages:         turns,
		MaxTokens:        e.cfg.MaxTokens,
		Temperature:      e.cfg.Temperature,
		TopP:             0.9,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.1,
	})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var raw strings.Builder
	var filter marker.StreamFilter
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Timeouts surface on the stream as context errors; prefer
			// the context's verdict over the transport's.
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return raw.String(), err
		}
		raw.WriteString(fragment)
		if safe := filter.Feed(fragment); safe != "" {
			if err := sink(Event{Type: EventChunk, Data: ChunkPayload{Text: safe}}); err != nil {
				return raw.String(), err
			}
		}
	}
	if tail := filter.Close(); tail != "" {
		if err := sink(Event{Type: EventChunk, Data: ChunkPayload{Text: tail}}); err != nil {
			return raw.String(), err
		}
	}
	return raw.String(), nil
}

// applyExchange folds one judged reply into the session and records the
// assistant message. Progress only ever rises, clues stay unique, and
// the negative streak either resets or advances by exactly one.
func (e *Engine) applyExchange(ctx context.Context, s *Session, ext marker.Extraction, category classify.Category) (*ExchangeResult, error) {
	if classify.Negative(ext.Display) {
		s.ConsecutiveNoCount++
	} else {
		s.ConsecutiveNoCount = 0
	}

	var progress *int
	if ext.Progress != nil {
		folded := s.Progress
		if v := clampProgress(*ext.Progress); v > folded {
			folded = v
		}
		s.Progress = folded
		progress = &folded
	}

	var newClues []string
	for _, clue := range ext.Clues {
		if !containsString(s.Clues, clue) && !containsString(newClues, clue) {
			newClues = append(newClues, clue)
		}
	}
	s.Clues = append(s.Clues, newClues...)

	solved := category == classify.Solved ||
		(ext.Progress != nil && s.Progress >= e.cfg.SolvedProgressThreshold)
	if solved {
		now := time.Now().UTC()
		s.Status = StatusCompleted
		s.EndTime = &now
	}

	if _, err := e.messages.AppendMessage(ctx, Message{
		SessionID: s.ID,
		Role:      RoleAssistant,
		Content:   ext.Display,
		Meta: &MessageMeta{
			Category: category,
			Progress: ext.Progress,
			Clues:    newClues,
		},
	}); err != nil {
		return nil, fmt.Errorf("recording reply: %w", err)
	}

	if err := e.sessions.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	return &ExchangeResult{
		Response: ext.Display,
		Category: category,
		Progress: progress,
		Clues:    newClues,
		Solved:   solved,
	}, nil
}

// Reveal ends an active session by disclosure: the player gave up and
// looked. The session completes with the reveal flag set.
func (e *Engine) Reveal(ctx context.Context, sessionID, playerID string) (*puzzle.Puzzle, error) {
	s, err := e.loadSession(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, ErrSessionEnded
	}

	p, err := e.puzzles.GetByID(ctx, s.PuzzleID)
	if err != nil {
		return nil, fmt.Errorf("loading puzzle: %w", err)
	}
	if p == nil {
		return nil, ErrPuzzleNotFound
	}

	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.RevealRequested = true
	s.EndTime = &now
	if err := e.sessions.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	_, err = e.messages.AppendMessage(ctx, Message{
		SessionID: sessionID,
		Role:      RoleSystem,
		Content:   fmt.Sprintf("玩家选择查看汤底。谜题解答：%s", p.Solution),
	})
	if err != nil {
		return nil, fmt.Errorf("recording reveal: %w", err)
	}

	return p, nil
}

// Complete marks an active session completed without disclosure, for
// callers that decide solved-ness out of band.
func (e *Engine) Complete(ctx context.Context, sessionID, playerID string) (*Session, error) {
	return e.end(ctx, sessionID, playerID, StatusCompleted)
}

// Surrender abandons an active session.
func (e *Engine) Surrender(ctx context.Context, sessionID, playerID string) (*Session, error) {
	return e.end(ctx, sessionID, playerID, StatusAbandoned)
}

func (e *Engine) end(ctx context.Context, sessionID, playerID string, status Status) (*Session, error) {
	s, err := e.loadSession(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, ErrSessionEnded
	}

	now := time.Now().UTC()
	s.Status = status
	s.EndTime = &now
	if err := e.sessions.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	return s, nil
}

func (e *Engine) loadSession(ctx context.Context, sessionID, playerID string) (*Session, error) {
	s, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.PlayerID != "" && s.PlayerID != playerID {
		return nil, ErrForbidden
	}
	return s, nil
}

func (e *Engine) acquire(sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[sessionID]; busy {
		return ErrExchangeInFlight
	}
	e.inFlight[sessionID] = struct{}{}
	return nil
}

func (e *Engine) release(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, sessionID)
}

func clampProgress(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
