package game

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func setupRouter(t *testing.T, provider *scriptedProvider) (chi.Router, *Engine, string) {
	t.Helper()
	engine, _, p := setupEngine(t, provider)
	r := chi.NewRouter()
	RegisterRoutes(r, engine)
	return r, engine, p.ID
}

func TestStartRoute(t *testing.T) {
	r, _, puzzleID := setupRouter(t, &scriptedProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/game/start", strings.NewReader(`{"puzzle_id":"`+puzzleID+`"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Session Session `json:"session"`
		Puzzle  struct {
			Title string `json:"title"`
		} `json:"puzzle"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Session.ID == "" || resp.Session.Status != StatusActive {
		t.Errorf("unexpected session: %+v", resp.Session)
	}
	if resp.Puzzle.Title == "" {
		t.Error("puzzle view missing")
	}
}

func TestStartRouteUnknownPuzzle(t *testing.T) {
	r, _, _ := setupRouter(t, &scriptedProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/game/start", strings.NewReader(`{"puzzle_id":"missing"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestChatRouteStreamsSSE(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"是的，和电梯有关。", "[PROGRESS:3", "0%]"}}
	r, engine, puzzleID := setupRouter(t, provider)
	s := startSession(t, engine, puzzleID, "")

	req := httptest.NewRequest(http.MethodPost, "/api/game/"+s.ID+"/chat", strings.NewReader(`{"message":"和电梯有关吗？"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{"event: start", "event: chunk", "event: progress", "event: complete"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "PROGRESS:") {
		t.Errorf("marker text leaked into the stream:\n%s", body)
	}
}

func TestChatRouteErrorsBeforeStream(t *testing.T) {
	r, engine, puzzleID := setupRouter(t, &scriptedProvider{})
	s := startSession(t, engine, puzzleID, "")

	cases := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"empty question", "/api/game/" + s.ID + "/chat", `{"message":"  "}`, http.StatusBadRequest},
		{"unknown session", "/api/game/missing/chat", `{"message":"q"}`, http.StatusNotFound},
		{"bad body", "/api/game/" + s.ID + "/chat", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.target, strings.NewReader(tc.body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.status, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: expected JSON error, got %q", tc.name, ct)
		}
	}
}

func TestChatRouteForbidden(t *testing.T) {
	r, engine, puzzleID := setupRouter(t, &scriptedProvider{fragments: []string{"是的。"}})
	s := startSession(t, engine, puzzleID, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/game/"+s.ID+"/chat", strings.NewReader(`{"message":"q"}`))
	req.Header.Set("X-Player-ID", "bob")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestChatRouteEndedSession(t *testing.T) {
	r, engine, puzzleID := setupRouter(t, &scriptedProvider{})
	s := startSession(t, engine, puzzleID, "")
	if _, err := engine.Surrender(context.Background(), s.ID, ""); err != nil {
		t.Fatalf("Surrender: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/game/"+s.ID+"/chat", strings.NewReader(`{"message":"q"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSessionRoute(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"是的。"}}
	r, engine, puzzleID := setupRouter(t, provider)
	s := startSession(t, engine, puzzleID, "")
	if _, err := engine.Exchange(context.Background(), s.ID, "", "q", false, func(Event) error { return nil }); err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/game/session/"+s.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Session  Session   `json:"session"`
		Messages []Message `json:"messages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Session.ID != s.ID {
		t.Errorf("unexpected session: %+v", resp.Session)
	}
	// welcome + question + reply
	if len(resp.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(resp.Messages))
	}
}

func TestRevealRoute(t *testing.T) {
	r, engine, puzzleID := setupRouter(t, &scriptedProvider{})
	s := startSession(t, engine, puzzleID, "")

	req := httptest.NewRequest(http.MethodPost, "/api/game/"+s.ID+"/reveal", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["solution"] == "" || resp["puzzle_title"] == "" {
		t.Errorf("unexpected reveal payload: %v", resp)
	}
}

func TestSurrenderRoute(t *testing.T) {
	r, engine, puzzleID := setupRouter(t, &scriptedProvider{})
	s := startSession(t, engine, puzzleID, "")

	req := httptest.NewRequest(http.MethodPost, "/api/game/"+s.ID+"/surrender", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Session Session `json:"session"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Session.Status != StatusAbandoned {
		t.Errorf("expected abandoned, got %s", resp.Session.Status)
	}
}
