package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the game API on the given router. Players are
// identified by the optional X-Player-ID header; sessions created
// without one are anonymous and open to any caller.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Route("/api/game", func(r chi.Router) {
		r.Post("/start", handleStart(engine))
		r.Get("/session/{sessionID}", handleSession(engine))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Post("/chat", handleChat(engine))
			r.Get("/messages", handleMessages(engine))
			r.Post("/reveal", handleReveal(engine))
			r.Post("/surrender", handleSurrender(engine))
		})
	})
}

func playerID(r *http.Request) string {
	return r.Header.Get("X-Player-ID")
}

func handleStart(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PuzzleID string `json:"puzzle_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PuzzleID == "" {
			writeError(w, http.StatusBadRequest, "puzzle_id is required")
			return
		}

		sess, p, err := engine.Start(r.Context(), req.PuzzleID, playerID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"session": sess,
			"puzzle":  p.PublicView(),
		})
	}
}

func handleSession(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, messages, err := engine.Session(r.Context(), chi.URLParam(r, "sessionID"), playerID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session":  sess,
			"messages": messages,
		})
	}
}

func handleMessages(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, messages, err := engine.Session(r.Context(), chi.URLParam(r, "sessionID"), playerID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
	}
}

// handleChat runs one question/answer exchange and streams the host's
// reply as server-sent events. Validation failures are reported as
// plain JSON errors; once the first event is written the response is
// committed as an SSE stream and any later failure arrives as an
// error event.
func handleChat(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message       string `json:"message"`
			HintRequested bool   `json:"hint_requested"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sink := &sseWriter{w: w}
		_, err := engine.Exchange(r.Context(), chi.URLParam(r, "sessionID"), playerID(r), req.Message, req.HintRequested, sink.send)
		if err != nil && !sink.started {
			writeEngineError(w, err)
		}
	}
}

func handleReveal(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := engine.Reveal(r.Context(), chi.URLParam(r, "sessionID"), playerID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"solution":     p.Solution,
			"puzzle_title": p.Title,
		})
	}
}

func handleSurrender(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := engine.Surrender(r.Context(), chi.URLParam(r, "sessionID"), playerID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
	}
}

// sseWriter lazily switches the response into an SSE stream on the
// first event, so that pre-stream failures can still use plain HTTP
// status codes.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) send(ev Event) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.flusher, _ = s.w.(http.Flusher)
		s.started = true
	}

	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionEnded):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrPuzzleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrExchangeInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
