package share

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the share API and the public replay page.
// Creating a share requires ownership of the session; viewing one is
// public by design of the link.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/share/{sessionID}", handleCreate(store))
	r.Get("/api/share/{shareID}", handleGet(store))
	r.Get("/share/{shareID}", handlePage(store))
}

func handleCreate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		sess, err := store.games.GetSession(r.Context(), sessionID)
		if err != nil {
			http.Error(w, `{"error":"failed to load session"}`, http.StatusInternalServerError)
			return
		}
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}
		if sess.PlayerID != "" && sess.PlayerID != r.Header.Get("X-Player-ID") {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}

		shareID, err := store.CreateShare(r.Context(), sessionID)
		if err != nil {
			http.Error(w, `{"error":"failed to create share"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"share_id":  shareID,
			"share_url": "/share/" + shareID,
		})
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := resolve(store, w, r)
		if view == nil || err != nil {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(view)
	}
}

func handlePage(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := resolve(store, w, r)
		if view == nil || err != nil {
			return
		}
		page, err := RenderTranscript(view)
		if err != nil {
			http.Error(w, "failed to render replay", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

// resolve loads the shared view, writing the error response itself on
// failure. A nil view with a nil error means not found (already
// reported).
func resolve(store *Store, w http.ResponseWriter, r *http.Request) (*View, error) {
	view, err := store.Resolve(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		http.Error(w, `{"error":"failed to load share"}`, http.StatusInternalServerError)
		return nil, err
	}
	if view == nil {
		http.Error(w, `{"error":"share not found"}`, http.StatusNotFound)
		return nil, nil
	}
	return view, nil
}
