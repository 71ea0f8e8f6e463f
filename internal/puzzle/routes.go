package puzzle

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the read-only puzzle API. Authoring happens
// outside this service; the import CLI writes directly to the store.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/puzzles", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGet(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Limit: 20}
		if v := r.URL.Query().Get("difficulty"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Difficulty = n
			}
		}
		if v := r.URL.Query().Get("tag"); v != "" {
			filter.Tag = v
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = n
			}
		}
		if v := r.URL.Query().Get("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 1 {
				filter.Offset = (n - 1) * filter.Limit
			}
		}

		puzzles, total, err := store.List(r.Context(), filter)
		if err != nil {
			http.Error(w, `{"error":"failed to list puzzles"}`, http.StatusInternalServerError)
			return
		}

		views := make([]Public, 0, len(puzzles))
		for i := range puzzles {
			views = append(views, puzzles[i].PublicView())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":  views,
			"total": total,
		})
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"failed to get puzzle"}`, http.StatusInternalServerError)
			return
		}
		if p == nil {
			http.Error(w, `{"error":"puzzle not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p.PublicView())
	}
}
