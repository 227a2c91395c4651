// Package server exposes the catalog over a small REST API. It is a thin
// read-only layer: all extraction logic lives in pkg/extract and all query
// logic in pkg/catalog.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gnana997/storydex/pkg/catalog"
)

// Server serves catalog queries over HTTP.
type Server struct {
	store  *catalog.Store
	query  *catalog.QueryService
	logger *slog.Logger
	http   *http.Server

	// reload refreshes the store when the backing catalog file changed on
	// disk. Nil disables lazy reloading.
	reload func() error
}

// New creates a server over the given store. catalogPath, when non-empty,
// enables lazy reloading of the catalog file before each request.
func New(store *catalog.Store, catalogPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  store,
		query:  catalog.NewQueryService(store),
		logger: logger,
	}
	if catalogPath != "" {
		s.reload = func() error {
			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}
			store.ReplaceFrom(cat, catalogPath)
			return nil
		}
	}
	return s
}

// Routes builds the router. Exposed separately so tests can drive handlers
// through httptest without binding a port.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/stories", s.handleListStories)
	r.Get("/api/stories/{id}", s.handleGetStory)
	return r
}

// ListenAndServe starts serving on addr and blocks until ctx is cancelled
// or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errChan <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// cors allows browser tooling on other origins to read the API. Hand-rolled
// because the API is read-only and needs none of the preflight knobs a
// middleware package configures.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ensureFresh reloads the catalog when its backing file changed since load.
func (s *Server) ensureFresh() {
	if s.reload == nil || s.store.Fresh() {
		return
	}
	if err := s.reload(); err != nil {
		s.logger.Warn("failed to reload catalog", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.ensureFresh()

	status := map[string]any{
		"status": "ok",
	}
	if cat, ok := s.store.Get(); ok {
		status["totalStories"] = cat.TotalStories
		status["extractedFrom"] = cat.ExtractedFrom
		status["generatedAt"] = cat.GeneratedAt
	} else {
		status["totalStories"] = 0
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	s.ensureFresh()

	titlePrefix := r.URL.Query().Get("title")
	keyword := r.URL.Query().Get("q")

	stories := s.query.ListStories(titlePrefix, keyword)
	if stories == nil {
		stories = []catalog.StoryRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"totalStories": len(stories),
		"stories":      stories,
	})
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	s.ensureFresh()

	id := chi.URLParam(r, "id")
	rec, ok := s.query.GetStory(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("story not found: %s", id))
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
