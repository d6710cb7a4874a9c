// Package server exposes the recipe editing service over HTTP. An edit
// request is answered with a persistent line-delimited JSON stream of
// agent events; everything else is plain request/response JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kondate-dev/kondate/internal/agent"
	"github.com/kondate-dev/kondate/internal/log"
	"github.com/kondate-dev/kondate/internal/recipe"
	"github.com/kondate-dev/kondate/internal/store"
)

// EditRunner runs one edit turn and streams its events. Implemented by
// agent.Editor; stubbed in tests.
type EditRunner interface {
	RunEditTurn(ctx context.Context, current recipe.Recipe, history []agent.Message, prompt string, allowedTags []string) <-chan agent.Event
}

// Server holds the service's HTTP handlers.
type Server struct {
	store     *store.Store
	editor    EditRunner
	committer *store.Committer
	logger    log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server.
func New(st *store.Store, editor EditRunner, committer *store.Committer, opts ...Option) *Server {
	s := &Server{
		store:     st,
		editor:    editor,
		committer: committer,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/recipes", s.handleImport)
	mux.HandleFunc("GET /api/recipes", s.handleListRecipes)
	mux.HandleFunc("GET /api/recipes/{id}", s.handleGetRecipe)
	mux.HandleFunc("GET /api/recipes/{id}/versions", s.handleListVersions)
	mux.HandleFunc("POST /api/recipes/{id}/edit", s.handleEdit)
	mux.HandleFunc("POST /api/recipes/{id}/commit", s.handleCommit)
	mux.HandleFunc("POST /api/recipes/{id}/default", s.handleSetDefault)
	mux.HandleFunc("GET /api/tags", s.handleTags)
	return mux
}

type importRequest struct {
	Recipe recipe.Recipe `json:"recipe"`
}

type importResponse struct {
	ID        string `json:"id"`
	VersionID string `json:"versionId"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Recipe.Title == "" || req.Recipe.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "recipe requires title and sourceUrl")
		return
	}
	if req.Recipe.ScrapedAt.IsZero() {
		req.Recipe.ScrapedAt = time.Now().UTC()
	}

	recipeID, versionID, err := s.store.CreateRecipe(r.Context(), req.Recipe)
	if err != nil {
		s.logger.Error("import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import recipe")
		return
	}

	writeJSON(w, http.StatusCreated, importResponse{ID: recipeID, VersionID: versionID})
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecipes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	if records == nil {
		records = []store.RecipeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.store.GetRecipe(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	current, err := s.store.CurrentRecipe(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":               rec.ID,
		"defaultVersionId": rec.DefaultVersionID,
		"createdAt":        rec.CreatedAt,
		"recipe":           current,
	})
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.GetRecipe(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	versions, err := s.store.ListVersions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list versions")
		return
	}
	if versions == nil {
		versions = []recipe.Version{}
	}
	writeJSON(w, http.StatusOK, versions)
}

type editRequest struct {
	Prompt  string          `json:"prompt"`
	History []agent.Message `json:"history"`
}

// handleEdit streams one edit turn as newline-delimited JSON. Each
// event is one line; stream end is connection close, with no sentinel
// record.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	id := r.PathValue("id")
	current, err := s.store.CurrentRecipe(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	allowedTags, err := s.store.LoadTags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load tags")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	// Detach the turn from the client connection: a disconnect must not
	// abort the in-flight model call. The turn completes internally and
	// the remaining events are drained unobserved.
	turnCtx := context.WithoutCancel(r.Context())
	events := s.editor.RunEditTurn(turnCtx, current, req.History, req.Prompt, allowedTags)

	enc := json.NewEncoder(w)
	writeFailed := false
	for ev := range events {
		if writeFailed {
			continue // keep draining so the turn can finish
		}
		if err := enc.Encode(ev); err != nil {
			s.logger.Debug("client detached mid-turn", "recipe", id)
			writeFailed = true
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

type commitRequest struct {
	Recipe     recipe.Recipe `json:"recipe"`
	EditPrompt string        `json:"editPrompt"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Recipe.Title == "" {
		writeError(w, http.StatusBadRequest, "recipe requires title")
		return
	}

	version, err := s.committer.Commit(r.Context(), r.PathValue("id"), req.Recipe, req.EditPrompt)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

type setDefaultRequest struct {
	VersionID string `json:"versionId"`
}

func (s *Server) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var req setDefaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VersionID == "" {
		writeError(w, http.StatusBadRequest, "versionId is required")
		return
	}

	if err := s.store.SetDefaultVersion(r.Context(), r.PathValue("id"), req.VersionID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.LoadTags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("request failed: %v", err))
}
