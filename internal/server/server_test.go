package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kondate-dev/kondate/internal/agent"
	"github.com/kondate-dev/kondate/internal/log"
	"github.com/kondate-dev/kondate/internal/recipe"
	"github.com/kondate-dev/kondate/internal/store"
)

// scriptedEditor replays a fixed event sequence for any edit request.
type scriptedEditor struct {
	events  []agent.Event
	lastReq struct {
		current     recipe.Recipe
		history     []agent.Message
		prompt      string
		allowedTags []string
	}
}

func (s *scriptedEditor) RunEditTurn(_ context.Context, current recipe.Recipe, history []agent.Message, prompt string, allowedTags []string) <-chan agent.Event {
	s.lastReq.current = current
	s.lastReq.history = history
	s.lastReq.prompt = prompt
	s.lastReq.allowedTags = allowedTags

	ch := make(chan agent.Event)
	go func() {
		for _, ev := range s.events {
			ch <- ev
		}
		close(ch)
	}()
	return ch
}

func newTestServer(t *testing.T, editor EditRunner) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "kondate.db"), store.WithLogger(log.NewNoop()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	committer := store.NewCommitter(st, nil, log.NewNoop())
	return New(st, editor, committer, WithLogger(log.NewNoop())), st
}

func importTestRecipe(t *testing.T, st *store.Store) string {
	t.Helper()
	q := 2.0
	recipeID, _, err := st.CreateRecipe(context.Background(), recipe.Recipe{
		Title:       "Carbonara",
		Ingredients: []recipe.Ingredient{{Name: "egg", Quantity: &q}},
		Steps:       []string{"boil", "mix"},
		Tags:        []string{"italian"},
		SourceURL:   "https://example.com/carbonara",
		ScrapedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return recipeID
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestImportAndGetRecipe(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedEditor{})
	handler := srv.Handler()

	rr := doJSON(t, handler, "POST", "/api/recipes", map[string]any{
		"recipe": map[string]any{
			"title":       "Ramen",
			"sourceUrl":   "https://example.com/ramen",
			"ingredients": []any{map[string]any{"name": "noodles"}},
			"steps":       []any{"cook"},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		ID        string `json:"id"`
		VersionID string `json:"versionId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rr = doJSON(t, handler, "GET", "/api/recipes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		DefaultVersionID string        `json:"defaultVersionId"`
		Recipe           recipe.Recipe `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.VersionID, got.DefaultVersionID)
	assert.Equal(t, "Ramen", got.Recipe.Title)
}

func TestImportRejectsMissingProvenance(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedEditor{})

	rr := doJSON(t, srv.Handler(), "POST", "/api/recipes", map[string]any{
		"recipe": map[string]any{"title": "No Source"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetRecipeNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedEditor{})

	rr := doJSON(t, srv.Handler(), "GET", "/api/recipes/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEditStreamsNDJSON(t *testing.T) {
	edited := recipe.Recipe{Title: "Vegan Carbonara", SourceURL: "https://example.com/carbonara"}
	editor := &scriptedEditor{events: []agent.Event{
		{Type: agent.EventProgress, Label: "Updating ingredients"},
		{Type: agent.EventProgress, Label: "Finishing up"},
		{Type: agent.EventResult, Recipe: &edited},
	}}
	srv, st := newTestServer(t, editor)
	recipeID := importTestRecipe(t, st)

	rr := doJSON(t, srv.Handler(), "POST", "/api/recipes/"+recipeID+"/edit", map[string]any{
		"prompt":  "make it vegan",
		"history": []map[string]string{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-ndjson", rr.Header().Get("Content-Type"))

	// One JSON record per line, terminal event last, no sentinel.
	scanner := bufio.NewScanner(rr.Body)
	var lines []agent.Event
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var ev agent.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		lines = append(lines, ev)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, agent.EventProgress, lines[0].Type)
	assert.Equal(t, "Updating ingredients", lines[0].Label)
	assert.Equal(t, agent.EventResult, lines[2].Type)
	assert.Equal(t, "Vegan Carbonara", lines[2].Recipe.Title)

	// The editor saw the default version's recipe and the stored tags.
	assert.Equal(t, "Carbonara", editor.lastReq.current.Title)
	assert.Equal(t, "make it vegan", editor.lastReq.prompt)
	assert.Equal(t, []string{"italian"}, editor.lastReq.allowedTags)
	require.Len(t, editor.lastReq.history, 1)
}

func TestEditRequiresPrompt(t *testing.T) {
	srv, st := newTestServer(t, &scriptedEditor{})
	recipeID := importTestRecipe(t, st)

	rr := doJSON(t, srv.Handler(), "POST", "/api/recipes/"+recipeID+"/edit", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditUnknownRecipe(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedEditor{})

	rr := doJSON(t, srv.Handler(), "POST", "/api/recipes/missing/edit", map[string]any{
		"prompt": "edit",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCommitFlow(t *testing.T) {
	srv, st := newTestServer(t, &scriptedEditor{})
	recipeID := importTestRecipe(t, st)

	rr := doJSON(t, srv.Handler(), "POST", "/api/recipes/"+recipeID+"/commit", map[string]any{
		"editPrompt": "make it vegan",
		"recipe": map[string]any{
			"title":       "Vegan Carbonara",
			"ingredients": []any{map[string]any{"name": "tofu"}},
			"steps":       []any{"mix tofu"},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var v recipe.Version
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, "Vegan Carbonara", v.Recipe.Title)
	assert.Equal(t, "make it vegan", v.EditPrompt)
	require.Len(t, v.Changeset, 2)

	// The commit moved the default pointer.
	rec, err := st.GetRecipe(context.Background(), recipeID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, rec.DefaultVersionID)
}

func TestSetDefaultVersion(t *testing.T) {
	srv, st := newTestServer(t, &scriptedEditor{})
	recipeID := importTestRecipe(t, st)
	handler := srv.Handler()

	versions, err := st.ListVersions(context.Background(), recipeID)
	require.NoError(t, err)
	firstVersion := versions[0].ID

	// Commit a second version, then roll back to the first.
	rr := doJSON(t, handler, "POST", "/api/recipes/"+recipeID+"/commit", map[string]any{
		"recipe": map[string]any{"title": "V2", "ingredients": []any{}, "steps": []any{}},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, handler, "POST", "/api/recipes/"+recipeID+"/default", map[string]any{
		"versionId": firstVersion,
	})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rec, err := st.GetRecipe(context.Background(), recipeID)
	require.NoError(t, err)
	assert.Equal(t, firstVersion, rec.DefaultVersionID)
}

func TestListVersionsEndpoint(t *testing.T) {
	srv, st := newTestServer(t, &scriptedEditor{})
	recipeID := importTestRecipe(t, st)

	rr := doJSON(t, srv.Handler(), "GET", "/api/recipes/"+recipeID+"/versions", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var versions []recipe.Version
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &versions))
	assert.Len(t, versions, 1)
}

func TestTagsEndpoint(t *testing.T) {
	srv, st := newTestServer(t, &scriptedEditor{})
	importTestRecipe(t, st)

	rr := doJSON(t, srv.Handler(), "GET", "/api/tags", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var tags []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tags))
	assert.Equal(t, []string{"italian"}, tags)
}

func TestListRecipesEmpty(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedEditor{})

	rr := doJSON(t, srv.Handler(), "GET", "/api/recipes", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}
