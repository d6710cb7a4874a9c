// Package store provides SQLite-backed persistence for recipes and
// their versions. Recipes carry a mutable default-version pointer;
// versions are immutable snapshots inserted at commit time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kondate-dev/kondate/internal/log"
	"github.com/kondate-dev/kondate/internal/recipe"
)

// ErrNotFound is returned when a recipe or version does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id                 TEXT PRIMARY KEY,
	title              TEXT NOT NULL,
	source_url         TEXT NOT NULL,
	scraped_at         TEXT NOT NULL,
	default_version_id TEXT,
	created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
	id             TEXT PRIMARY KEY,
	recipe_id      TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	recipe_json    TEXT NOT NULL,
	edit_prompt    TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	changeset_json TEXT,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_versions_recipe ON versions(recipe_id);

CREATE TABLE IF NOT EXISTS tags (
	name TEXT PRIMARY KEY
);
`

// Open opens (creating if necessary) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent commits.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{db: db, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecipeRecord is a row in the recipes table.
type RecipeRecord struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	SourceURL        string    `json:"sourceUrl"`
	ScrapedAt        time.Time `json:"scrapedAt"`
	DefaultVersionID string    `json:"defaultVersionId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateRecipe imports a recipe: inserts the recipe row, its first
// version, points the default at it, and seeds the tag vocabulary
// with the recipe's tags. Returns the new recipe and version IDs.
func (s *Store) CreateRecipe(ctx context.Context, r recipe.Recipe) (recipeID, versionID string, err error) {
	recipeID = uuid.NewString()
	versionID = uuid.NewString()
	now := time.Now().UTC()

	recipeJSON, err := json.Marshal(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode recipe: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, title, source_url, scraped_at, default_version_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		recipeID, r.Title, r.SourceURL, r.ScrapedAt.UTC().Format(time.RFC3339Nano),
		versionID, now.Format(time.RFC3339Nano))
	if err != nil {
		return "", "", fmt.Errorf("failed to insert recipe: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO versions (id, recipe_id, recipe_json, created_at)
		 VALUES (?, ?, ?, ?)`,
		versionID, recipeID, string(recipeJSON), now.Format(time.RFC3339Nano))
	if err != nil {
		return "", "", fmt.Errorf("failed to insert initial version: %w", err)
	}

	for _, tag := range r.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return "", "", fmt.Errorf("failed to seed tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info("recipe imported", "recipe", recipeID, "title", r.Title)
	return recipeID, versionID, nil
}

// GetRecipe returns the recipe row for id.
func (s *Store) GetRecipe(ctx context.Context, id string) (RecipeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, source_url, scraped_at, COALESCE(default_version_id, ''), created_at
		 FROM recipes WHERE id = ?`, id)
	return scanRecipe(row)
}

// ListRecipes returns all recipe rows, newest first.
func (s *Store) ListRecipes(ctx context.Context) ([]RecipeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, source_url, scraped_at, COALESCE(default_version_id, ''), created_at
		 FROM recipes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var records []RecipeRecord
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (RecipeRecord, error) {
	var rec RecipeRecord
	var scrapedAt, createdAt string
	err := row.Scan(&rec.ID, &rec.Title, &rec.SourceURL, &scrapedAt, &rec.DefaultVersionID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RecipeRecord{}, ErrNotFound
	}
	if err != nil {
		return RecipeRecord{}, fmt.Errorf("failed to scan recipe: %w", err)
	}
	if rec.ScrapedAt, err = time.Parse(time.RFC3339Nano, scrapedAt); err != nil {
		return RecipeRecord{}, fmt.Errorf("invalid scraped_at: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return RecipeRecord{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return rec, nil
}

// CurrentRecipe returns the recipe snapshot of id's default version.
func (s *Store) CurrentRecipe(ctx context.Context, id string) (recipe.Recipe, error) {
	rec, err := s.GetRecipe(ctx, id)
	if err != nil {
		return recipe.Recipe{}, err
	}
	if rec.DefaultVersionID == "" {
		return recipe.Recipe{}, fmt.Errorf("recipe %s has no default version: %w", id, ErrNotFound)
	}
	v, err := s.GetVersion(ctx, rec.DefaultVersionID)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return v.Recipe, nil
}

// InsertVersion stores an immutable version snapshot. The changeset is
// stored as given and never recomputed.
func (s *Store) InsertVersion(ctx context.Context, recipeID string, r recipe.Recipe, editPrompt, name string, changeset []recipe.IngredientDiff) (string, error) {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return "", err
	}

	recipeJSON, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode recipe: %w", err)
	}

	var changesetJSON sql.NullString
	if changeset != nil {
		data, err := json.Marshal(changeset)
		if err != nil {
			return "", fmt.Errorf("failed to encode changeset: %w", err)
		}
		changesetJSON = sql.NullString{String: string(data), Valid: true}
	}

	versionID := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO versions (id, recipe_id, recipe_json, edit_prompt, name, changeset_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		versionID, recipeID, string(recipeJSON), editPrompt, name, changesetJSON,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to insert version: %w", err)
	}

	return versionID, nil
}

// SetDefaultVersion moves the recipe's default pointer. The version
// must belong to the recipe.
func (s *Store) SetDefaultVersion(ctx context.Context, recipeID, versionID string) error {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if v.RecipeID != recipeID {
		return fmt.Errorf("version %s does not belong to recipe %s", versionID, recipeID)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET default_version_id = ?, title = ? WHERE id = ?`,
		versionID, v.Recipe.Title, recipeID)
	if err != nil {
		return fmt.Errorf("failed to set default version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetVersion returns the version snapshot for id.
func (s *Store) GetVersion(ctx context.Context, id string) (recipe.Version, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, recipe_id, recipe_json, edit_prompt, name, changeset_json, created_at
		 FROM versions WHERE id = ?`, id)
	return scanVersion(row)
}

// ListVersions returns all versions of a recipe, oldest first.
func (s *Store) ListVersions(ctx context.Context, recipeID string) ([]recipe.Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipe_id, recipe_json, edit_prompt, name, changeset_json, created_at
		 FROM versions WHERE recipe_id = ? ORDER BY created_at ASC, id ASC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []recipe.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func scanVersion(row rowScanner) (recipe.Version, error) {
	var v recipe.Version
	var recipeJSON, createdAt string
	var changesetJSON sql.NullString
	err := row.Scan(&v.ID, &v.RecipeID, &recipeJSON, &v.EditPrompt, &v.Name, &changesetJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.Version{}, ErrNotFound
	}
	if err != nil {
		return recipe.Version{}, fmt.Errorf("failed to scan version: %w", err)
	}
	if err := json.Unmarshal([]byte(recipeJSON), &v.Recipe); err != nil {
		return recipe.Version{}, fmt.Errorf("invalid recipe_json: %w", err)
	}
	if changesetJSON.Valid {
		if err := json.Unmarshal([]byte(changesetJSON.String), &v.Changeset); err != nil {
			return recipe.Version{}, fmt.Errorf("invalid changeset_json: %w", err)
		}
	}
	if v.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return recipe.Version{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return v, nil
}

// LoadTags returns the tag vocabulary in sorted order. It is passed
// into the edit system prompt to constrain the model's tag choices.
func (s *Store) LoadTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// AddTags inserts new tags into the vocabulary, ignoring duplicates.
func (s *Store) AddTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return fmt.Errorf("failed to add tag: %w", err)
		}
	}
	return nil
}
