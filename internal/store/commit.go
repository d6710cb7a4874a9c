package store

import (
	"context"

	"github.com/kondate-dev/kondate/internal/log"
	"github.com/kondate-dev/kondate/internal/recipe"
)

// VersionNamer produces a short label for a new version. Implemented
// by namer.Namer; stubbed in tests.
type VersionNamer interface {
	Name(ctx context.Context, editPrompt string, before, after recipe.Recipe) (string, error)
}

// Committer turns an accepted edit result into a stored version: it
// computes the ingredient changeset against the version being
// replaced, asks for a version name, inserts the snapshot, and moves
// the default pointer.
type Committer struct {
	store  *Store
	namer  VersionNamer
	logger log.Logger
}

// NewCommitter creates a Committer. namer may be nil, in which case
// versions are committed unnamed.
func NewCommitter(s *Store, namer VersionNamer, logger log.Logger) *Committer {
	if logger == nil {
		logger = log.Default()
	}
	return &Committer{store: s, namer: namer, logger: logger}
}

// Commit stores edited as a new version of recipeID and makes it the
// default. The changeset compares the outgoing default version's
// ingredients against edited's; it is computed once here and stored
// with the version. A naming failure degrades to an unnamed version
// and never blocks the commit.
func (c *Committer) Commit(ctx context.Context, recipeID string, edited recipe.Recipe, editPrompt string) (recipe.Version, error) {
	before, err := c.store.CurrentRecipe(ctx, recipeID)
	if err != nil {
		return recipe.Version{}, err
	}

	// Provenance is fixed at import; an edited payload can never move it.
	edited.SourceURL = before.SourceURL
	edited.ScrapedAt = before.ScrapedAt

	changeset := recipe.ComputeChangeset(before.Ingredients, edited.Ingredients)

	var name string
	if c.namer != nil {
		name, err = c.namer.Name(ctx, editPrompt, before, edited)
		if err != nil {
			c.logger.Warn("version naming failed, committing unnamed", "recipe", recipeID, "error", err)
			name = ""
		}
	}

	versionID, err := c.store.InsertVersion(ctx, recipeID, edited, editPrompt, name, changeset)
	if err != nil {
		return recipe.Version{}, err
	}
	if err := c.store.SetDefaultVersion(ctx, recipeID, versionID); err != nil {
		return recipe.Version{}, err
	}

	// Any new tags the edit introduced join the vocabulary.
	if err := c.store.AddTags(ctx, edited.Tags...); err != nil {
		c.logger.Warn("failed to record tags", "recipe", recipeID, "error", err)
	}

	c.logger.Info("version committed", "recipe", recipeID, "version", versionID, "name", name)
	return c.store.GetVersion(ctx, versionID)
}
