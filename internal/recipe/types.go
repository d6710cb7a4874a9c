// Package recipe defines the recipe data model shared by the edit
// orchestrator, the persistence layer, and the HTTP API, plus the
// ingredient changeset algorithm used when a draft is committed as a
// new version.
package recipe

import (
	"strings"
	"time"
)

// Ingredient is a single entry in a recipe's ingredient list.
// Identity for diffing is the lower-cased Name; Quantity, Unit and
// Preparation are attributes of that slot.
type Ingredient struct {
	Name        string   `json:"name"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Preparation string   `json:"preparation,omitempty"`
}

// NormalizedName returns the diffing identity of the ingredient.
func (i Ingredient) NormalizedName() string {
	return strings.ToLower(i.Name)
}

// Equal reports full structural equality over all four fields.
func (i Ingredient) Equal(other Ingredient) bool {
	if i.Name != other.Name || i.Unit != other.Unit || i.Preparation != other.Preparation {
		return false
	}
	if (i.Quantity == nil) != (other.Quantity == nil) {
		return false
	}
	if i.Quantity != nil && *i.Quantity != *other.Quantity {
		return false
	}
	return true
}

// Recipe is the working representation of a recipe.
//
// SourceURL and ScrapedAt are provenance fields set once at import.
// The edit flow never shows them to the model and must carry them
// through to every derived draft unchanged.
type Recipe struct {
	Title       string       `json:"title"`
	Servings    *int         `json:"servings,omitempty"`
	PrepTime    string       `json:"prepTime,omitempty"`
	CookTime    string       `json:"cookTime,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tags        []string     `json:"tags,omitempty"`
	Cuisine     string       `json:"cuisine,omitempty"`
	Category    string       `json:"category,omitempty"`
	SourceURL   string       `json:"sourceUrl"`
	ScrapedAt   time.Time    `json:"scrapedAt"`
}

// Clone returns a deep copy of the recipe. The edit orchestrator works
// on a clone so a failed turn never leaks partial state to the caller.
func (r Recipe) Clone() Recipe {
	out := r
	if r.Servings != nil {
		s := *r.Servings
		out.Servings = &s
	}
	if r.Ingredients != nil {
		out.Ingredients = make([]Ingredient, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			out.Ingredients[i] = ing
			if ing.Quantity != nil {
				q := *ing.Quantity
				out.Ingredients[i].Quantity = &q
			}
		}
	}
	if r.Steps != nil {
		out.Steps = append([]string(nil), r.Steps...)
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}

// Version is an immutable snapshot of a recipe, created only at commit
// time. The changeset is computed once against the version being
// replaced and stored with the snapshot; it is a historical artifact,
// never recomputed later.
type Version struct {
	ID         string           `json:"id"`
	RecipeID   string           `json:"recipeId"`
	Recipe     Recipe           `json:"recipe"`
	EditPrompt string           `json:"editPrompt,omitempty"`
	Name       string           `json:"name,omitempty"`
	Changeset  []IngredientDiff `json:"changeset,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// DiffType tags an IngredientDiff variant.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// IngredientDiff is one entry in a version's changeset. Added and
// removed diffs carry Ingredient; modified diffs carry Before/After.
type IngredientDiff struct {
	Type       DiffType    `json:"type"`
	Ingredient *Ingredient `json:"ingredient,omitempty"`
	Before     *Ingredient `json:"before,omitempty"`
	After      *Ingredient `json:"after,omitempty"`
}
