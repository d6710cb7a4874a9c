package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kondate-dev/kondate/internal/recipe"
)

// promptRecipe is the model-facing view of a recipe: everything except
// the provenance fields, which the model never sees.
type promptRecipe struct {
	Title       string              `json:"title"`
	Servings    *int                `json:"servings,omitempty"`
	PrepTime    string              `json:"prepTime,omitempty"`
	CookTime    string              `json:"cookTime,omitempty"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	Tags        []string            `json:"tags,omitempty"`
	Cuisine     string              `json:"cuisine,omitempty"`
	Category    string              `json:"category,omitempty"`
}

func buildSystemPrompt(current recipe.Recipe, allowedTags []string) string {
	view := promptRecipe{
		Title:       current.Title,
		Servings:    current.Servings,
		PrepTime:    current.PrepTime,
		CookTime:    current.CookTime,
		Ingredients: current.Ingredients,
		Steps:       current.Steps,
		Tags:        current.Tags,
		Cuisine:     current.Cuisine,
		Category:    current.Category,
	}
	recipeJSON, _ := json.MarshalIndent(view, "", "  ")

	var b strings.Builder
	b.WriteString(`You are a recipe editing assistant. The user asks for changes in plain language; you apply them by calling tools that modify the recipe.

You have five tools available:
1. update_ingredients: Replace the full ingredient list
2. update_steps: Replace the full step list
3. update_metadata: Change title, servings, times, cuisine, category, or tags (only the fields you include)
4. ask_clarification: Ask the user a question when the request is ambiguous, then stop
5. finalize: Submit the complete edited recipe when you are done

Guidelines:
- Make the requested change and keep everything else as it is
- Scale quantities consistently when changing servings
- update_ingredients and update_steps replace the whole list, so always return every entry
- When the edit is complete, call finalize with the full recipe
- If the request cannot be interpreted, call ask_clarification instead of guessing
`)

	if len(allowedTags) > 0 {
		fmt.Fprintf(&b, "\nOnly use tags from this vocabulary: %s\n", strings.Join(allowedTags, ", "))
	}

	fmt.Fprintf(&b, "\nCurrent recipe:\n%s\n", recipeJSON)

	return b.String()
}
