package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kondate-dev/kondate/internal/llm"
	"github.com/kondate-dev/kondate/internal/recipe"
)

// Tool names the model may invoke during an edit turn.
const (
	ToolUpdateIngredients = "update_ingredients"
	ToolUpdateSteps       = "update_steps"
	ToolUpdateMetadata    = "update_metadata"
	ToolAskClarification  = "ask_clarification"
	ToolFinalize          = "finalize"
)

// draft is the working copy of a recipe during one edit turn. It is
// exclusively owned by the turn loop; tool effects apply to it strictly
// sequentially as the model invokes them.
type draft struct {
	recipe recipe.Recipe

	// Provenance captured at turn start. The model is never shown these
	// fields and cannot overwrite them; finalize re-attaches them.
	sourceURL string
	scrapedAt time.Time

	mutated   bool
	finalized bool
	question  string // set by ask_clarification
}

func newDraft(current recipe.Recipe) *draft {
	return &draft{
		recipe:    current.Clone(),
		sourceURL: current.SourceURL,
		scrapedAt: current.ScrapedAt,
	}
}

// toolHandler pairs a tool's model-facing definition with its typed
// effect on the draft. apply decodes and validates its input before
// touching the draft; on error the draft is untouched.
type toolHandler struct {
	def   llm.ToolDef
	apply func(args json.RawMessage, d *draft) (label string, err error)
}

// registry is the closed dispatch table of edit tools. Immutable after
// construction; shared freely across concurrent turns.
type registry struct {
	order   []string
	handler map[string]toolHandler
}

func (r *registry) defs() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.handler[name].def)
	}
	return defs
}

func (r *registry) lookup(name string) (toolHandler, bool) {
	h, ok := r.handler[name]
	return h, ok
}

type updateIngredientsInput struct {
	Ingredients []recipe.Ingredient `json:"ingredients"`
}

type updateStepsInput struct {
	Steps []string `json:"steps"`
}

// updateMetadataInput uses pointers so that only fields present in the
// model's input are applied; absent fields leave the draft untouched.
type updateMetadataInput struct {
	Title    *string   `json:"title"`
	Servings *int      `json:"servings"`
	PrepTime *string   `json:"prepTime"`
	CookTime *string   `json:"cookTime"`
	Cuisine  *string   `json:"cuisine"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

type askClarificationInput struct {
	Question string `json:"question"`
}

// finalizeInput is a complete recipe without the provenance fields;
// the effect re-attaches SourceURL/ScrapedAt from the draft.
type finalizeInput struct {
	Title       string              `json:"title"`
	Servings    *int                `json:"servings"`
	PrepTime    string              `json:"prepTime"`
	CookTime    string              `json:"cookTime"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	Tags        []string            `json:"tags"`
	Cuisine     string              `json:"cuisine"`
	Category    string              `json:"category"`
}

var ingredientSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":        map[string]any{"type": "string"},
		"quantity":    map[string]any{"type": "number"},
		"unit":        map[string]any{"type": "string"},
		"preparation": map[string]any{"type": "string"},
	},
	"required": []string{"name"},
}

// newRegistry builds the edit-tool dispatch table.
func newRegistry() *registry {
	r := &registry{handler: make(map[string]toolHandler)}

	r.register(toolHandler{
		def: llm.ToolDef{
			Name:        ToolUpdateIngredients,
			Description: "Replace the recipe's entire ingredient list. Always return the complete list, not just the changed entries.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ingredients": map[string]any{
						"type":  "array",
						"items": ingredientSchema,
					},
				},
				"required": []string{"ingredients"},
			},
		},
		apply: func(args json.RawMessage, d *draft) (string, error) {
			var input updateIngredientsInput
			if err := json.Unmarshal(args, &input); err != nil {
				return "", fmt.Errorf("invalid update_ingredients input: %w", err)
			}
			if input.Ingredients == nil {
				return "", fmt.Errorf("invalid update_ingredients input: missing ingredients")
			}
			d.recipe.Ingredients = input.Ingredients
			d.mutated = true
			return "Updating ingredients", nil
		},
	})

	r.register(toolHandler{
		def: llm.ToolDef{
			Name:        ToolUpdateSteps,
			Description: "Replace the recipe's entire ordered step list. Always return the complete list.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"steps": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []string{"steps"},
			},
		},
		apply: func(args json.RawMessage, d *draft) (string, error) {
			var input updateStepsInput
			if err := json.Unmarshal(args, &input); err != nil {
				return "", fmt.Errorf("invalid update_steps input: %w", err)
			}
			if input.Steps == nil {
				return "", fmt.Errorf("invalid update_steps input: missing steps")
			}
			d.recipe.Steps = input.Steps
			d.mutated = true
			return "Updating steps", nil
		},
	})

	r.register(toolHandler{
		def: llm.ToolDef{
			Name:        ToolUpdateMetadata,
			Description: "Update recipe details. Only include the fields you want to change; omitted fields keep their current values.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":    map[string]any{"type": "string"},
					"servings": map[string]any{"type": "integer"},
					"prepTime": map[string]any{"type": "string"},
					"cookTime": map[string]any{"type": "string"},
					"cuisine":  map[string]any{"type": "string"},
					"category": map[string]any{"type": "string"},
					"tags": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
			},
		},
		apply: func(args json.RawMessage, d *draft) (string, error) {
			var input updateMetadataInput
			if err := json.Unmarshal(args, &input); err != nil {
				return "", fmt.Errorf("invalid update_metadata input: %w", err)
			}
			if input.Title != nil {
				d.recipe.Title = *input.Title
			}
			if input.Servings != nil {
				s := *input.Servings
				d.recipe.Servings = &s
			}
			if input.PrepTime != nil {
				d.recipe.PrepTime = *input.PrepTime
			}
			if input.CookTime != nil {
				d.recipe.CookTime = *input.CookTime
			}
			if input.Cuisine != nil {
				d.recipe.Cuisine = *input.Cuisine
			}
			if input.Category != nil {
				d.recipe.Category = *input.Category
			}
			if input.Tags != nil {
				d.recipe.Tags = append([]string(nil), (*input.Tags)...)
			}
			d.mutated = true
			return "Updating recipe details", nil
		},
	})

	r.register(toolHandler{
		def: llm.ToolDef{
			Name:        ToolAskClarification,
			Description: "Ask the user a clarifying question when the edit request is ambiguous. This ends the turn; do not call other tools after it.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
				},
				"required": []string{"question"},
			},
		},
		apply: func(args json.RawMessage, d *draft) (string, error) {
			var input askClarificationInput
			if err := json.Unmarshal(args, &input); err != nil {
				return "", fmt.Errorf("invalid ask_clarification input: %w", err)
			}
			if input.Question == "" {
				return "", fmt.Errorf("invalid ask_clarification input: missing question")
			}
			d.question = input.Question
			return "", nil
		},
	})

	r.register(toolHandler{
		def: llm.ToolDef{
			Name:        ToolFinalize,
			Description: "Submit the complete edited recipe. Call this exactly once, as your last tool call, when the requested edit is done.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":    map[string]any{"type": "string"},
					"servings": map[string]any{"type": "integer"},
					"prepTime": map[string]any{"type": "string"},
					"cookTime": map[string]any{"type": "string"},
					"ingredients": map[string]any{
						"type":  "array",
						"items": ingredientSchema,
					},
					"steps": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"tags": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"cuisine":  map[string]any{"type": "string"},
					"category": map[string]any{"type": "string"},
				},
				"required": []string{"title", "ingredients", "steps"},
			},
		},
		apply: func(args json.RawMessage, d *draft) (string, error) {
			var input finalizeInput
			if err := json.Unmarshal(args, &input); err != nil {
				return "", fmt.Errorf("invalid finalize input: %w", err)
			}
			if input.Title == "" {
				return "", fmt.Errorf("invalid finalize input: missing title")
			}
			d.recipe = recipe.Recipe{
				Title:       input.Title,
				Servings:    input.Servings,
				PrepTime:    input.PrepTime,
				CookTime:    input.CookTime,
				Ingredients: input.Ingredients,
				Steps:       input.Steps,
				Tags:        input.Tags,
				Cuisine:     input.Cuisine,
				Category:    input.Category,
				SourceURL:   d.sourceURL,
				ScrapedAt:   d.scrapedAt,
			}
			d.mutated = true
			d.finalized = true
			return "Finishing up", nil
		},
	})

	return r
}

func (r *registry) register(h toolHandler) {
	r.order = append(r.order, h.def.Name)
	r.handler[h.def.Name] = h
}
