// Package namer generates short human-readable names for recipe
// versions using a single-shot model call. Naming is best-effort:
// callers treat any error as "no name" and commit anyway.
package namer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kondate-dev/kondate/internal/llm"
	"github.com/kondate-dev/kondate/internal/recipe"
)

// maxNameLen caps the returned name.
const maxNameLen = 60

// Namer asks the model for a short version name.
type Namer struct {
	provider llm.Provider
}

// New creates a Namer using the given provider.
func New(provider llm.Provider) *Namer {
	return &Namer{provider: provider}
}

// Name returns a short label for the version created by applying
// editPrompt to before, producing after. Errors are returned so the
// caller can log them, but a failed call never blocks a commit.
func (n *Namer) Name(ctx context.Context, editPrompt string, before, after recipe.Recipe) (string, error) {
	resp, err := n.provider.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: "You name recipe versions. Reply with a short label (at most six words) describing the change. Reply with the label only, no quotes or punctuation around it.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildNamingPrompt(editPrompt, before, after)},
		},
		MaxTokens: 64,
	})
	if err != nil {
		return "", fmt.Errorf("version naming failed: %w", err)
	}

	name := strings.TrimSpace(resp.Content)
	name = strings.Trim(name, "\"'")
	if name == "" {
		return "", fmt.Errorf("version naming returned empty response")
	}
	if len(name) > maxNameLen {
		name = strings.TrimSpace(name[:maxNameLen])
	}
	return name, nil
}

func buildNamingPrompt(editPrompt string, before, after recipe.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Edit request: %s\n", editPrompt)
	fmt.Fprintf(&b, "Recipe before: %s (%d ingredients, %d steps)\n",
		before.Title, len(before.Ingredients), len(before.Steps))
	fmt.Fprintf(&b, "Recipe after: %s (%d ingredients, %d steps)\n",
		after.Title, len(after.Ingredients), len(after.Steps))
	b.WriteString("Name this version.")
	return b.String()
}
