package llm

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setTestAPIKey sets ANTHROPIC_API_KEY for testing and returns a cleanup function.
func setTestAPIKey(t *testing.T, key string) func() {
	t.Helper()
	original := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		_ = os.Unsetenv("ANTHROPIC_API_KEY")
	} else {
		_ = os.Setenv("ANTHROPIC_API_KEY", key)
	}
	return func() {
		if original != "" {
			_ = os.Setenv("ANTHROPIC_API_KEY", original)
		} else {
			_ = os.Unsetenv("ANTHROPIC_API_KEY")
		}
	}
}

func TestNewClaudeProvider_NoAPIKey(t *testing.T) {
	cleanup := setTestAPIKey(t, "")
	defer cleanup()

	_, err := NewClaudeProvider("")
	require.Error(t, err)
}

func TestNewClaudeProvider_DefaultModel(t *testing.T) {
	cleanup := setTestAPIKey(t, "test-key")
	defer cleanup()

	p, err := NewClaudeProvider("")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name())
	assert.Equal(t, DefaultModel, string(p.model))
}

func TestNewClaudeProvider_ModelOverride(t *testing.T) {
	cleanup := setTestAPIKey(t, "test-key")
	defer cleanup()

	p, err := NewClaudeProviderWithHTTPClient("claude-haiku-test", &http.Client{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-test", string(p.model))
}

func TestToAnthropicMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "make it vegan"},
		{Role: RoleAssistant, Content: "updating", ToolCalls: []ToolCall{
			{ID: "call_1", Name: "update_ingredients", Arguments: map[string]any{"ingredients": []any{}}},
		}},
		{Role: RoleUser, ToolResult: &ToolResult{CallID: "call_1", Content: "ok"}},
	}

	result := toAnthropicMessages(msgs)
	require.Len(t, result, 3)
	assert.Equal(t, "user", string(result[0].Role))
	assert.Equal(t, "assistant", string(result[1].Role))
	// The tool-call message carries both a text block and a tool_use block.
	assert.Len(t, result[1].Content, 2)
	assert.Equal(t, "user", string(result[2].Role))
}

func TestToAnthropicTools(t *testing.T) {
	tools := []ToolDef{
		{
			Name:        "update_steps",
			Description: "Replace the step list",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"steps": map[string]any{"type": "array"},
				},
				"required": []string{"steps"},
			},
		},
	}

	result := toAnthropicTools(tools)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].OfTool)
	assert.Equal(t, "update_steps", result[0].OfTool.Name)
	assert.Equal(t, []string{"steps"}, result[0].OfTool.InputSchema.Required)
}

func TestToAnthropicToolsEmpty(t *testing.T) {
	assert.Nil(t, toAnthropicTools(nil))
}
