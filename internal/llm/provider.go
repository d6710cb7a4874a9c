// Package llm abstracts the text-generation model behind a single-turn
// Provider interface. The multi-turn edit conversation lives in the
// agent package, not here; providers only translate between these
// common types and their SDK-specific formats.
package llm

import "context"

// Provider defines the interface for single-turn LLM completion.
// The provider is stateless: callers manage conversation history and
// thread a context for cancellation. The context is the single
// suspension point of an edit turn; a deadline armed by the caller
// cancels the in-flight API call.
type Provider interface {
	// Name returns the provider identifier (e.g., "claude").
	Name() string

	// Complete sends messages to the LLM and returns a single response.
	// Tool calls in the response must be handled by the caller.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest contains input for a single LLM turn.
type CompletionRequest struct {
	// SystemPrompt provides context and instructions for the LLM.
	SystemPrompt string

	// Messages contains the conversation history.
	// Must include at least one user message.
	Messages []Message

	// Tools defines the functions the LLM can call.
	Tools []ToolDef

	// MaxTokens limits the response length.
	// If zero, providers use their default limits.
	MaxTokens int
}

// CompletionResponse contains the LLM's response for a single turn.
type CompletionResponse struct {
	// Content is the text response from the LLM.
	// May be empty if the response only contains tool calls.
	Content string

	// ToolCalls contains any tools the LLM wants to invoke.
	ToolCalls []ToolCall

	// StopReason indicates why the LLM stopped generating.
	// Common values: "end_turn", "tool_use", "max_tokens".
	StopReason string

	// Usage tracks token consumption for this turn.
	Usage Usage
}

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender.
	Role Role

	// Content is the text content of the message.
	Content string

	// ToolCalls contains tools the assistant wants to invoke.
	// Only present in assistant messages.
	ToolCalls []ToolCall

	// ToolResult contains the result of a tool execution.
	// Only present in user messages responding to tool calls.
	ToolResult *ToolResult
}

// Role identifies the sender of a message in a conversation.
type Role string

const (
	// RoleUser indicates a message from the user or application.
	RoleUser Role = "user"

	// RoleAssistant indicates a message from the LLM.
	RoleAssistant Role = "assistant"
)

// ToolCall represents an LLM's request to invoke a tool.
type ToolCall struct {
	// ID uniquely identifies this call for correlation with results.
	ID string

	// Name is the tool to invoke, matching a ToolDef.Name.
	Name string

	// Arguments contains the parsed arguments for the tool.
	Arguments map[string]any
}

// ToolResult contains the output from executing a tool.
type ToolResult struct {
	// CallID correlates this result to a ToolCall.ID.
	CallID string

	// Content is the tool's output, typically as text or JSON.
	Content string

	// IsError indicates whether the tool execution failed.
	IsError bool
}

// ToolDef defines a tool that the LLM can call.
type ToolDef struct {
	// Name identifies the tool. Must be unique within a request.
	Name string

	// Description explains what the tool does. Shown to the model.
	Description string

	// Parameters defines the tool's input using JSON Schema.
	Parameters map[string]any
}

// Usage tracks token consumption across API calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates another usage sample into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
