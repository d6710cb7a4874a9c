// Package agent implements the conversational edit orchestrator: a
// bounded, multi-turn tool-calling dialogue with a text-generation
// model that incrementally mutates an in-memory recipe draft and
// reports the turn as an ordered stream of typed events.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kondate-dev/kondate/internal/llm"
	"github.com/kondate-dev/kondate/internal/log"
	"github.com/kondate-dev/kondate/internal/recipe"
)

const (
	// DefaultStepCap bounds the number of model rounds per turn.
	DefaultStepCap = 5

	// DefaultTimeout is the wall-clock budget for one turn.
	DefaultTimeout = 10 * time.Second

	defaultMaxTokens = 4096
)

// Message is one entry of an editing session's conversation history.
// History is supplied by the caller on every request; the orchestrator
// is stateless across turns.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// termState is the terminal condition of a turn's tool-calling loop.
type termState int

const (
	termClarify termState = iota
	termFinalized
	termStepCap
	termTimedOut
	termModelError
)

// Editor drives edit turns against an injected model provider. The
// zero value is not usable; construct with NewEditor. Safe for
// concurrent use: per-turn state lives in the turn goroutine.
type Editor struct {
	provider llm.Provider
	registry *registry
	stepCap  int
	timeout  time.Duration
	logger   log.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithStepCap overrides the model-round cap per turn.
func WithStepCap(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.stepCap = n
		}
	}
}

// WithTimeout overrides the wall-clock budget per turn.
func WithTimeout(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// NewEditor creates an Editor using the given model provider.
func NewEditor(provider llm.Provider, opts ...Option) *Editor {
	e := &Editor{
		provider: provider,
		registry: newRegistry(),
		stepCap:  DefaultStepCap,
		timeout:  DefaultTimeout,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunEditTurn runs one bounded edit turn and returns its event stream.
//
// The stream delivers zero or more progress events followed by exactly
// one clarification, result, or error event, then closes. Consumers
// must drain the channel until it closes; the turn itself never blocks
// on a slow or departed consumer. No failure escapes as a Go error:
// every call path resolves to one terminal event.
func (e *Editor) RunEditTurn(ctx context.Context, current recipe.Recipe, history []Message, prompt string, allowedTags []string) <-chan Event {
	em := newEmitter()
	go func() {
		turnCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		d := newDraft(current)
		term := e.runLoop(turnCtx, d, history, prompt, allowedTags, em)
		em.Emit(e.classify(term, d))
		em.Close()
	}()
	return em.Events()
}

// runLoop drives the tool-calling conversation until a terminal
// condition. The model call is the single suspension point; the turn
// deadline cancels it in flight.
func (e *Editor) runLoop(ctx context.Context, d *draft, history []Message, prompt string, allowedTags []string, em *emitter) termState {
	systemPrompt := buildSystemPrompt(d.recipe, allowedTags)

	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	tools := e.registry.defs()

	for round := 0; round < e.stepCap; round++ {
		resp, err := e.provider.Complete(ctx, &llm.CompletionRequest{
			SystemPrompt: systemPrompt,
			Messages:     messages,
			Tools:        tools,
			MaxTokens:    defaultMaxTokens,
		})
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return termTimedOut
			}
			e.logger.Error("model call failed", "round", round, "error", err)
			return termModelError
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		var toolResults []llm.Message
		for _, tc := range resp.ToolCalls {
			handler, ok := e.registry.lookup(tc.Name)
			if !ok {
				e.logger.Error("model invoked unknown tool", "tool", tc.Name)
				return termModelError
			}

			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				return termModelError
			}

			label, err := handler.apply(args, d)
			if err != nil {
				// Feed the validation error back so the model can retry.
				// The draft is untouched: effects decode and validate
				// before mutating.
				e.logger.Warn("tool input rejected", "tool", tc.Name, "error", err)
				toolResults = append(toolResults, llm.Message{
					Role: llm.RoleUser,
					ToolResult: &llm.ToolResult{
						CallID:  tc.ID,
						Content: fmt.Sprintf("Error: %v", err),
						IsError: true,
					},
				})
				continue
			}

			if tc.Name == ToolAskClarification {
				// Clarification ends the turn; remaining tool calls in
				// this response are suppressed.
				return termClarify
			}

			em.Emit(progressEvent(label))
			e.logger.Debug("tool applied", "tool", tc.Name, "round", round)

			if d.finalized {
				return termFinalized
			}

			toolResults = append(toolResults, llm.Message{
				Role: llm.RoleUser,
				ToolResult: &llm.ToolResult{
					CallID:  tc.ID,
					Content: "Applied.",
				},
			})
		}

		if len(toolResults) > 0 {
			messages = append(messages, toolResults...)
			continue
		}

		// No tool calls at all: the model gave up without finalizing.
		return termModelError
	}

	return termStepCap
}

// Turn-terminal user-facing messages.
const (
	timeoutMessage      = "Edit timed out. Please try a simpler request."
	unproductiveMessage = "Agent could not process this request. Please try rephrasing."
)

// classify maps a terminal condition to the turn's single terminal
// event, in fixed precedence order: clarification, then timeout, then
// "nothing was mutated", then best-effort result. A timeout discards
// partial mutations; a step cap or model error after at least one
// applied tool still surfaces the partial edit as a result.
func (e *Editor) classify(term termState, d *draft) Event {
	switch {
	case term == termClarify:
		return clarificationEvent(d.question)
	case term == termTimedOut:
		return timeoutEvent()
	case !d.mutated:
		return errorEvent(unproductiveMessage)
	default:
		// Provenance is never model-writable; re-assert it on the way out.
		d.recipe.SourceURL = d.sourceURL
		d.recipe.ScrapedAt = d.scrapedAt
		return resultEvent(d.recipe)
	}
}

func timeoutEvent() Event {
	return errorEvent(timeoutMessage)
}
