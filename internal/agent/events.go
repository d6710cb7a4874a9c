package agent

import (
	"sync"

	"github.com/kondate-dev/kondate/internal/recipe"
)

// EventType tags an Event variant.
type EventType string

const (
	// EventProgress reports an applied tool effect. Zero or more per turn.
	EventProgress EventType = "progress"

	// EventClarification ends a turn with a question for the user.
	EventClarification EventType = "clarification"

	// EventResult ends a turn with the edited recipe.
	EventResult EventType = "result"

	// EventError ends a turn with a user-facing failure message.
	EventError EventType = "error"
)

// Event is one record in the ordered stream produced by an edit turn.
// Exactly one clarification/result/error event terminates the stream;
// progress events may precede it any number of times.
type Event struct {
	Type     EventType      `json:"type"`
	Label    string         `json:"label,omitempty"`
	Question string         `json:"question,omitempty"`
	Recipe   *recipe.Recipe `json:"recipe,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type != EventProgress
}

func progressEvent(label string) Event {
	return Event{Type: EventProgress, Label: label}
}

func clarificationEvent(question string) Event {
	return Event{Type: EventClarification, Question: question}
}

func resultEvent(r recipe.Recipe) Event {
	return Event{Type: EventResult, Recipe: &r}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

// emitter decouples turn progress from the consumer's read rate.
// Emit appends to an unbounded internal queue and never blocks; a
// forwarder goroutine drains the queue to the output channel in order.
// Close is called after the terminal event is enqueued, so the output
// channel closes only once every enqueued event has been delivered.
type emitter struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool

	out chan Event
}

func newEmitter() *emitter {
	e := &emitter{out: make(chan Event)}
	e.cond = sync.NewCond(&e.mu)
	go e.forward()
	return e
}

// Events returns the ordered event stream. Consumers must drain it
// until it closes, even after they stop caring about the turn.
func (e *emitter) Events() <-chan Event {
	return e.out
}

// Emit enqueues an event. No-op after Close.
func (e *emitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue = append(e.queue, ev)
	e.cond.Signal()
}

// Close marks the stream complete. Already-enqueued events are still
// delivered before the output channel closes.
func (e *emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cond.Signal()
}

func (e *emitter) forward() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			close(e.out)
			return
		}
		ev := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.out <- ev
	}
}
