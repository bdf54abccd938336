// Package prompt provides the user-facing prompt and alert collaborators.
package prompt

import (
	"context"
	"sync"
)

// Prompter asks the user for input and shows messages.
type Prompter interface {
	// PromptText asks for a line of text with def prefilled.
	// ok is false when the user cancelled.
	PromptText(ctx context.Context, message, def string) (value string, ok bool, err error)

	// Alert shows a message to the user.
	Alert(ctx context.Context, message string)
}

// Recorder is a Prompter answering from a script and keeping every
// message it was given. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	answers []Answer
	prompts []string
	alerts  []string
}

// Answer is one scripted reply of a Recorder.
type Answer struct {
	Value     string
	Cancelled bool
}

// NewRecorder creates a recorder replying with answers in order.
// Once exhausted, prompts are treated as cancelled.
func NewRecorder(answers ...Answer) *Recorder {
	return &Recorder{answers: answers}
}

// Reply is shorthand for a non-cancelled Answer.
func Reply(value string) Answer {
	return Answer{Value: value}
}

// PromptText implements Prompter.
func (r *Recorder) PromptText(ctx context.Context, message, _ string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prompts = append(r.prompts, message)
	if len(r.answers) == 0 {
		return "", false, nil
	}
	a := r.answers[0]
	r.answers = r.answers[1:]
	return a.Value, !a.Cancelled, nil
}

// Alert implements Prompter.
func (r *Recorder) Alert(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, message)
}

// Alerts returns a copy of the recorded alerts.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

// Prompts returns a copy of the recorded prompt messages.
func (r *Recorder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

// Replay forwards recorded alerts to p, in order.
func (r *Recorder) Replay(ctx context.Context, p Prompter) {
	for _, msg := range r.Alerts() {
		p.Alert(ctx, msg)
	}
}
