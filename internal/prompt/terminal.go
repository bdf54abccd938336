package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chatexport/internal/view"
)

// ErrPromptPending is returned when a prompt is issued while another one
// is still waiting for input.
var ErrPromptPending = errors.New("another prompt is waiting for input")

// Terminal is a line-oriented Prompter and view.Mounter.
//
// A single reader owns the input: while a prompt waits, the next line
// answers it; otherwise an input line activates the mounted control.
// End of input cancels pending and future prompts.
type Terminal struct {
	in    io.Reader
	out   io.Writer
	theme Theme

	startOnce sync.Once

	mu      sync.Mutex
	outMu   sync.Mutex
	waiting chan string
	eof     bool
	control *terminalControl
}

// NewTerminal creates a terminal prompter reading lines from in.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, theme: DefaultTheme}
}

// PromptText implements Prompter. An empty line selects def.
func (t *Terminal) PromptText(ctx context.Context, message, def string) (string, bool, error) {
	t.mu.Lock()
	if t.eof {
		t.mu.Unlock()
		return "", false, nil
	}
	if t.waiting != nil {
		t.mu.Unlock()
		return "", false, ErrPromptPending
	}
	ch := make(chan string, 1)
	t.waiting = ch
	t.mu.Unlock()
	t.start()

	t.printf("%s %s ", message, t.theme.HintStyle().Render("["+def+"]"))

	select {
	case line, ok := <-ch:
		if !ok {
			return "", false, nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			line = def
		}
		return line, true, nil
	case <-ctx.Done():
		t.mu.Lock()
		if t.waiting == ch {
			t.waiting = nil
		}
		t.mu.Unlock()
		return "", false, ctx.Err()
	}
}

// Alert implements Prompter.
func (t *Terminal) Alert(_ context.Context, message string) {
	t.printf("%s\n", t.theme.StatusStyle().Render(message))
}

// Mount implements view.Mounter. The control is activated by an input
// line received while no prompt is waiting.
func (t *Terminal) Mount(ctx context.Context, label string, activate view.ActivateFunc) (view.Control, error) {
	c := &terminalControl{
		id:       uuid.New().String(),
		label:    label,
		activate: activate,
		ctx:      ctx,
		term:     t,
	}

	t.mu.Lock()
	t.control = c
	t.mu.Unlock()
	t.start()

	t.printf("%s %s\n",
		t.theme.CompletedStyle().Render("["+label+"]"),
		t.theme.HintStyle().Render("press Enter to activate"))
	return c, nil
}

func (t *Terminal) start() {
	t.startOnce.Do(func() {
		go t.readLoop()
	})
}

func (t *Terminal) readLoop() {
	sc := bufio.NewScanner(t.in)
	for sc.Scan() {
		line := sc.Text()

		t.mu.Lock()
		if w := t.waiting; w != nil {
			t.waiting = nil
			t.mu.Unlock()
			w <- line
			continue
		}
		ctl := t.control
		t.mu.Unlock()

		if ctl != nil {
			go ctl.activate(ctl.ctx)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.eof = true
	if t.waiting != nil {
		close(t.waiting)
		t.waiting = nil
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

type terminalControl struct {
	id       string
	label    string
	activate view.ActivateFunc
	ctx      context.Context
	term     *Terminal
}

func (c *terminalControl) ID() string { return c.id }

func (c *terminalControl) Unmount(context.Context) error {
	c.term.mu.Lock()
	defer c.term.mu.Unlock()
	if c.term.control == c {
		c.term.control = nil
	}
	return nil
}
