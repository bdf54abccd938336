package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/chatexport/internal/export"
	"github.com/raphaelgruber/chatexport/internal/prompt"
	"github.com/raphaelgruber/chatexport/internal/service"
)

// itemDoneMsg reports one finished conversation of the batch.
type itemDoneMsg service.Progress

// batchDoneMsg carries the final result of the batch.
type batchDoneMsg service.BatchResult

// progressModel is the bubbletea model for a bulk export.
type progressModel struct {
	format   export.Format
	progress progress.Model
	theme    prompt.Theme
	done     int
	total    int
	skipped  int
	current  string
	result   *service.BatchResult
	quitting bool
}

// newProgressModel creates a new progress model.
func newProgressModel(f export.Format) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		format:   f,
		progress: prog,
		theme:    prompt.DefaultTheme,
	}
}

// Init starts the progress bar.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case itemDoneMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.current = msg.ConversationID
		if msg.Err != nil {
			m.skipped++
		}
		var pct float64
		if m.total > 0 {
			pct = float64(m.done) / float64(m.total)
		}
		return m, m.progress.SetPercent(pct)

	case batchDoneMsg:
		res := service.BatchResult(msg)
		m.result = &res
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.result != nil || m.quitting {
		return m.finalView()
	}

	if m.total == 0 {
		return m.theme.StatusStyle().Render("Listing conversations...") + "\n"
	}

	status := m.theme.StatusStyle().Render(fmt.Sprintf("[%s]", m.format.Label()))
	counts := fmt.Sprintf("%d/%d chats", m.done, m.total)
	hint := m.theme.HintStyle().Render("Press Ctrl+C to stop")
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.View(), counts, hint)
}

// finalView renders the summary once the batch ends.
func (m progressModel) finalView() string {
	if m.quitting || m.result == nil {
		return m.theme.HintStyle().Render(fmt.Sprintf("\nStopped after %d of %d chats.\n", m.done, m.total))
	}

	r := m.result
	if r.Outcome == service.OutcomeFailed {
		return m.theme.ErrorStyle().Render("✗ Export failed") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.theme.CompletedStyle().Render("✓ Completed") + "\n\n")
	fmt.Fprintf(&b, "  Exported: %d\n", len(r.Exported))
	if len(r.Skipped) > 0 {
		b.WriteString(m.theme.ErrorStyle().Render(fmt.Sprintf("  Skipped:  %d", len(r.Skipped))) + "\n")
		for _, id := range r.Skipped {
			fmt.Fprintf(&b, "    • %s\n", id)
		}
	}
	return b.String()
}

// runBatchProgress runs ExportAll behind the interactive progress UI.
// Alerts raised by the export are buffered while the UI owns the terminal
// and replayed to p afterwards. Ctrl+C stops the batch.
func runBatchProgress(ctx context.Context, svc *service.ExportService, p prompt.Prompter, f export.Format) (service.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newProgressModel(f),
		tea.WithContext(ctx),
		tea.WithInput(nil),
	)

	alerts := prompt.NewRecorder()
	batch := svc.WithPrompter(alerts).WithProgress(func(pr service.Progress) {
		program.Send(itemDoneMsg(pr))
	})

	resCh := make(chan service.BatchResult, 1)
	go func() {
		res := batch.ExportAll(ctx, f)
		resCh <- res
		program.Send(batchDoneMsg(res))
	}()

	_, runErr := program.Run()
	cancel()
	res := <-resCh
	alerts.Replay(context.WithoutCancel(ctx), p)

	if runErr != nil && !errors.Is(runErr, tea.ErrInterrupted) && !errors.Is(runErr, tea.ErrProgramKilled) {
		return res, fmt.Errorf("progress UI error: %w", runErr)
	}
	return res, nil
}
