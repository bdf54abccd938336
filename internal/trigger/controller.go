// Package trigger binds export controls to the export service.
package trigger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/chatexport/internal/export"
	"github.com/raphaelgruber/chatexport/internal/prompt"
	"github.com/raphaelgruber/chatexport/internal/service"
	"github.com/raphaelgruber/chatexport/internal/view"
)

// Prompt texts shown on activation.
const (
	FormatPrompt     = "Enter the export format (json or txt):"
	DefaultFormat    = "json"
	MsgInvalidFormat = `Invalid export format. Please enter either "json" or "txt".`
)

// Action runs the export bound to a control.
type Action func(ctx context.Context, f export.Format)

// Controller asks for a format and runs its action.
type Controller struct {
	prompter prompt.Prompter
	action   Action
	lock     *sync.Mutex
	logger   *slog.Logger
}

// New creates a controller. lock serializes exports across controllers
// sharing it; nil gives the controller its own.
func New(p prompt.Prompter, action Action, lock *sync.Mutex, logger *slog.Logger) *Controller {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{prompter: p, action: action, lock: lock, logger: logger}
}

// ForSingle binds a controller to exporting one conversation.
func ForSingle(svc *service.ExportService, p prompt.Prompter, convID string) *Controller {
	return New(p, exportSingle(svc, convID), nil, nil)
}

// ForAll binds a controller to exporting every conversation.
func ForAll(svc *service.ExportService, p prompt.Prompter) *Controller {
	return New(p, exportAll(svc), nil, nil)
}

func exportSingle(svc *service.ExportService, convID string) Action {
	return func(ctx context.Context, f export.Format) {
		svc.ExportSingle(ctx, convID, f)
	}
}

func exportAll(svc *service.ExportService) Action {
	return func(ctx context.Context, f export.Format) {
		svc.ExportAll(ctx, f)
	}
}

// Activate handles one activation. A cancelled prompt does nothing;
// invalid input is reported before any export starts.
func (c *Controller) Activate(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()

	input, ok, err := c.prompter.PromptText(ctx, FormatPrompt, DefaultFormat)
	if err != nil {
		c.logger.Warn("format prompt failed", "error", err)
		return
	}
	if !ok {
		c.logger.Debug("format prompt cancelled")
		return
	}

	f, err := export.ParseFormat(input)
	if err != nil {
		c.prompter.Alert(ctx, MsgInvalidFormat)
		return
	}

	c.action(ctx, f)
}

// Binder returns a view.Binder creating one controller per mount.
// All controllers share one lock so exports never overlap.
func Binder(svc *service.ExportService, p prompt.Prompter, logger *slog.Logger) view.Binder {
	lock := &sync.Mutex{}
	return func(state view.State) view.ActivateFunc {
		var action Action
		switch state.Kind {
		case view.KindSingle:
			action = exportSingle(svc, state.ConversationID)
		case view.KindList:
			action = exportAll(svc)
		default:
			return func(context.Context) {}
		}
		return New(p, action, lock, logger).Activate
	}
}
