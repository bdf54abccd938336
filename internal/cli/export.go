package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/chatexport/internal/export"
	"github.com/raphaelgruber/chatexport/internal/prompt"
	"github.com/raphaelgruber/chatexport/internal/service"
	"github.com/raphaelgruber/chatexport/internal/trigger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errNotExported is returned when the format prompt was cancelled or
// rejected, so no export ran.
var errNotExported = errors.New("nothing exported")

var (
	exportFormat     string
	exportNoProgress bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations to files",
	Long: `Export conversations as indented JSON or plain text.

Without --format you are asked for the format, exactly like the export
controls on the chat page ask for it.

Examples:
  chatexport export chat 0f6c1e2a-... --format json
  chatexport export all --format txt -o ./backup`,
}

var exportChatCmd = &cobra.Command{
	Use:   "chat <conversation-id>",
	Short: "Export one conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportChat,
}

var exportAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Export every conversation of the account",
	Args:  cobra.NoArgs,
	RunE:  runExportAll,
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportFormat, "format", "f", "", "export format: json or text (txt)")
	exportAllCmd.Flags().BoolVar(&exportNoProgress, "no-progress", false, "disable the progress bar")

	exportCmd.AddCommand(exportChatCmd)
	exportCmd.AddCommand(exportAllCmd)
}

// presetPrompter answers the format prompt with the --format value and
// forwards alerts.
type presetPrompter struct {
	prompt.Prompter
	value string
}

func (p presetPrompter) PromptText(context.Context, string, string) (string, bool, error) {
	return p.value, true, nil
}

// formatPrompter asks on the terminal unless --format was given. Both go
// through the same validation in the trigger controller.
func formatPrompter(t *prompt.Terminal) prompt.Prompter {
	if exportFormat != "" {
		return presetPrompter{Prompter: t, value: exportFormat}
	}
	return t
}

func runExportChat(cmd *cobra.Command, args []string) error {
	convID := args[0]
	termPrompt := prompt.NewTerminal(os.Stdin, os.Stdout)
	svc := newExportService(termPrompt)

	var outcome service.Outcome
	action := func(ctx context.Context, f export.Format) {
		outcome = svc.ExportSingle(ctx, convID, f)
	}
	trigger.New(formatPrompter(termPrompt), action, nil, logger).Activate(cmd.Context())

	return outcomeError(outcome)
}

func runExportAll(cmd *cobra.Command, args []string) error {
	termPrompt := prompt.NewTerminal(os.Stdin, os.Stdout)
	svc := newExportService(termPrompt)
	interactive := !exportNoProgress && term.IsTerminal(int(os.Stdout.Fd()))

	var (
		res    service.BatchResult
		runErr error
	)
	action := func(ctx context.Context, f export.Format) {
		if interactive {
			res, runErr = runBatchProgress(ctx, svc, termPrompt, f)
			return
		}
		res = svc.ExportAll(ctx, f)
		for _, name := range res.Files {
			fmt.Println(name)
		}
	}
	trigger.New(formatPrompter(termPrompt), action, nil, logger).Activate(cmd.Context())

	if runErr != nil {
		return runErr
	}
	if err := outcomeError(res.Outcome); err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		logger.Warn("some conversations were not exported", "skipped", len(res.Skipped), "total", res.Total)
	}
	return nil
}

// outcomeError maps an export outcome to the command's exit status. The
// user has already been alerted.
func outcomeError(o service.Outcome) error {
	switch o {
	case service.OutcomeOK:
		return nil
	case service.OutcomeFailed:
		return errors.New("export failed")
	default:
		return errNotExported
	}
}
