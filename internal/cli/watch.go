package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/chatexport/internal/prompt"
	"github.com/raphaelgruber/chatexport/internal/trigger"
	"github.com/raphaelgruber/chatexport/internal/view"
	"github.com/spf13/cobra"
)

var watchLocationFile string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a location file and offer exports in the terminal",
	Long: `Watch reads the current page location from a file and re-reads it on
every change. The matching export control is shown in the terminal; press
Enter to activate it.

Example:
  echo https://claude.ai/chats > /tmp/location
  chatexport watch --location-file /tmp/location`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchLocationFile, "location-file", "", "file holding the current page location")
	_ = watchCmd.MarkFlagRequired("location-file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	feed, err := view.NewFileFeed(watchLocationFile, logger)
	if err != nil {
		return fmt.Errorf("watch location file: %w", err)
	}
	defer feed.Close()

	termPrompt := prompt.NewTerminal(os.Stdin, os.Stdout)
	svc := newExportService(termPrompt)
	syncer := view.NewSynchronizer(termPrompt, trigger.Binder(svc, termPrompt, logger), view.Options{
		SettleDelay: cfg.SettleDelay,
		Logger:      logger,
	})

	if err := syncer.Run(cmd.Context(), feed); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
