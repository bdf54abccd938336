package cli

import (
	"fmt"

	"github.com/raphaelgruber/chatexport/internal/bridge"
	"github.com/raphaelgruber/chatexport/internal/trigger"
	"github.com/raphaelgruber/chatexport/internal/view"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge for the page shim",
	Long: `Serve listens for the page shim on a WebSocket (ws://<addr>/ws).

The shim reports the page location; chatexport keeps one export control
mounted on single conversation and conversation list pages, asks for the
format when it is clicked and saves the files to the output directory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides CHATEXPORT_BRIDGE_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	addr := cfg.BridgeAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	hub := bridge.NewHub(logger)
	defer hub.Close()

	svc := newExportService(hub)
	syncer := view.NewSynchronizer(hub, trigger.Binder(svc, hub, logger), view.Options{
		SettleDelay: cfg.SettleDelay,
		Logger:      logger,
	})

	syncDone := make(chan error, 1)
	go func() {
		syncDone <- syncer.Run(ctx, hub)
	}()

	logger.Info("exporting to", "dir", cfg.OutputDir)
	serveErr := bridge.NewServer(addr, hub, collector, logger).Serve(ctx)

	// Closing the hub ends the feed and stops the synchronizer.
	hub.Close()
	<-syncDone

	if serveErr != nil {
		return fmt.Errorf("serve bridge: %w", serveErr)
	}
	return nil
}
