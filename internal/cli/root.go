// Package cli provides the command-line interface for chatexport.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/chatexport/internal/client"
	"github.com/raphaelgruber/chatexport/internal/config"
	"github.com/raphaelgruber/chatexport/internal/metrics"
	"github.com/raphaelgruber/chatexport/internal/prompt"
	"github.com/raphaelgruber/chatexport/internal/save"
	"github.com/raphaelgruber/chatexport/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	outputDir string

	// Initialized by PersistentPreRunE
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	collector *metrics.Collector
	api       *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chatexport",
	Short: "Export chat conversations as JSON or plain text",
	Long: `Chatexport saves conversations from the chat service to local files.

Export a single conversation or every conversation of the account from the
command line, or run the bridge so the page shim shows export controls on
the chat page itself.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Offline commands need no API client
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "classify" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		logger, closeLog = config.SetupLogger(cfg)
		slog.SetDefault(logger)

		collector = metrics.NewCollector()
		transport := client.WithLogging(client.NewHTTPTransport(cfg.ClientTimeout), logger)
		api = client.New(cfg.APIURL, transport,
			client.WithSessionKey(cfg.SessionKey),
			client.WithMetrics(collector),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && collector != nil {
			printStats(collector.Snapshot())
		}
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newExportService wires the export service to the configured output
// directory, reporting through p.
func newExportService(p prompt.Prompter) *service.ExportService {
	return service.NewExportService(api, save.NewDirSaver(cfg.OutputDir), p, service.Options{
		Metrics: collector,
		Logger:  logger,
	})
}

// printStats writes operation timings to stderr.
func printStats(snap metrics.Snapshot) {
	if len(snap.Operations) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%-20s %6s %6s %10s %8s\n", "OPERATION", "COUNT", "FAILED", "AVG (ms)", "MAX (ms)")
	for _, op := range snap.Operations {
		fmt.Fprintf(os.Stderr, "%-20s %6d %6d %10.1f %8d\n", op.Name, op.Count, op.Failures, op.AvgTimeMs, op.MaxTimeMs)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and operation stats")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides CHATEXPORT_OUTPUT_DIR)")

	// Add subcommands
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(classifyCmd)
}
