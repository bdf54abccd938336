package cli

import (
	"fmt"

	"github.com/raphaelgruber/chatexport/internal/view"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "Show which export control a page location gets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state := view.Classify(args[0])
		label := state.Label()
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", state, label)
		return nil
	},
}
