package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "derivs-back",
	Short: "Index Derivatives Analytics Backend",
	Long: `An analytics backend for NIFTY and BANKNIFTY index derivatives.

Features:
• Gann square-root support/resistance grids with directional signals
• Intraday max-pain tracking with spot-distance bias
• Per-strike open-interest change aggregation
• Daily FII/DII institutional-flow mirroring and sentiment
• NATS-based distribution with WebSocket streaming`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
