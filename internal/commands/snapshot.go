package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derivs-back/internal/analytics/gann"
	"github.com/derivs-back/internal/analytics/maxpain"
	"github.com/derivs-back/internal/analytics/oi"
	"github.com/derivs-back/internal/analytics/series"
	"github.com/derivs-back/internal/external"
	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/logger"
)

var snapshotSymbol string

// snapshotCmd runs the analytics pipeline once and prints the results.
// Useful for checking vendor connectivity and eyeballing levels without
// starting the full server.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run the analytics pipeline once and print the results",
	Long: `Fetch the current vendor data for a symbol, run the full
derived-analytics pipeline and print the results as JSON.

Examples:
  derivs-back snapshot
  derivs-back snapshot --symbol BANKNIFTY`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVarP(&snapshotSymbol, "symbol", "s", "NIFTY", "Index symbol")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}

	symbol := strings.ToUpper(snapshotSymbol)
	client := external.NewClient(&cfg.Vendor, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := map[string]interface{}{"symbol": symbol}

	payload, err := client.GetIntradaySeries(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch intraday series: %w", err)
	}

	points := series.AlignIntraday(payload)
	if len(points) == 0 {
		return fmt.Errorf("no usable intraday samples for %s", symbol)
	}

	latest := points[len(points)-1].Price
	levels, err := gann.Compute(latest, gann.Options{
		Step:     cfg.Analytics.GannStep,
		Levels:   cfg.Analytics.GannLevels,
		Decimals: cfg.Analytics.GannDecimals,
	})
	if err != nil {
		return fmt.Errorf("gann compute failed: %w", err)
	}

	state := gann.DeriveSignal(latest, levels)
	state.Symbol = symbol
	out["price"] = latest
	out["levels"] = levels
	out["signal"] = state

	if samples, err := client.GetMaxPainSeries(ctx, symbol, ""); err != nil {
		log.WithError(err).Warn("Failed to fetch max pain series")
	} else if len(samples) > 0 {
		spot := samples[len(samples)-1].SpotPrice
		out["maxpain"] = maxpain.AnalyzeWithBand(samples, spot, cfg.Analytics.MaxPainBiasBand)
	}

	if records, err := client.GetOIChange(ctx, symbol, ""); err != nil {
		log.WithError(err).Warn("Failed to fetch OI change rows")
	} else if len(records) > 0 {
		snapshot := oi.AggregateByStrike(records)
		out["oi"] = map[string]interface{}{
			"records": snapshot,
			"totals":  oi.Totals(snapshot),
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
