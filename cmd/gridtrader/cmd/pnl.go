package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridtrader/ledger"
)

var pnlSince string

var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Report realized P&L from the trade history",
	Long: `Sum realized P&L recorded in the ledger, optionally restricted to
trades on or after a date.

Examples:
  gridtrader pnl
  gridtrader pnl --since 2026-01-01`,
	RunE: runPnl,
}

func init() {
	pnlCmd.Flags().StringVar(&pnlSince, "since", "", "start date (YYYY-MM-DD)")
	rootCmd.AddCommand(pnlCmd)
}

func runPnl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	var since time.Time
	if pnlSince != "" {
		since, err = time.Parse("2006-01-02", pnlSince)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
	}

	store, err := ledger.Open(cfg.Ledger.Path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	total := store.RealizedPnL(since)
	if since.IsZero() {
		fmt.Printf("realized P&L (all time): %.2f\n", total)
	} else {
		fmt.Printf("realized P&L since %s: %.2f\n", pnlSince, total)
	}
	return nil
}
