package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridtrader/ledger"
	"github.com/rustyeddy/gridtrader/market"
	"github.com/rustyeddy/gridtrader/strategy"
)

var (
	planCandles string
	planCode    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Evaluate one instrument and print its trade plan",
	Long: `Evaluate a single instrument from a candle CSV file and print the
suggested orders, warnings and regime classification.

The candle file is comma separated: date,open,high,low,close,volume with
ascending dates. The holding snapshot comes from the config file's holdings
section; a missing entry evaluates a flat position.

Example:
  gridtrader plan --config etf.yaml --candles sh510050.csv --code sh510050`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planCandles, "candles", "", "candle CSV file (required)")
	planCmd.Flags().StringVar(&planCode, "code", "", "instrument code (required)")
	planCmd.MarkFlagRequired("candles")
	planCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	candles, err := market.ReadCandleCSV(planCandles)
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg.Ledger.Path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := strategy.New(cfg, store, log)
	plan := engine.Analyze(planCode, candles, cfg.Holdings[planCode])
	printPlan(plan)
	return nil
}

func printPlan(p *strategy.TradePlan) {
	fmt.Printf("%s  %s\n", p.Code, p.Status)
	fmt.Printf("  price %.3f  bias %.2f%%  target position %.0f%%\n",
		p.CurrentPrice, p.CurrentBias, p.TargetPositionPct*100)
	fmt.Printf("  support %.3f  resistance %.3f  risk triggered: %v\n",
		p.Support, p.Resistance, p.RiskTriggered)

	if len(p.Orders) == 0 {
		fmt.Println("  no orders")
	}
	for _, o := range p.Orders {
		fmt.Printf("  %-4s %-6s %8d @ %.3f  (%s)\n",
			o.Direction, o.Type, o.Amount, o.Price, o.Desc)
	}
	for _, w := range p.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
}
