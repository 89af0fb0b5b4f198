package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/gridtrader/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gridtrader",
	Short: "Rule-based grid trading planner for a small ETF basket",
	Long: `Gridtrader evaluates a basket of exchange-traded instruments against a
BIAS/ATR grid strategy and emits a deterministic trade plan per instrument:

  - market regime classification from BIAS(20)
  - volatility-adaptive grid sizing from ATR(14)
  - risk overrides: trailing stop, rebalance, circuit breaker, trend lock
  - a persisted grid-pair and trigger ledger for exactly-once signaling

It only proposes orders; execution, data feeds and notifications are
external collaborators.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}
