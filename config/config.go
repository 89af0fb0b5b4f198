// Package config defines the engine configuration. The configuration is an
// explicit immutable value injected at construction; nothing in the engine
// reads process-wide settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/gridtrader/market"
	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	// Instruments is the basket of instrument codes under management.
	Instruments []string `json:"instruments" yaml:"instruments"`

	// Holdings is the position snapshot per instrument code, normally
	// refreshed by the external holdings collaborator.
	Holdings map[string]market.Holding `json:"holdings,omitempty" yaml:"holdings,omitempty"`

	Thresholds     Thresholds         `json:"thresholds" yaml:"thresholds"`
	TargetPosition map[string]float64 `json:"target_position" yaml:"target_position"`

	// GridCoefficient scales ATR into the base grid step per zone. Zones
	// without an entry use 1.0.
	GridCoefficient map[string]float64 `json:"grid_coefficient" yaml:"grid_coefficient"`

	DynamicGrid   DynamicGrid   `json:"dynamic_grid" yaml:"dynamic_grid"`
	ProfitTargets ProfitTargets `json:"profit_targets" yaml:"profit_targets"`
	RSI           RSIThresholds `json:"rsi" yaml:"rsi"`
	Trend         TrendTracking `json:"trend" yaml:"trend"`

	// LotSize is the minimum tradable unit; every order amount is a
	// multiple of it.
	LotSize int64 `json:"lot_size" yaml:"lot_size"`

	// CapitalPerInstrument is the fixed capital pool allocated to each
	// instrument, the denominator of all position percentages.
	CapitalPerInstrument float64 `json:"capital_per_instrument" yaml:"capital_per_instrument"`

	// MaxDrawdownLimit is the (negative) unrealized loss fraction at which
	// the circuit breaker pauses new buys, e.g. -0.20.
	MaxDrawdownLimit float64 `json:"max_drawdown_limit" yaml:"max_drawdown_limit"`

	Ledger  Ledger  `json:"ledger" yaml:"ledger"`
	Monitor Monitor `json:"monitor" yaml:"monitor"`
}

// Thresholds are the ordered BIAS(20) zone boundaries.
type Thresholds struct {
	DeepDip          float64 `json:"deep_dip" yaml:"deep_dip"`
	GoldZoneUpper    float64 `json:"gold_zone_upper" yaml:"gold_zone_upper"`
	OscillationUpper float64 `json:"oscillation_upper" yaml:"oscillation_upper"`
	ReduceZoneUpper  float64 `json:"reduce_zone_upper" yaml:"reduce_zone_upper"`

	// EscapeTopHigh forces the escape-high status and a zero position
	// target when bias runs above it.
	EscapeTopHigh float64 `json:"escape_top_high" yaml:"escape_top_high"`

	// TrendReversal re-enables accumulation when bias crosses down through
	// it from above.
	TrendReversal float64 `json:"trend_reversal" yaml:"trend_reversal"`
}

// DynamicGrid widens or narrows the grid step with the ATR/price ratio.
type DynamicGrid struct {
	LowVolatilityATR  float64 `json:"low_volatility_atr" yaml:"low_volatility_atr"`
	HighVolatilityATR float64 `json:"high_volatility_atr" yaml:"high_volatility_atr"`
	LowVolMultiplier  float64 `json:"low_vol_multiplier" yaml:"low_vol_multiplier"`
	HighVolMultiplier float64 `json:"high_vol_multiplier" yaml:"high_vol_multiplier"`
}

// ProfitTargets selects the minimum profit fraction per volatility bucket;
// the grid step is floored at price times the selected fraction.
type ProfitTargets struct {
	HighVolatilityPct float64 `json:"high_volatility_pct" yaml:"high_volatility_pct"`
	HighTarget        float64 `json:"high_target" yaml:"high_target"`
	LowVolatilityPct  float64 `json:"low_volatility_pct" yaml:"low_volatility_pct"`
	LowTarget         float64 `json:"low_target" yaml:"low_target"`
	NormalTarget      float64 `json:"normal_target" yaml:"normal_target"`
}

// RSIThresholds gate order generation on RSI(14).
type RSIThresholds struct {
	Oversold   float64 `json:"oversold" yaml:"oversold"`
	Overbought float64 `json:"overbought" yaml:"overbought"`
}

// TrendTracking declares a trend when bias moves by more than Threshold in
// the same direction on each of the last LookbackDays days.
type TrendTracking struct {
	LookbackDays int     `json:"lookback_days" yaml:"lookback_days"`
	Threshold    float64 `json:"threshold" yaml:"threshold"`
}

// Ledger locates the persisted grid state.
type Ledger struct {
	Path string `json:"path" yaml:"path"`
}

// Monitor contains the signal-watch parameters.
type Monitor struct {
	// AlertPct is the relative distance from a grid price at which the
	// level counts as touched, e.g. 0.005.
	AlertPct float64 `json:"alert_pct" yaml:"alert_pct"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration to a file, YAML for .yaml/.yml
// extensions and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency. The engine
// itself assumes a valid configuration; guarding threshold ordering here
// keeps undefined classifier behavior out of production.
func (c *Config) Validate() error {
	t := c.Thresholds
	if !(t.DeepDip < t.GoldZoneUpper && t.GoldZoneUpper < t.OscillationUpper && t.OscillationUpper < t.ReduceZoneUpper) {
		return fmt.Errorf("thresholds must be strictly ascending: deep_dip < gold_zone_upper < oscillation_upper < reduce_zone_upper")
	}
	for zone, pct := range c.TargetPosition {
		if pct < 0 || pct > 1 {
			return fmt.Errorf("target_position[%s] must be within [0,1], got %v", zone, pct)
		}
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive")
	}
	if c.CapitalPerInstrument <= 0 {
		return fmt.Errorf("capital_per_instrument must be positive")
	}
	if c.MaxDrawdownLimit >= 0 {
		return fmt.Errorf("max_drawdown_limit must be negative, got %v", c.MaxDrawdownLimit)
	}
	if c.DynamicGrid.LowVolatilityATR >= c.DynamicGrid.HighVolatilityATR {
		return fmt.Errorf("dynamic_grid.low_volatility_atr must be below high_volatility_atr")
	}
	if c.Trend.LookbackDays < 0 {
		return fmt.Errorf("trend.lookback_days must not be negative")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	return nil
}

// Default returns the baseline configuration the strategy was calibrated
// with.
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			DeepDip:          -6.0,
			GoldZoneUpper:    -3.0,
			OscillationUpper: 5.0,
			ReduceZoneUpper:  12.0,
			EscapeTopHigh:    15.0,
			TrendReversal:    3.0,
		},
		TargetPosition: map[string]float64{
			"DEEP_DIP":    0.95,
			"GOLD_ZONE":   0.75,
			"OSCILLATION": 0.55,
			"REDUCE_ZONE": 0.30,
			"ESCAPE_ZONE": 0.0,
		},
		GridCoefficient: map[string]float64{
			"DEEP_DIP":    0.8,
			"GOLD_ZONE":   1.0,
			"OSCILLATION": 1.2,
			"REDUCE_ZONE": 1.5,
		},
		DynamicGrid: DynamicGrid{
			LowVolatilityATR:  0.015,
			HighVolatilityATR: 0.03,
			LowVolMultiplier:  0.8,
			HighVolMultiplier: 1.3,
		},
		ProfitTargets: ProfitTargets{
			HighVolatilityPct: 0.03,
			HighTarget:        0.020,
			LowVolatilityPct:  0.015,
			LowTarget:         0.010,
			NormalTarget:      0.012,
		},
		RSI: RSIThresholds{
			Oversold:   30,
			Overbought: 75,
		},
		Trend: TrendTracking{
			LookbackDays: 3,
			Threshold:    2.0,
		},
		LotSize:              100,
		CapitalPerInstrument: 40000,
		MaxDrawdownLimit:     -0.20,
		Ledger:               Ledger{Path: "./grid_state.db"},
		Monitor:              Monitor{AlertPct: 0.005},
	}
}
