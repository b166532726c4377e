/*
Package config loads engine configuration from a TOML file.

PURPOSE:
  Every threshold in the engine is a default to be tuned, not a certified
  statutory value - the fiscal ceiling changes with the tax year and the
  fraud thresholds are heuristics. This package centralizes them:

  [server]   listen address
  [fiscal]   annual ceiling, excess tax rate
  [fraud]    scorer thresholds, aggregator baselines, scan cadence
  [metrics]  prometheus exposition

  Load starts from Default() and overlays the file, so a partial config file
  only overrides what it mentions. A missing file path means defaults.

EXAMPLE:
  [fiscal]
  annual_ceiling  = "258.23"
  excess_tax_rate = "0.22"

  [fraud]
  velocity_baseline = 10
  scan_interval     = "30s"
*/
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/fiscal"
	"github.com/welfarehub/credits-engine/fraud"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Fiscal  FiscalConfig  `toml:"fiscal"`
	Fraud   FraudConfig   `toml:"fraud"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type FiscalConfig struct {
	// Decimal strings, parsed with core.MustMoney. Floats would lose cents.
	AnnualCeiling string `toml:"annual_ceiling"`
	ExcessTaxRate string `toml:"excess_tax_rate"`
}

type FraudConfig struct {
	HighValuePoints     int64  `toml:"high_value_points"`
	ElevatedValuePoints int64  `toml:"elevated_value_points"`
	OffHoursStart       int    `toml:"off_hours_start"`
	OffHoursEnd         int    `toml:"off_hours_end"`
	FrequencyThreshold  int    `toml:"frequency_threshold"`
	BurstThreshold      int    `toml:"burst_threshold"`
	VelocityBaseline    int    `toml:"velocity_baseline"`
	HighRiskScore       int    `toml:"high_risk_score"`
	ScanInterval        string `toml:"scan_interval"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Fiscal: FiscalConfig{
			AnnualCeiling: "258.23",
			ExcessTaxRate: "0.22",
		},
		Fraud: FraudConfig{
			HighValuePoints:     500,
			ElevatedValuePoints: 200,
			OffHoursStart:       22,
			OffHoursEnd:         6,
			FrequencyThreshold:  5,
			BurstThreshold:      3,
			VelocityBaseline:    10,
			HighRiskScore:       70,
			ScanInterval:        "30s",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads the config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// ScanInterval parses the fraud re-scan cadence, falling back to 30 seconds
// on malformed input.
func (c FraudConfig) ScanIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.ScanInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// BuildLimitCalculator constructs a calculator with the configured ceiling.
func (c FiscalConfig) BuildLimitCalculator(clock core.Clock) *fiscal.LimitCalculator {
	calc := fiscal.NewLimitCalculator(clock)
	if ceiling := core.MustMoney(c.AnnualCeiling); ceiling.IsPositive() {
		calc.AnnualCeiling = ceiling
	}
	return calc
}

// BuildValidator constructs a validator with the configured tax rate.
func (c FiscalConfig) BuildValidator() *fiscal.LedgerValidator {
	v := fiscal.NewLedgerValidator()
	if rate := core.MustMoney(c.ExcessTaxRate); rate.IsPositive() {
		v.ExcessTaxRate = rate
	}
	return v
}

// BuildScorer constructs a scorer with the configured thresholds.
func (c FraudConfig) BuildScorer() *fraud.Scorer {
	s := fraud.NewScorer()
	s.HighValuePoints = c.HighValuePoints
	s.ElevatedValuePoints = c.ElevatedValuePoints
	s.OffHoursStart = c.OffHoursStart
	s.OffHoursEnd = c.OffHoursEnd
	s.FrequencyThreshold = c.FrequencyThreshold
	s.BurstThreshold = c.BurstThreshold
	return s
}

// BuildAggregator constructs an aggregator with the configured baselines.
func (c FraudConfig) BuildAggregator(clock core.Clock) *fraud.Aggregator {
	a := fraud.NewAggregator(clock)
	a.VelocityBaseline = c.VelocityBaseline
	a.HighRiskScore = c.HighRiskScore
	return a
}
