package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/welfarehub/credits-engine/config"
	"github.com/welfarehub/credits-engine/core"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Fiscal.AnnualCeiling != "258.23" {
		t.Errorf("expected ceiling 258.23, got %s", cfg.Fiscal.AnnualCeiling)
	}
	if cfg.Fraud.VelocityBaseline != 10 || cfg.Fraud.HighRiskScore != 70 {
		t.Errorf("unexpected fraud defaults: %+v", cfg.Fraud)
	}
	if got := cfg.Fraud.ScanIntervalDuration(); got != 30*time.Second {
		t.Errorf("expected 30s scan interval, got %v", got)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != config.Default() {
		t.Error("empty path should return the defaults unchanged")
	}
}

func TestLoad_PartialFileOverlaysDefaults(t *testing.T) {
	// GIVEN: A config file that only mentions two values
	// THEN: Those override; everything else keeps its default

	path := filepath.Join(t.TempDir(), "credits.toml")
	content := `
[server]
port = 9090

[fraud]
velocity_baseline = 25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Fraud.VelocityBaseline != 25 {
		t.Errorf("expected baseline 25, got %d", cfg.Fraud.VelocityBaseline)
	}
	if cfg.Fiscal.AnnualCeiling != "258.23" {
		t.Errorf("unmentioned values keep defaults, got ceiling %s", cfg.Fiscal.AnnualCeiling)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := config.Load("/does/not/exist.toml"); err == nil {
		t.Error("a named-but-missing config file should fail loudly")
	}
}

func TestScanIntervalDuration_MalformedFallsBack(t *testing.T) {
	fraudCfg := config.Default().Fraud
	fraudCfg.ScanInterval = "often"
	if got := fraudCfg.ScanIntervalDuration(); got != 30*time.Second {
		t.Errorf("expected fallback 30s, got %v", got)
	}
	fraudCfg.ScanInterval = "-5s"
	if got := fraudCfg.ScanIntervalDuration(); got != 30*time.Second {
		t.Errorf("expected fallback 30s for non-positive, got %v", got)
	}
}

func TestBuilders_ApplyConfiguredThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Fiscal.AnnualCeiling = "300.00"
	cfg.Fraud.HighValuePoints = 900
	cfg.Fraud.VelocityBaseline = 3

	clock := core.NewFixedClock(2025, time.January, 1)

	calc := cfg.Fiscal.BuildLimitCalculator(clock)
	if got := calc.AnnualCeiling.String(); got != "300" {
		t.Errorf("expected ceiling 300, got %s", got)
	}

	scorer := cfg.Fraud.BuildScorer()
	if scorer.HighValuePoints != 900 {
		t.Errorf("expected high value threshold 900, got %d", scorer.HighValuePoints)
	}

	agg := cfg.Fraud.BuildAggregator(clock)
	if agg.VelocityBaseline != 3 {
		t.Errorf("expected baseline 3, got %d", agg.VelocityBaseline)
	}
}
