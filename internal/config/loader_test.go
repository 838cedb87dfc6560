package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg.Session.MaxToolCalls != 5 {
		t.Errorf("MaxToolCalls default = %d, want 5", cfg.Session.MaxToolCalls)
	}
	if cfg.Session.MaxDuration != 30*time.Second {
		t.Errorf("MaxDuration default = %v, want 30s", cfg.Session.MaxDuration)
	}
	if cfg.Guardrails.BudgetFloor != 25 {
		t.Errorf("BudgetFloor default = %v, want 25", cfg.Guardrails.BudgetFloor)
	}
	if cfg.Impact.CumulativeLossThresholdPct != 40 {
		t.Errorf("CumulativeLossThresholdPct default = %v, want 40", cfg.Impact.CumulativeLossThresholdPct)
	}
	if cfg.Impact.CreativeProtectionDays != 14 {
		t.Errorf("CreativeProtectionDays default = %d, want 14", cfg.Impact.CreativeProtectionDays)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"session": {"maxToolCalls": 3, "maxDuration": 10000000000},
		"guardrails": {"budgetFloor": 50, "bidChangeCapPct": 10},
		"impact": {"cumulativeLossThresholdPct": 25}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Session.MaxToolCalls != 3 {
		t.Errorf("MaxToolCalls = %d, want 3", cfg.Session.MaxToolCalls)
	}
	if cfg.Session.MaxDuration != 10*time.Second {
		t.Errorf("MaxDuration = %v, want 10s", cfg.Session.MaxDuration)
	}
	if cfg.Guardrails.BudgetFloor != 50 {
		t.Errorf("BudgetFloor = %v, want 50", cfg.Guardrails.BudgetFloor)
	}
	if cfg.Impact.CumulativeLossThresholdPct != 25 {
		t.Errorf("CumulativeLossThresholdPct = %v, want 25", cfg.Impact.CumulativeLossThresholdPct)
	}
	// Untouched groups still get defaults.
	if cfg.Session.MaxIterations != 10 {
		t.Errorf("MaxIterations default = %d, want 10", cfg.Session.MaxIterations)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ADCOUNSEL_MAX_TOOL_CALLS", "7")
	t.Setenv("ADCOUNSEL_BUDGET_FLOOR", "30")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Session.MaxToolCalls != 7 {
		t.Errorf("MaxToolCalls = %d, want env override 7", cfg.Session.MaxToolCalls)
	}
	if cfg.Guardrails.BudgetFloor != 30 {
		t.Errorf("BudgetFloor = %v, want env override 30", cfg.Guardrails.BudgetFloor)
	}
}

func TestConfigPathExplicitEnv(t *testing.T) {
	t.Setenv("ADCOUNSEL_CONFIG", "/tmp/adcounsel-test/config.json")
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if path != "/tmp/adcounsel-test/config.json" {
		t.Errorf("ConfigPath = %q", path)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := &Config{}
	cfg.Session.MaxToolCalls = 4
	cfg.ApplyDefaults()

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom after Save: %v", err)
	}
	if loaded.Session.MaxToolCalls != 4 {
		t.Errorf("round-trip MaxToolCalls = %d, want 4", loaded.Session.MaxToolCalls)
	}
}
