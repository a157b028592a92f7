package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milad/co2info/internal/domain"
)

// These tests use t.Setenv and t.Chdir, so they cannot run in parallel.

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.Limits(), domain.DefaultLimits(); got != want {
		t.Fatalf("Limits()=%+v want %+v", got, want)
	}
	if cfg.GRPCAddr != ":9090" || cfg.HTTPAddr != ":8080" || cfg.GRPCTarget != "127.0.0.1:9090" {
		t.Fatalf("unexpected addresses: %+v", cfg)
	}
	if got, want := cfg.GRPCWaitTimeout, 20*time.Second; got != want {
		t.Fatalf("GRPCWaitTimeout=%v want %v", got, want)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	body := "csv_path: from-file.csv\nunhealthy_ppm: 1200\ngrpc_wait_timeout: 3s\n"
	if err := os.WriteFile(filepath.Join(dir, "co2info.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CSV_PATH", "from-env.csv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.CSVPath, "from-env.csv"; got != want {
		t.Fatalf("CSVPath=%q want %q", got, want)
	}
	if got, want := cfg.UnhealthyPPM, 1200.0; got != want {
		t.Fatalf("UnhealthyPPM=%v want %v", got, want)
	}
	if got, want := cfg.GRPCWaitTimeout, 3*time.Second; got != want {
		t.Fatalf("GRPCWaitTimeout=%v want %v", got, want)
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CO2INFO_MIN_PPM", "500")
	t.Setenv("CO2INFO_MAX_PPM", "400")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}

	cfg.MaxPPM = 5000
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unhealthy below min: err=%v want ErrInvalidConfig", err)
	}
	cfg.UnhealthyPPM = 800
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate after override: %v", err)
	}
}

func TestValidate_UnhealthyOutsideRange(t *testing.T) {
	cfg := Config{UnhealthyPPM: 20000, MinPPM: 0, MaxPPM: 10000}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}
}
