package logger_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/sitelink-report/infrastructure/logger"
)

func TestNew_WritesToConfiguredPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	log, err := logger.New(logger.Config{
		Level:       "debug",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	enriched := log.With(logger.RunID("run-1"), logger.Account("123", "Shop"))
	enriched.Info("account exported", logger.Int("rows", 3), logger.Error(errors.New("none")))

	if syncErr := enriched.Sync(); syncErr != nil {
		t.Fatalf("Sync() error = %v", syncErr)
	}
}

func TestNew_DevelopmentMode(t *testing.T) {
	t.Parallel()

	log, err := logger.New(logger.Config{
		Development: true,
		OutputPaths: []string{filepath.Join(t.TempDir(), "dev.log")},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if log == nil {
		t.Fatal("New() returned nil logger")
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := logger.Config{}
	cfg.SetDefaults()

	if cfg.Level != logger.DefaultLevel {
		t.Errorf("Level = %q, want %q", cfg.Level, logger.DefaultLevel)
	}
	if cfg.Format != logger.DefaultFormat {
		t.Errorf("Format = %q, want %q", cfg.Format, logger.DefaultFormat)
	}
	if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != "stderr" {
		t.Errorf("OutputPaths = %v, want [stderr]", cfg.OutputPaths)
	}
}

func TestNop_With_ReturnsSelf(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	if nop.With(logger.String("k", "v")) != nop {
		t.Error("NoOpLogger.With() should return the same instance")
	}
	if err := nop.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}
