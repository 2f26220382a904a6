package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/sitelink-report/infrastructure/config"
)

type nested struct {
	Sheet   string        `env:"TEST_CFG_SHEET"   yaml:"sheet"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" yaml:"timeout"`
}

type testConfig struct {
	Debug    bool     `env:"TEST_CFG_DEBUG"    yaml:"debug"`
	Port     int      `env:"TEST_CFG_PORT"     yaml:"port"`
	Accounts []string `env:"TEST_CFG_ACCOUNTS" yaml:"accounts"`
	Nested   nested   `yaml:"nested"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, "port: 9000\nnested:\n  sheet: ReportV1\n  timeout: 5s\n")

	cfg, err := config.Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.Nested.Sheet != "ReportV1" {
		t.Errorf("Nested.Sheet = %q, want ReportV1", cfg.Nested.Sheet)
	}
	if cfg.Nested.Timeout != 5*time.Second {
		t.Errorf("Nested.Timeout = %v, want 5s", cfg.Nested.Timeout)
	}
}

func TestLoad_MissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := config.Load[testConfig](filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 0 {
		t.Errorf("Port = %d, want 0", cfg.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "port: [unterminated\n")

	if _, err := config.Load[testConfig](path); err == nil {
		t.Fatal("Load() expected parse error, got nil")
	}
}

func TestLoadWithDefaults_EnvWinsOverDefaults(t *testing.T) {
	t.Setenv("TEST_CFG_SHEET", "FromEnv")
	t.Setenv("TEST_CFG_DEBUG", "yes")
	t.Setenv("TEST_CFG_ACCOUNTS", "111, 222")
	t.Setenv("TEST_CFG_TIMEOUT", "2m")

	path := writeConfig(t, "nested:\n  sheet: FromFile\n")
	cfg, err := config.LoadWithDefaults(path, func(c *testConfig) {
		c.Nested.Sheet = "FromDefaults"
		if c.Port == 0 {
			c.Port = 8080
		}
	})
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}

	if cfg.Nested.Sheet != "FromEnv" {
		t.Errorf("Nested.Sheet = %q, want FromEnv", cfg.Nested.Sheet)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if len(cfg.Accounts) != 2 || cfg.Accounts[1] != "222" {
		t.Errorf("Accounts = %v, want [111 222]", cfg.Accounts)
	}
	if cfg.Nested.Timeout != 2*time.Minute {
		t.Errorf("Nested.Timeout = %v, want 2m", cfg.Nested.Timeout)
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	_, err := config.Load[testConfig]("")

	var validationErr *config.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Load() error = %v, want *ValidationError", err)
	}
	if validationErr.Field != "TEST_CFG_PORT" {
		t.Errorf("Field = %q, want TEST_CFG_PORT", validationErr.Field)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "required ok", err: config.ValidateRequired("f", "x")},
		{name: "required empty", err: config.ValidateRequired("f", ""), wantErr: true},
		{name: "port ok", err: config.ValidatePort("p", 587)},
		{name: "port zero", err: config.ValidatePort("p", 0), wantErr: true},
		{name: "url ok", err: config.ValidateURL("u", "https://googleads.googleapis.com")},
		{name: "url relative", err: config.ValidateURL("u", "/v17"), wantErr: true},
		{name: "email ok", err: config.ValidateEmail("e", "ops@example.com")},
		{name: "email bad", err: config.ValidateEmail("e", "not-an-address"), wantErr: true},
		{name: "date ok", err: config.ValidateDate("d", "2022-05-01")},
		{name: "date bad", err: config.ValidateDate("d", "05/01/2022"), wantErr: true},
		{name: "level ok", err: config.ValidateLogLevel("warn")},
		{name: "level bad", err: config.ValidateLogLevel("trace"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", tt.err, tt.wantErr)
			}
		})
	}
}
