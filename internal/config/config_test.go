package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != DefaultEndpoint || cfg.PoolHeader != DefaultPoolHeader {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Compose.Blue != "app_blue" || cfg.Compose.Green != "app_green" {
		t.Fatalf("unexpected services: %+v", cfg.Compose)
	}
	if cfg.ErrorProbes != 10 || cfg.Delays.ErrorInterval != 500*time.Millisecond {
		t.Fatalf("unexpected error-rate defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMergesFile(t *testing.T) {
	root := t.TempDir()
	body := `
endpoint: http://proxy.internal:9000/version
compose:
  command: podman compose
  files: [deploy/compose.yml]
  green: web_green
timeouts:
  probe: 1s
delays:
  between: 250ms
error_probes: 4
format: json
only: [failover]
`
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "http://proxy.internal:9000/version" {
		t.Fatalf("endpoint not merged: %q", cfg.Endpoint)
	}
	if cfg.Compose.Command != "podman compose" || cfg.Compose.Green != "web_green" {
		t.Fatalf("compose not merged: %+v", cfg.Compose)
	}
	if cfg.Compose.Blue != DefaultBlueService {
		t.Fatalf("blue default lost: %q", cfg.Compose.Blue)
	}
	if len(cfg.Compose.Files) != 1 || cfg.Compose.Files[0] != "deploy/compose.yml" {
		t.Fatalf("files not merged: %v", cfg.Compose.Files)
	}
	if cfg.Timeouts.Probe != time.Second || cfg.Timeouts.ErrorProbe != 2*time.Second {
		t.Fatalf("timeouts not merged: %+v", cfg.Timeouts)
	}
	if cfg.Delays.Between != 250*time.Millisecond || cfg.Delays.Recovery != 5*time.Second {
		t.Fatalf("delays not merged: %+v", cfg.Delays)
	}
	if cfg.ErrorProbes != 4 || cfg.Format != FormatJSON {
		t.Fatalf("scalars not merged: %+v", cfg)
	}
	if len(cfg.Only) != 1 || cfg.Only[0] != "failover" {
		t.Fatalf("only not merged: %v", cfg.Only)
	}
}

func TestLoadExplicitZeroOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	body := `
timeouts:
  command: 0s
delays:
  failover_settle: 0s
  restart: 0s
  recovery: 0s
  between: 0s
  error_interval: 0s
`
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Delays != (Delays{}) {
		t.Fatalf("explicit zero delays not applied: %+v", cfg.Delays)
	}
	if cfg.Timeouts.Probe != 5*time.Second || cfg.Timeouts.ErrorProbe != 2*time.Second {
		t.Fatalf("absent timeouts should keep defaults: %+v", cfg.Timeouts)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero delays should validate: %v", err)
	}
}

func TestLoadExplicitZeroErrorProbesFailsValidation(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("error_probes: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ErrorProbes != 0 {
		t.Fatalf("explicit error_probes not applied: %d", cfg.ErrorProbes)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "error_probes must be positive") {
		t.Fatalf("expected error_probes validation error, got %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("endpoint: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(root); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestApplyFlagsOverridesOnlySetValues(t *testing.T) {
	cfg := Default()
	ApplyFlags(&cfg, FlagValues{
		Endpoint: StringFlag{Value: "http://127.0.0.1:18080/version", Set: true},
		Blue:     StringFlag{Value: "svc_blue"},
		Skip:     SliceFlag{Values: []string{"error"}},
		Verbose:  BoolFlag{Value: true, Set: true},
	})

	if cfg.Endpoint != "http://127.0.0.1:18080/version" {
		t.Fatalf("endpoint flag ignored: %q", cfg.Endpoint)
	}
	if cfg.Compose.Blue != DefaultBlueService {
		t.Fatalf("unset flag applied: %q", cfg.Compose.Blue)
	}
	if len(cfg.Skip) != 1 || cfg.Skip[0] != "error" {
		t.Fatalf("skip flag ignored: %v", cfg.Skip)
	}
	if !cfg.Verbose || cfg.Log.Level != "debug" {
		t.Fatalf("verbose should raise log level, got %+v", cfg.Log)
	}
}

func TestApplyFlagsExplicitLogLevelWins(t *testing.T) {
	cfg := Default()
	ApplyFlags(&cfg, FlagValues{
		Verbose:  BoolFlag{Value: true, Set: true},
		LogLevel: StringFlag{Value: "error", Set: true},
	})
	if cfg.Log.Level != "error" {
		t.Fatalf("expected explicit level, got %q", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative endpoint", func(c *Config) { c.Endpoint = "/version" }, "invalid endpoint"},
		{"bad scheme", func(c *Config) { c.Endpoint = "ftp://host/version" }, "invalid endpoint"},
		{"empty header", func(c *Config) { c.PoolHeader = " " }, "pool header"},
		{"empty command", func(c *Config) { c.Compose.Command = "" }, "compose command"},
		{"unsafe service", func(c *Config) { c.Compose.Blue = "app; rm -rf /" }, "invalid service name"},
		{"same services", func(c *Config) { c.Compose.Green = c.Compose.Blue }, "must differ"},
		{"zero probes", func(c *Config) { c.ErrorProbes = 0 }, "error_probes"},
		{"negative delay", func(c *Config) { c.Delays.Restart = -time.Second }, "delays.restart"},
		{"zero probe timeout", func(c *Config) { c.Timeouts.Probe = 0 }, "probe timeouts"},
		{"format", func(c *Config) { c.Format = "xml" }, "unsupported format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
