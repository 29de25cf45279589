package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional per-directory configuration file.
const FileName = ".bgchaos.yml"

// Config captures run options sourced from the config file or flags.
type Config struct {
	Endpoint   string `yaml:"endpoint"`
	PoolHeader string `yaml:"pool_header"`

	Compose  ComposeConfig `yaml:"compose"`
	Timeouts Timeouts      `yaml:"timeouts"`
	Delays   Delays        `yaml:"delays"`

	ErrorProbes int `yaml:"error_probes"`

	Only []string `yaml:"only"`
	Skip []string `yaml:"skip"`

	DryRun  bool   `yaml:"dry_run"`
	Verbose bool   `yaml:"verbose"`
	Format  string `yaml:"format"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ComposeConfig describes how the orchestrator is invoked.
type ComposeConfig struct {
	Command string   `yaml:"command"`
	Files   []string `yaml:"files"`
	Shell   string   `yaml:"shell"`
	Blue    string   `yaml:"blue"`
	Green   string   `yaml:"green"`
}

// Timeouts bound individual probes and commands. A zero Command timeout
// lets orchestrator commands run until they exit.
type Timeouts struct {
	Probe      time.Duration `yaml:"probe"`
	ErrorProbe time.Duration `yaml:"error_probe"`
	Command    time.Duration `yaml:"command"`
}

// Delays are the fixed sleeps between scenario steps.
type Delays struct {
	FailoverSettle time.Duration `yaml:"failover_settle"`
	Restart        time.Duration `yaml:"restart"`
	Recovery       time.Duration `yaml:"recovery"`
	Between        time.Duration `yaml:"between"`
	ErrorInterval  time.Duration `yaml:"error_interval"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// MetricsConfig controls the optional Prometheus text file.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// TracingConfig controls optional OTLP trace export.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	DefaultEndpoint       = "http://localhost:8080/version"
	DefaultPoolHeader     = "X-App-Pool"
	DefaultComposeCommand = "docker compose"
	DefaultBlueService    = "app_blue"
	DefaultGreenService   = "app_green"
	DefaultErrorProbes    = 10
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		Endpoint:   DefaultEndpoint,
		PoolHeader: DefaultPoolHeader,
		Compose: ComposeConfig{
			Command: DefaultComposeCommand,
			Blue:    DefaultBlueService,
			Green:   DefaultGreenService,
		},
		Timeouts: Timeouts{
			Probe:      5 * time.Second,
			ErrorProbe: 2 * time.Second,
		},
		Delays: Delays{
			FailoverSettle: 2 * time.Second,
			Restart:        3 * time.Second,
			Recovery:       5 * time.Second,
			Between:        2 * time.Second,
			ErrorInterval:  500 * time.Millisecond,
		},
		ErrorProbes: DefaultErrorProbes,
		Format:      FormatPretty,
		Log: LogConfig{
			Level:    "warn",
			Encoding: "console",
		},
		Tracing: TracingConfig{
			ServiceName: "bgchaos",
		},
	}
}

// Load reads .bgchaos.yml from root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	var numbers fileNumbers
	if err := yaml.Unmarshal(data, &numbers); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg, numbers)
	return cfg, nil
}

// fileNumbers holds the numeric settings present in the config file. Nil
// means the key is absent, so an explicit zero still overrides the default.
type fileNumbers struct {
	Timeouts struct {
		Probe      *time.Duration `yaml:"probe"`
		ErrorProbe *time.Duration `yaml:"error_probe"`
		Command    *time.Duration `yaml:"command"`
	} `yaml:"timeouts"`
	Delays struct {
		FailoverSettle *time.Duration `yaml:"failover_settle"`
		Restart        *time.Duration `yaml:"restart"`
		Recovery       *time.Duration `yaml:"recovery"`
		Between        *time.Duration `yaml:"between"`
		ErrorInterval  *time.Duration `yaml:"error_interval"`
	} `yaml:"delays"`
	ErrorProbes *int `yaml:"error_probes"`
}

func merge(base, override Config, numbers fileNumbers) Config {
	out := base

	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.PoolHeader != "" {
		out.PoolHeader = override.PoolHeader
	}

	if override.Compose.Command != "" {
		out.Compose.Command = override.Compose.Command
	}
	if len(override.Compose.Files) > 0 {
		out.Compose.Files = append([]string{}, override.Compose.Files...)
	}
	if override.Compose.Shell != "" {
		out.Compose.Shell = override.Compose.Shell
	}
	if override.Compose.Blue != "" {
		out.Compose.Blue = override.Compose.Blue
	}
	if override.Compose.Green != "" {
		out.Compose.Green = override.Compose.Green
	}

	mergeDuration(&out.Timeouts.Probe, numbers.Timeouts.Probe)
	mergeDuration(&out.Timeouts.ErrorProbe, numbers.Timeouts.ErrorProbe)
	mergeDuration(&out.Timeouts.Command, numbers.Timeouts.Command)

	mergeDuration(&out.Delays.FailoverSettle, numbers.Delays.FailoverSettle)
	mergeDuration(&out.Delays.Restart, numbers.Delays.Restart)
	mergeDuration(&out.Delays.Recovery, numbers.Delays.Recovery)
	mergeDuration(&out.Delays.Between, numbers.Delays.Between)
	mergeDuration(&out.Delays.ErrorInterval, numbers.Delays.ErrorInterval)

	if numbers.ErrorProbes != nil {
		out.ErrorProbes = *numbers.ErrorProbes
	}
	if len(override.Only) > 0 {
		out.Only = append([]string{}, override.Only...)
	}
	if len(override.Skip) > 0 {
		out.Skip = append([]string{}, override.Skip...)
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.Verbose {
		out.Verbose = true
	}

	if override.Log.Level != "" {
		out.Log.Level = override.Log.Level
	}
	if override.Log.Encoding != "" {
		out.Log.Encoding = override.Log.Encoding
	}
	if override.Metrics.Textfile != "" {
		out.Metrics.Textfile = override.Metrics.Textfile
	}
	if override.Tracing.Endpoint != "" {
		out.Tracing.Endpoint = override.Tracing.Endpoint
	}
	if override.Tracing.ServiceName != "" {
		out.Tracing.ServiceName = override.Tracing.ServiceName
	}

	return out
}

// mergeDuration overrides dst when the file set a value, zero included.
// Negative values are kept so Validate can report them.
func mergeDuration(dst *time.Duration, override *time.Duration) {
	if override != nil {
		*dst = *override
	}
}

var serviceNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: want an absolute http(s) URL", c.Endpoint)
	}
	if strings.TrimSpace(c.PoolHeader) == "" {
		return errors.New("pool header must not be empty")
	}
	if strings.TrimSpace(c.Compose.Command) == "" {
		return errors.New("compose command must not be empty")
	}
	for _, svc := range []string{c.Compose.Blue, c.Compose.Green} {
		if !serviceNameRegex.MatchString(svc) {
			return fmt.Errorf("invalid service name %q", svc)
		}
	}
	if c.Compose.Blue == c.Compose.Green {
		return fmt.Errorf("blue and green services must differ, both are %q", c.Compose.Blue)
	}
	if c.ErrorProbes <= 0 {
		return fmt.Errorf("error_probes must be positive, got %d", c.ErrorProbes)
	}

	durations := map[string]time.Duration{
		"timeouts.probe":         c.Timeouts.Probe,
		"timeouts.error_probe":   c.Timeouts.ErrorProbe,
		"timeouts.command":       c.Timeouts.Command,
		"delays.failover_settle": c.Delays.FailoverSettle,
		"delays.restart":         c.Delays.Restart,
		"delays.recovery":        c.Delays.Recovery,
		"delays.between":         c.Delays.Between,
		"delays.error_interval":  c.Delays.ErrorInterval,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	if c.Timeouts.Probe == 0 || c.Timeouts.ErrorProbe == 0 {
		return errors.New("probe timeouts must be positive")
	}

	switch strings.ToLower(c.Format) {
	case FormatPretty, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	return nil
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Endpoint.Set {
		cfg.Endpoint = flags.Endpoint.Value
	}
	if flags.PoolHeader.Set {
		cfg.PoolHeader = flags.PoolHeader.Value
	}
	if flags.ComposeCommand.Set {
		cfg.Compose.Command = flags.ComposeCommand.Value
	}
	if len(flags.ComposeFiles.Values) > 0 {
		cfg.Compose.Files = append([]string{}, flags.ComposeFiles.Values...)
	}
	if flags.Blue.Set {
		cfg.Compose.Blue = flags.Blue.Value
	}
	if flags.Green.Set {
		cfg.Compose.Green = flags.Green.Value
	}
	if len(flags.Only.Values) > 0 {
		cfg.Only = append([]string{}, flags.Only.Values...)
	}
	if len(flags.Skip.Values) > 0 {
		cfg.Skip = append([]string{}, flags.Skip.Values...)
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
		if cfg.Verbose && !flags.LogLevel.Set {
			cfg.Log.Level = "debug"
		}
	}
	if flags.LogLevel.Set {
		cfg.Log.Level = flags.LogLevel.Value
	}
	if flags.MetricsFile.Set {
		cfg.Metrics.Textfile = flags.MetricsFile.Value
	}
	if flags.OTLPEndpoint.Set {
		cfg.Tracing.Endpoint = flags.OTLPEndpoint.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Endpoint       StringFlag
	PoolHeader     StringFlag
	ComposeCommand StringFlag
	ComposeFiles   SliceFlag
	Blue           StringFlag
	Green          StringFlag
	Only           SliceFlag
	Skip           SliceFlag
	Format         StringFlag
	DryRun         BoolFlag
	Verbose        BoolFlag
	LogLevel       StringFlag
	MetricsFile    StringFlag
	OTLPEndpoint   StringFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
