package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/bgchaos/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	stringFlags := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"endpoint", &values.Endpoint},
		{"pool-header", &values.PoolHeader},
		{"compose-command", &values.ComposeCommand},
		{"blue", &values.Blue},
		{"green", &values.Green},
		{"format", &values.Format},
		{"log-level", &values.LogLevel},
		{"metrics-file", &values.MetricsFile},
		{"otlp-endpoint", &values.OTLPEndpoint},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.dst = config.StringFlag{Value: v, Set: true}
	}

	sliceFlags := []struct {
		name string
		dst  *config.SliceFlag
	}{
		{"compose-file", &values.ComposeFiles},
		{"only", &values.Only},
		{"skip", &values.Skip},
	}
	for _, f := range sliceFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetStringArray(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.dst = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("dry-run") {
		v, err := flags.GetBool("dry-run")
		if err != nil {
			return values, fmt.Errorf("parse --dry-run: %w", err)
		}
		values.DryRun = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
