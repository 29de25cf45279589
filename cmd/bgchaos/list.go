package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/bgchaos/internal/chaos"
	"github.com/bgricker/bgchaos/internal/config"
	"github.com/bgricker/bgchaos/internal/output"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the scenarios a run would execute",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scenarios, err := chaos.Select(chaos.Catalogue(), cfg.Only, cfg.Skip)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching scenarios")
		return nil
	}

	switch cfg.Format {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout(), cfg.Verbose).RenderList(scenarios)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).RenderList(scenarios)
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Format = strings.ToLower(cfg.Format)

	return cfg, root, nil
}
