package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bgchaos",
		Short:         "bgchaos exercises blue/green failover with compose",
		Version:       buildVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runExecute,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("endpoint", "", "health-check URL probed through the proxy")
	persistent.String("pool-header", "", "response header naming the serving pool")
	persistent.String("compose-command", "", "orchestrator command prefix (e.g. \"docker compose\")")
	persistent.StringArray("compose-file", nil, "compose file passed with -f (repeatable)")
	persistent.String("blue", "", "blue service name")
	persistent.String("green", "", "green service name")
	persistent.StringArray("only", nil, "run only matching scenarios (repeatable)")
	persistent.StringArray("skip", nil, "skip matching scenarios (repeatable)")
	persistent.Bool("dry-run", false, "print orchestrator commands without executing them")
	persistent.BoolP("verbose", "v", false, "stream orchestrator output and show a result table")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.String("log-level", "", "diagnostic log level (debug|info|warn|error)")
	persistent.String("metrics-file", "", "write Prometheus metrics to this textfile")
	persistent.String("otlp-endpoint", "", "export traces to this OTLP/HTTP endpoint")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}
