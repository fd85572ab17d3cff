package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "careercrew",
		Short: "AI career advisor backed by resilient LLM provider chains",
		Long: `careercrew runs a fixed crew of seven career-advice tasks against a pool of
LLM providers. Each task walks its fallback chain with retries, so one
provider outage degrades the report instead of failing it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "project config file (default .careercrew/config.json)")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file with provider credentials (default .env)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text, json or pretty")

	root.AddCommand(
		newServeCmd(a),
		newRunCmd(a),
		newCheckCmd(a),
		newConfigCmd(a),
	)
	return root
}
