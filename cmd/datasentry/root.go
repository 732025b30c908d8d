package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalOptions override environment settings from the command line.
type globalOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFile    string
}

// AddFlags binds the options to fs.
func (o *globalOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "check configuration file (overrides DATASENTRY_CONFIG)")
	fs.StringVar(&o.EnvFile, "env-file", "", ".env file to load before reading the environment")
	fs.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error (overrides DATASENTRY_LOG_LEVEL)")
	fs.StringVar(&o.LogFile, "log-file", "", "rotated log file (overrides DATASENTRY_LOG_FILE)")
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "datasentry",
		Short: "Run data-quality checks against warehouses, databases, pipelines and issue trackers",
		Long: `datasentry loads a list of checks from a JSON or YAML document, runs each one
against its backend and classifies the result. Checks can be run once, one at a
time, or periodically with an HTTP status server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCommand(opts),
		newCheckCommand(opts),
		newDaemonCommand(opts),
		newValidateCommand(opts),
	)
	return cmd
}
