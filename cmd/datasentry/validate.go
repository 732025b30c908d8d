package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/datasentry/check"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Parse a check configuration and report skipped entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				cfg, err := loadSettings(opts)
				if err != nil {
					return err
				}
				path = cfg.ConfigPath
			}

			text, err := check.ReadConfigFile(path)
			if err != nil {
				return err
			}
			report, err := check.ValidateText(text)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "entry %d (%s) skipped: %s\n", w.Index, w.Type, w.Reason)
			}
			fmt.Fprintf(out, "%s: %d checks valid, %d skipped\n", path, report.Loaded, len(report.Warnings))
			return nil
		},
	}
}
