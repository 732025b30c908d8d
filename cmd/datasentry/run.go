package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/datasentry/export"
	"github.com/jonwraymond/datasentry/scheduler"
)

var errChecksFailed = errors.New("one or more checks failed")

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printProgress writes one line per finished record.
func printProgress(w io.Writer) scheduler.Option {
	return scheduler.WithProgress(func(p scheduler.Progress) {
		if p.Total > 0 {
			fmt.Fprintf(w, "[%d/%d] ", p.Completed, p.Total)
		}
		fmt.Fprintf(w, "#%d %s (%s): %s\n", p.Index, p.Snapshot.Description, p.Snapshot.Type, p.Snapshot.Status)
	})
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	var (
		exportPath string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured check once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			a, err := newApp(ctx, opts, printProgress(out))
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			if err := a.reload(ctx); err != nil {
				return err
			}

			report, runErr := a.sched.RunAll(ctx)
			fmt.Fprintln(out, a.sched.StatusMessage())
			s := report.Summary
			fmt.Fprintf(out, "%d checks: %d successful, %d failed, %d pending, %d other\n",
				s.Total, s.Successful, s.Failed, s.Pending, s.Other)

			if exportPath != "" {
				exportErr := export.ExportFile(exportPath, a.registry)
				fmt.Fprintln(out, export.StatusMessage(exportPath, exportErr))
				if exportErr != nil {
					return errors.Join(runErr, exportErr)
				}
			}
			if runErr != nil {
				return runErr
			}
			if strict && s.Failed > 0 {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "write results to a .csv or .json file")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any check failed")
	return cmd
}
