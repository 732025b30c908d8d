package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var showResult bool

	cmd := &cobra.Command{
		Use:   "check <index>",
		Short: "Run a single check by its position in the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			if err := a.reload(ctx); err != nil {
				return err
			}
			if err := a.sched.RunIndex(ctx, index); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rec, _ := a.registry.At(index)
			snap := rec.Snapshot()
			fmt.Fprintln(out, a.sched.StatusMessage())
			fmt.Fprintf(out, "%s (%s): %s\n", snap.Description, snap.Type, snap.Status)

			if showResult && snap.HasResult {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.Result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showResult, "result", false, "print the raw result document")
	return cmd
}
