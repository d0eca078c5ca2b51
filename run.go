package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type runOptions struct {
	jsonOutput bool
	strict     bool
}

func newRunCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Simulate a scenario script and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, rootFlags, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail unless every socket is satisfied and every path completed")

	return cmd
}

func runRun(cmd *cobra.Command, rootFlags *rootFlags, path string, opts *runOptions) error {
	source, err := readScript(path)
	if err != nil {
		return err
	}
	app, err := newApp(cmd, rootFlags)
	if err != nil {
		return err
	}

	result := app.Run(cmd.Context(), source)

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		printIssues(out, path, result.CheckResult)
		if result.Report != nil {
			if err := result.Report.WriteText(out); err != nil {
				return err
			}
		}
	}

	if err := issuesError(path, result.CheckResult); err != nil {
		return err
	}
	if opts.strict {
		rep := result.Report
		if rep.SocketsSatisfied() < len(rep.Sockets) || rep.PathsCompleted() < len(rep.Paths) {
			return fmt.Errorf("%s: %d/%d sockets satisfied, %d/%d paths completed",
				path, rep.SocketsSatisfied(), len(rep.Sockets), rep.PathsCompleted(), len(rep.Paths))
		}
	}
	return nil
}
