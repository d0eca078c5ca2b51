package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type checkOptions struct {
	jsonOutput bool
}

func newCheckCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Evaluate and validate a scenario script without simulating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootFlags, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

func runCheck(cmd *cobra.Command, rootFlags *rootFlags, path string, opts *checkOptions) error {
	source, err := readScript(path)
	if err != nil {
		return err
	}
	app, err := newApp(cmd, rootFlags)
	if err != nil {
		return err
	}

	result := app.Check(source)

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		printIssues(out, path, result)
		if result.OK() {
			s := result.Script
			fmt.Fprintf(out, "%s: ok (%d surfaces, %d sockets, %d paths, %d steps, %d ticks)\n",
				path, len(s.Surfaces), len(s.Sockets), len(s.Paths), len(s.Steps), s.TickCount())
		}
	}
	return issuesError(path, result)
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", newCommandError("read script", path, err, "Check that the file exists and is readable.")
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printIssues(w io.Writer, path string, result CheckResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "%s: error: %s\n", path, formatIssue(e))
	}
	for _, e := range result.Warnings {
		fmt.Fprintf(w, "%s: warning: %s\n", path, formatIssue(e))
	}
}

func formatIssue(e IssueData) string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	default:
		return e.Message
	}
}

// issuesError turns blocking issues into the command's exit error.
func issuesError(path string, result CheckResult) error {
	if result.OK() {
		return nil
	}
	return fmt.Errorf("%s: %d error(s)", path, len(result.Errors))
}
