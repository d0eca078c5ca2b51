package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/gimlet/pkg/config"
	"github.com/chazu/gimlet/pkg/logger"
)

type rootFlags struct {
	configPath string
	logLevel   string
	human      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "gimlet",
		Short:         "Gimlet simulates scripted drilling and path-following exercises",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.human, "human", false, "Write human-readable logs")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// newApp loads the configuration named by flags and builds an App that
// logs to the command's error stream.
func newApp(cmd *cobra.Command, flags *rootFlags) (*App, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, newCommandError("load configuration", flags.configPath, err, "Check the file against the documented config keys.")
		}
		cfg = loaded
	}

	level := cfg.Log.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: cfg.Log.Human || flags.human,
		Writer:        cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, newCommandError("create logger", fmt.Sprintf("level %q", level), err, "Use one of debug, info, warn or error.")
	}

	return NewApp(cfg, log), nil
}

func newCommandError(operation, context string, cause error, suggestion string) error {
	return &commandError{operation: operation, context: context, cause: cause, suggestion: suggestion}
}

type commandError struct {
	operation  string
	context    string
	cause      error
	suggestion string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("Failed to %s: %s\n\nError: %v\n\nSuggestion: %s", e.operation, e.context, e.cause, e.suggestion)
}

func (e *commandError) Unwrap() error { return e.cause }
