package main

import (
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	traceLevel *string
}{}

var rootCmd = &cobra.Command{
	Use:   "grove",
	Short: "Run parsers over a compiled automaton",
	Long: `grove provides three features:
- Parses a text stream with an LR(k) or a GLR parser and prints the tree.
- Runs test cases against an automaton.
- Prints an automaton in readable format.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setTraceLevel,
}

func init() {
	rootFlags.traceLevel = rootCmd.PersistentFlags().String("trace", "error", "trace level of the parsers (error|info|debug)")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

var traceKeys = []string{
	"grove.driver",
	"grove.gss",
}

func setTraceLevel(cmd *cobra.Command, args []string) error {
	var level tracing.TraceLevel
	switch *rootFlags.traceLevel {
	case "error":
		level = tracing.LevelError
	case "info":
		level = tracing.LevelInfo
	case "debug":
		level = tracing.LevelDebug
	default:
		return fmt.Errorf("unknown trace level: %v", *rootFlags.traceLevel)
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(level)
	}
	return nil
}
