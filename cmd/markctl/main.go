// Command markctl drives the annotation engine without a window: it prints
// fit layouts and replays recorded input scripts.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"markcanvas/internal/config"
	"markcanvas/internal/logging"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "markctl",
		Short: "Headless tools for the MarkCanvas annotation engine",
		Long: `markctl runs the annotation engine without a window. It can compute how an
image fits a view, and replay a recorded input script to produce annotation
JSON, a rendered PNG or rows in the annotation store.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configDir, "config", "", "directory containing markcanvas.json")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newFitCmd(), newReplayCmd(g), newVersionCmd())
	return rootCmd
}

// settings loads the configuration and builds the logger for a command.
func (g *globals) settings(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	cfg := config.Default()
	if g.configDir != "" {
		if err := config.Load(g.configDir); err != nil {
			return cfg, zerolog.Nop(), err
		}
		cfg = config.Get()
	}
	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	return cfg, logging.New(level, cmd.ErrOrStderr(), true), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
