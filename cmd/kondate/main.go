package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kondate-dev/kondate/internal/buildinfo"
	"github.com/kondate-dev/kondate/internal/log"
)

var (
	flagVerbose bool
	flagDebug   bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "kondate",
	Short: "A recipe box with conversational editing",
	Long: `kondate stores imported recipes and refines them through
natural-language edit requests answered by a tool-calling model.

Recipes are versioned: every accepted edit becomes an immutable
snapshot with an ingredient changeset against the version it replaced.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		switch {
		case flagDebug:
			level = slog.LevelDebug
		case flagVerbose:
			level = slog.LevelInfo
		case flagQuiet:
			level = slog.LevelError
		}
		log.SetDefault(log.NewText(os.Stderr, level))
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show operational context")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "show internal troubleshooting detail")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "errors only")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
