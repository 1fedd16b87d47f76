package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/justincosentino/quart/internal/quadtree"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

// logLevelEnv overrides the log level when --verbose is not given.
const logLevelEnv = "QUART_LOG_LEVEL"

var rootCmd = &cobra.Command{
	Use:   "quart",
	Short: "Approximate images with adaptive quadtrees",
	Long: `quart - repeatedly splits the worst-approximated region of an image
into four flat-colored quadrants, rendering the result as a mosaic.

Optionally captures snapshots as the error drops and assembles them
into a looping GIF.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		l := newLogger(cmd.ErrOrStderr(), logLevel())
		slog.SetDefault(l)
		quadtree.SetLogger(l)
	},
}

// Execute runs the root command. main prints the returned error.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"quart %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logLevel is debug with --verbose, else whatever QUART_LOG_LEVEL names,
// else warn.
func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if v := os.Getenv(logLevelEnv); v != "" && lvl.UnmarshalText([]byte(strings.ToUpper(v))) == nil {
		return lvl
	}
	return slog.LevelWarn
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
