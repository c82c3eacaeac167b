// Package cli implements the posecoach command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecoach/internal/config"
	"github.com/teslashibe/go-posecoach/internal/log"
)

// Version is set at build time.
var Version = "dev"

// app carries state shared by subcommands once the config is loaded.
type app struct {
	configPath string
	logLevel   string
	logFile    string

	cfg    config.Config
	logger *slog.Logger
	closer io.Closer
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "posecoach",
		Short:         "Score yoga poses against reference angles and track progress",
		Long:          "posecoach samples joint angles from a tracking source, scores each reading against a reference pose, and keeps a history of practice sessions.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ./posecoach.toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stdout")

	rootCmd.AddCommand(
		newServeCmd(a),
		newPracticeCmd(a),
		newPosesCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// load reads the config and configures logging. Commands that write
// their own output still log through a.logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	opts := log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()}
	if a.logFile != "" {
		f, err := os.OpenFile(a.logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		opts.Output = f
		a.closer = f
	}
	log.Configure(opts)
	a.logger = log.L()
	return nil
}
