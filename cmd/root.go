/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cardtrack",
	Short: "Maintenance card lifecycle and reporting",
	Long: "cardtrack raises issue cards against plant hierarchy nodes, moves them through " +
		"provisional and definitive solutions, and reports grouped and weekly counts.",
	SilenceUsage: true,
}

// Execute runs the root command. Until a command loads its config, logs go to
// stderr as text at info level.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	ctx = logging.WithLogger(ctx, logging.New(rootCmd.ErrOrStderr(), "text", "info"))
	ctx = logging.WithAttrs(ctx, slog.String("app", "cardtrack"))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
}
