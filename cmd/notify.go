package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cardtrack/internal/bootstrap"
	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification outbox commands",
}

var notifyDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver one batch of pending notifications",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		sent, err := app.Dispatcher.DispatchPending(ctx)
		if err != nil {
			return errs.Wrap(err, "dispatch pending notifications")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d notification(s)\n", sent); err != nil {
			return errs.Wrap(err, "write dispatch output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyDispatchCmd)
}
