package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cardtrack/internal/bootstrap"
	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
	"cardtrack/internal/usecase/cardconsole"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Start the interactive card board of a site",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		siteID, _ := cmd.Flags().GetUint64("site")
		openOnly, _ := cmd.Flags().GetBool("open")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := cardconsole.NewBoardModel(ctx, app.Cards, cardconsole.BoardOptions{
			SiteID:          siteID,
			OpenOnly:        openOnly,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run card board")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().Uint64("site", 0, "Site id")
	boardCmd.Flags().Bool("open", false, "Show only cards that are not resolved")
	boardCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
	_ = boardCmd.MarkFlagRequired("site")
}
