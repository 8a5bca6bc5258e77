package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cardtrack/internal/bootstrap"
	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
	"cardtrack/internal/infrastructure/catalogfile"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog seed commands",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Upsert sites, levels, priorities, card types, preclassifiers and users from a YAML or TOML file",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		file, _ := cmd.Flags().GetString("file")
		snapshot, err := catalogfile.Load(file)
		if err != nil {
			return err
		}
		if err := app.Catalog.UpsertCatalog(ctx, snapshot); err != nil {
			return errs.Wrap(err, "import catalog")
		}

		logging.Info(ctx, "catalog imported", slog.String("file", file))
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"catalog imported sites=%d levels=%d priorities=%d card_types=%d preclassifiers=%d users=%d\n",
			len(snapshot.Sites),
			len(snapshot.Levels),
			len(snapshot.Priorities),
			len(snapshot.CardTypes),
			len(snapshot.Preclassifiers),
			len(snapshot.Users),
		); err != nil {
			return errs.Wrap(err, "write catalog output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)

	catalogImportCmd.Flags().String("file", "", "Catalog file (.yaml, .yml or .toml)")
	_ = catalogImportCmd.MarkFlagRequired("file")
}
