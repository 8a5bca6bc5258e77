package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"cardtrack/internal/bootstrap"
	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

const weeklyReportKind = "weekly"

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true)
	reportKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	reportDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var reportCmd = &cobra.Command{
	Use:       "report <kind>",
	Short:     "Card counts of a site grouped by a dimension, or the weekly series",
	Args:      cobra.ExactArgs(1),
	ValidArgs: reportKinds(),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		kind := strings.ToLower(strings.TrimSpace(args[0]))
		siteID, _ := cmd.Flags().GetUint64("site")

		if kind == weeklyReportKind {
			points, err := app.Cards.WeeklySeries(ctx, siteID)
			if err != nil {
				return errs.Wrap(err, "weekly series")
			}
			return renderWeeklyReport(cmd.OutOrStdout(), siteID, points)
		}

		by := ports.GroupBy(kind)
		if !slices.Contains(ports.GroupDimensions(), by) {
			return fmt.Errorf("unknown report kind %q, want one of %s", kind, strings.Join(reportKinds(), ", "))
		}
		rows, err := app.Cards.CountBy(ctx, siteID, by)
		if err != nil {
			return errs.Wrapf(err, "count cards by %s", by)
		}
		return renderGroupReport(cmd.OutOrStdout(), siteID, by, rows)
	}),
}

func reportKinds() []string {
	kinds := make([]string, 0, len(ports.GroupDimensions())+1)
	for _, by := range ports.GroupDimensions() {
		kinds = append(kinds, string(by))
	}
	return append(kinds, weeklyReportKind)
}

func renderGroupReport(w io.Writer, siteID uint64, by ports.GroupBy, rows []ports.GroupCount) error {
	var b strings.Builder
	b.WriteString(reportTitleStyle.Render(fmt.Sprintf("Site %d cards by %s", siteID, by)))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(reportDimStyle.Render("no cards"))
		b.WriteString("\n")
	}

	total := 0
	for _, row := range rows {
		total += row.TotalCards
		label := row.Label
		if strings.TrimSpace(label) == "" {
			label = row.Key
		}
		line := fmt.Sprintf("%s %s %d", reportKeyStyle.Render(row.Key), label, row.TotalCards)
		if row.Detail != "" {
			line += " " + reportDimStyle.Render(row.Detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(rows) > 0 {
		b.WriteString(reportDimStyle.Render(fmt.Sprintf("total %d", total)))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errs.Wrap(err, "write report output")
	}
	return nil
}

func renderWeeklyReport(w io.Writer, siteID uint64, points []domaincard.WeeklyPoint) error {
	var b strings.Builder
	b.WriteString(reportTitleStyle.Render(fmt.Sprintf("Site %d weekly cards", siteID)))
	b.WriteString("\n")
	if len(points) == 0 {
		b.WriteString(reportDimStyle.Render("no cards"))
		b.WriteString("\n")
	}
	for _, p := range points {
		b.WriteString(fmt.Sprintf(
			"%s issued=%d eradicated=%d cumulative_issued=%d cumulative_eradicated=%d\n",
			reportKeyStyle.Render(fmt.Sprintf("%d-W%02d", p.Year, p.Week)),
			p.Issued,
			p.Eradicated,
			p.CumulativeIssued,
			p.CumulativeEradicated,
		))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errs.Wrap(err, "write report output")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Uint64("site", 0, "Site id")
	_ = reportCmd.MarkFlagRequired("site")
}
