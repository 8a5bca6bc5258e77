package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cardtrack/internal/bootstrap"
	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
	"cardtrack/internal/usecase/card"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Card lifecycle commands",
}

var cardCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a card on a node",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardUUID, _ := cmd.Flags().GetString("uuid")
		if strings.TrimSpace(cardUUID) == "" {
			cardUUID = uuid.NewString()
		}
		siteID, _ := cmd.Flags().GetUint64("site")
		nodeID, _ := cmd.Flags().GetUint64("node")
		priorityID, _ := cmd.Flags().GetUint64("priority")
		cardTypeID, _ := cmd.Flags().GetUint64("card-type")
		preclassifierID, _ := cmd.Flags().GetUint64("preclassifier")
		creatorID, _ := cmd.Flags().GetUint64("creator")
		responsibleID, _ := cmd.Flags().GetUint64("responsible")
		value, _ := cmd.Flags().GetString("value")
		comments, _ := cmd.Flags().GetString("comments")
		evidences, err := evidenceFlag(cmd)
		if err != nil {
			return err
		}

		created, err := app.Cards.CreateCard(ctx, card.CreateCardInput{
			CardUUID:        cardUUID,
			SiteID:          siteID,
			NodeID:          nodeID,
			PriorityID:      priorityID,
			CardTypeID:      cardTypeID,
			PreclassifierID: preclassifierID,
			CreatorID:       creatorID,
			ResponsibleID:   responsibleID,
			CardTypeValue:   value,
			Comments:        comments,
			Evidences:       evidences,
		})
		if err != nil {
			return errs.Wrap(err, "create card")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"created card #%d id=%d uuid=%s location=%s due=%s\n",
			created.SiteCardID,
			created.CardID,
			created.CardUUID,
			created.Location,
			created.DueDate,
		); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var cardShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a card by id or uuid",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardID, _ := cmd.Flags().GetUint64("id")
		cardUUID, _ := cmd.Flags().GetString("uuid")
		asJSON, _ := cmd.Flags().GetBool("json")

		var detail card.CardWithEvidences
		switch {
		case cardID != 0:
			out, err := app.Cards.GetByIDWithEvidences(ctx, cardID)
			if err != nil {
				return errs.Wrap(err, "get card")
			}
			detail = out
		case strings.TrimSpace(cardUUID) != "":
			c, err := app.Cards.GetByCorrelationID(ctx, cardUUID)
			if err != nil {
				return errs.Wrap(err, "get card by uuid")
			}
			out, err := app.Cards.GetByIDWithEvidences(ctx, c.CardID)
			if err != nil {
				return errs.Wrap(err, "get card")
			}
			detail = out
		default:
			return fmt.Errorf("--id or --uuid is required")
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), detail)
		}
		return writeCardDetail(cmd.OutOrStdout(), detail)
	}),
}

var cardStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a card by uuid",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardUUID, _ := cmd.Flags().GetString("uuid")
		status, err := app.Cards.StatusByCorrelationID(ctx, cardUUID)
		if err != nil {
			return errs.Wrap(err, "get card status")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", strings.TrimSpace(cardUUID), status.Label(), status); err != nil {
			return errs.Wrap(err, "write status output")
		}
		return nil
	}),
}

var cardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards of a site, node, machine, zone or responsible user",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		siteID, _ := cmd.Flags().GetUint64("site")
		nodeID, _ := cmd.Flags().GetUint64("node")
		machineID, _ := cmd.Flags().GetString("machine")
		zoneID, _ := cmd.Flags().GetUint64("zone")
		responsibleID, _ := cmd.Flags().GetUint64("responsible")

		var (
			items []ports.Card
			err   error
		)
		switch {
		case responsibleID != 0:
			items, err = app.Cards.ListByResponsible(ctx, responsibleID)
		case zoneID != 0:
			items, err = app.Cards.ListByParentNode(ctx, zoneID, siteID)
		case strings.TrimSpace(machineID) != "":
			items, err = app.Cards.ListByLevelMachineID(ctx, siteID, machineID)
		case nodeID != 0:
			items, err = app.Cards.ListByNode(ctx, siteID, nodeID)
		default:
			items, err = app.Cards.ListBySite(ctx, siteID)
		}
		if err != nil {
			logging.Error(ctx, "list cards failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list cards")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no cards"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"#%d [%s] id=%d %s/%s location=%s due=%s\n",
				item.SiteCardID,
				item.Status.Label(),
				item.CardID,
				item.CardTypeName,
				item.PreclassifierCode,
				item.Location,
				item.DueDate,
			); err != nil {
				return errs.Wrap(err, "write list item")
			}
		}
		return nil
	}),
}

var cardProvisionalCmd = &cobra.Command{
	Use:   "provisional",
	Short: "Apply the provisional solution",
	RunE:  withApp(solutionRunner(domaincard.StageProvisional)),
}

var cardDefinitiveCmd = &cobra.Command{
	Use:   "definitive",
	Short: "Apply the definitive solution and resolve the card",
	RunE:  withApp(solutionRunner(domaincard.StageDefinitive)),
}

func solutionRunner(stage domaincard.Stage) func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
	return func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardID, _ := cmd.Flags().GetUint64("id")
		responsibleID, _ := cmd.Flags().GetUint64("responsible")
		actorID, _ := cmd.Flags().GetUint64("actor")
		comments, _ := cmd.Flags().GetString("comments")
		evidences, err := evidenceFlag(cmd)
		if err != nil {
			return err
		}

		input := card.SolutionInput{
			CardID:            cardID,
			ResponsibleUserID: responsibleID,
			AppUserID:         actorID,
			Comments:          comments,
			Evidences:         evidences,
		}
		apply := app.Cards.ApplyProvisionalSolution
		if stage == domaincard.StageDefinitive {
			apply = app.Cards.ApplyDefinitiveSolution
		}
		updated, err := apply(ctx, input)
		if err != nil {
			return errs.Wrapf(err, "apply %s solution", stage)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "card %d %s solution applied status=%s\n", updated.CardID, stage, updated.Status.Label()); err != nil {
			return errs.Wrap(err, "write solution output")
		}
		return nil
	}
}

var cardPriorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Change the card priority",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardID, _ := cmd.Flags().GetUint64("id")
		priorityID, _ := cmd.Flags().GetUint64("priority")
		actorID, _ := cmd.Flags().GetUint64("actor")

		updated, changed, err := app.Cards.ChangePriority(ctx, card.ChangePriorityInput{
			CardID:     cardID,
			PriorityID: priorityID,
			ActorID:    actorID,
		})
		if err != nil {
			return errs.Wrap(err, "change priority")
		}
		return writeReassign(cmd.OutOrStdout(), "priority", updated.CardID, changed, deref(updated.PriorityDescription))
	}),
}

var cardMechanicCmd = &cobra.Command{
	Use:   "mechanic",
	Short: "Change the card mechanic",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardID, _ := cmd.Flags().GetUint64("id")
		mechanicID, _ := cmd.Flags().GetUint64("mechanic")
		actorID, _ := cmd.Flags().GetUint64("actor")

		updated, changed, err := app.Cards.ChangeMechanic(ctx, card.ChangeMechanicInput{
			CardID:     cardID,
			MechanicID: mechanicID,
			ActorID:    actorID,
		})
		if err != nil {
			return errs.Wrap(err, "change mechanic")
		}
		return writeReassign(cmd.OutOrStdout(), "mechanic", updated.CardID, changed, deref(updated.MechanicName))
	}),
}

var cardNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List card notes, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		cardID, _ := cmd.Flags().GetUint64("id")
		notes, err := app.Cards.ListNotes(ctx, cardID)
		if err != nil {
			return errs.Wrap(err, "list notes")
		}
		if len(notes) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no notes"); err != nil {
				return errs.Wrap(err, "write notes output")
			}
			return nil
		}
		for _, note := range notes {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", note.CreatedAt, note.Note); err != nil {
				return errs.Wrap(err, "write note")
			}
		}
		return nil
	}),
}

// evidenceFlag parses repeated --evidence TYPE=URL values.
func evidenceFlag(cmd *cobra.Command) ([]domaincard.EvidenceInput, error) {
	raw, _ := cmd.Flags().GetStringArray("evidence")
	items := make([]domaincard.EvidenceInput, 0, len(raw))
	for _, value := range raw {
		tag, url, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(tag) == "" || strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("invalid --evidence %q, want TYPE=URL", value)
		}
		items = append(items, domaincard.EvidenceInput{
			Type: strings.ToUpper(strings.TrimSpace(tag)),
			URL:  strings.TrimSpace(url),
		})
	}
	return items, nil
}

func writeCardDetail(w io.Writer, detail card.CardWithEvidences) error {
	c := detail.Card
	lines := []string{
		fmt.Sprintf("Card: #%d (id=%d)", c.SiteCardID, c.CardID),
		fmt.Sprintf("UUID: %s", c.CardUUID),
		fmt.Sprintf("Status: %s", c.Status.Label()),
		fmt.Sprintf("Site: %s", c.SiteCode),
		fmt.Sprintf("Location: %s", c.Location),
		fmt.Sprintf("Type: %s (%s)", c.CardTypeName, c.CardTypeMethodologyName),
		fmt.Sprintf("Preclassifier: %s %s", c.PreclassifierCode, c.PreclassifierDescription),
		fmt.Sprintf("Priority: %s", orDash(deref(c.PriorityDescription))),
		fmt.Sprintf("Creator: %s", c.CreatorName),
		fmt.Sprintf("Responsible: %s", orDash(deref(c.ResponsibleName))),
		fmt.Sprintf("Mechanic: %s", orDash(deref(c.MechanicName))),
		fmt.Sprintf("DueDate: %s", c.DueDate),
		fmt.Sprintf("CreatedAt: %s", c.CreatedAt),
		fmt.Sprintf("Comments: %s", orDash(c.CommentsAtCreation)),
	}
	if c.Provisional.IsSet() {
		lines = append(lines, fmt.Sprintf("Provisional: %s on %s", deref(c.Provisional.UserName), deref(c.Provisional.Date)))
	}
	if c.Definitive.IsSet() {
		lines = append(lines, fmt.Sprintf("Definitive: %s on %s", deref(c.Definitive.UserName), deref(c.Definitive.Date)))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errs.Wrap(err, "write card detail")
		}
	}

	if len(detail.Evidences) == 0 {
		_, err := fmt.Fprintln(w, "\nEvidences: none")
		return errs.Wrap(err, "write card detail")
	}
	if _, err := fmt.Fprintln(w, "\nEvidences:"); err != nil {
		return errs.Wrap(err, "write card detail")
	}
	for _, ev := range detail.Evidences {
		if _, err := fmt.Fprintf(w, "- %s %s\n", ev.Type, ev.URL); err != nil {
			return errs.Wrap(err, "write evidence")
		}
	}
	return nil
}

func writeReassign(w io.Writer, field string, cardID uint64, changed bool, value string) error {
	msg := fmt.Sprintf("card %d %s unchanged: %s\n", cardID, field, value)
	if changed {
		msg = fmt.Sprintf("card %d %s changed to %s\n", cardID, field, value)
	}
	if _, err := io.WriteString(w, msg); err != nil {
		return errs.Wrapf(err, "write %s output", field)
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return errs.Wrap(err, "encode json output")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(cardCmd)
	cardCmd.AddCommand(
		cardCreateCmd,
		cardShowCmd,
		cardStatusCmd,
		cardListCmd,
		cardProvisionalCmd,
		cardDefinitiveCmd,
		cardPriorityCmd,
		cardMechanicCmd,
		cardNotesCmd,
	)

	cardCreateCmd.Flags().String("uuid", "", "Card correlation uuid (generated when empty)")
	cardCreateCmd.Flags().Uint64("site", 0, "Site id")
	cardCreateCmd.Flags().Uint64("node", 0, "Node (level) id the card is raised on")
	cardCreateCmd.Flags().Uint64("priority", 0, "Priority id (optional)")
	cardCreateCmd.Flags().Uint64("card-type", 0, "Card type id")
	cardCreateCmd.Flags().Uint64("preclassifier", 0, "Preclassifier id")
	cardCreateCmd.Flags().Uint64("creator", 0, "Creator user id")
	cardCreateCmd.Flags().Uint64("responsible", 0, "Responsible user id (optional)")
	cardCreateCmd.Flags().String("value", "", "Card type value")
	cardCreateCmd.Flags().String("comments", "", "Comments at creation")
	cardCreateCmd.Flags().StringArray("evidence", nil, "Evidence as TYPE=URL, repeatable")
	for _, name := range []string{"site", "node", "card-type", "preclassifier", "creator"} {
		_ = cardCreateCmd.MarkFlagRequired(name)
	}

	cardShowCmd.Flags().Uint64("id", 0, "Card id")
	cardShowCmd.Flags().String("uuid", "", "Card uuid")
	cardShowCmd.Flags().Bool("json", false, "Print JSON")

	cardStatusCmd.Flags().String("uuid", "", "Card uuid")
	_ = cardStatusCmd.MarkFlagRequired("uuid")

	cardListCmd.Flags().Uint64("site", 0, "Site id")
	cardListCmd.Flags().Uint64("node", 0, "Node id")
	cardListCmd.Flags().String("machine", "", "Level machine id")
	cardListCmd.Flags().Uint64("zone", 0, "Superior node id; lists open cards below it")
	cardListCmd.Flags().Uint64("responsible", 0, "Responsible user id")

	for _, c := range []*cobra.Command{cardProvisionalCmd, cardDefinitiveCmd} {
		c.Flags().Uint64("id", 0, "Card id")
		c.Flags().Uint64("responsible", 0, "User responsible for the solution")
		c.Flags().Uint64("actor", 0, "App user recording the solution")
		c.Flags().String("comments", "", "Solution comments")
		c.Flags().StringArray("evidence", nil, "Evidence as TYPE=URL, repeatable")
		_ = c.MarkFlagRequired("id")
	}

	cardPriorityCmd.Flags().Uint64("id", 0, "Card id")
	cardPriorityCmd.Flags().Uint64("priority", 0, "New priority id")
	cardPriorityCmd.Flags().Uint64("actor", 0, "User making the change")

	cardMechanicCmd.Flags().Uint64("id", 0, "Card id")
	cardMechanicCmd.Flags().Uint64("mechanic", 0, "New mechanic user id")
	cardMechanicCmd.Flags().Uint64("actor", 0, "User making the change")

	cardNotesCmd.Flags().Uint64("id", 0, "Card id")
	_ = cardNotesCmd.MarkFlagRequired("id")
}
