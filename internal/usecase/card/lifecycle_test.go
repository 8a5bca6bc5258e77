package card

import (
	"context"
	"errors"
	"testing"
	"time"

	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	"cardtrack/internal/ports"
)

func mustCreate(t *testing.T, f fixture, input CreateCardInput) ports.Card {
	t.Helper()
	card, err := f.svc.CreateCard(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	return card
}

func TestApplyProvisionalSolution(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	f.clock.Advance(2 * time.Hour)
	updated, err := f.svc.ApplyProvisionalSolution(ctx, SolutionInput{
		CardID:            card.CardID,
		ResponsibleUserID: 9,
		AppUserID:         8,
		Comments:          "tightened the clamp",
		Evidences:         []domaincard.EvidenceInput{{URL: "s3://cards/1/fix.jpg", Type: "IMPS"}},
	})
	if err != nil {
		t.Fatalf("ApplyProvisionalSolution() error = %v", err)
	}
	if updated.Status != domaincard.StatusProvisional {
		t.Fatalf("status = %s", updated.Status)
	}
	if *updated.Provisional.UserName != "Max Stone" || *updated.Provisional.AppUserName != "Leo Park" {
		t.Fatalf("provisional users = %v / %v", *updated.Provisional.UserName, *updated.Provisional.AppUserName)
	}
	if *updated.Provisional.Date != "2024-01-03T12:00:00Z" || *updated.Provisional.Comments != "tightened the clamp" {
		t.Fatalf("provisional fields = %+v", updated.Provisional)
	}
	if !updated.Evidence.Has(domaincard.SlotImageProvisional) {
		t.Fatalf("IMPS flag not set")
	}
	if f.cache.data[cacheCardStatusKey(card.CardUUID)] != "P" {
		t.Fatalf("cache status = %q", f.cache.data[cacheCardStatusKey(card.CardUUID)])
	}

	notes, err := f.svc.ListNotes(ctx, card.CardID)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	want := `Leo Park (#8) applied the provisional solution, status changed from "Active" to "Provisional"`
	if len(notes) != 1 || notes[0].Note != want {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestApplyProvisionalSolutionTwiceIsAlreadySet(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	first, err := f.svc.ApplyProvisionalSolution(ctx, SolutionInput{CardID: card.CardID, ResponsibleUserID: 9, AppUserID: 8, Comments: "first"})
	if err != nil {
		t.Fatalf("ApplyProvisionalSolution() error = %v", err)
	}

	f.clock.Advance(time.Hour)
	_, err = f.svc.ApplyProvisionalSolution(ctx, SolutionInput{
		CardID:            card.CardID,
		ResponsibleUserID: 7,
		AppUserID:         7,
		Comments:          "second",
		Evidences:         []domaincard.EvidenceInput{{URL: "late.jpg", Type: "IMPS"}},
	})
	if !errors.Is(err, domaincard.ErrAlreadySet) {
		t.Fatalf("second ApplyProvisionalSolution() error = %v", err)
	}

	stored, err := f.svc.GetByIDWithEvidences(ctx, card.CardID)
	if err != nil {
		t.Fatalf("GetByIDWithEvidences() error = %v", err)
	}
	if *stored.Card.Provisional.UserID != 9 || *stored.Card.Provisional.Comments != "first" {
		t.Fatalf("provisional overwritten: %+v", stored.Card.Provisional)
	}
	if *stored.Card.Provisional.Date != *first.Provisional.Date {
		t.Fatalf("provisional date = %s, want %s", *stored.Card.Provisional.Date, *first.Provisional.Date)
	}
	if len(stored.Evidences) != 0 || stored.Card.Evidence.Has(domaincard.SlotImageProvisional) {
		t.Fatalf("rejected evidence persisted: %+v", stored.Evidences)
	}
	if n := countRows(t, f.db, &model.CardNote{}); n != 1 {
		t.Fatalf("notes = %d, want 1", n)
	}
}

func TestApplyDefinitiveSolution(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	if _, err := f.svc.ApplyProvisionalSolution(ctx, SolutionInput{CardID: card.CardID, ResponsibleUserID: 9, AppUserID: 8}); err != nil {
		t.Fatalf("ApplyProvisionalSolution() error = %v", err)
	}
	resolved, err := f.svc.ApplyDefinitiveSolution(ctx, SolutionInput{
		CardID:            card.CardID,
		ResponsibleUserID: 9,
		AppUserID:         9,
		Evidences:         []domaincard.EvidenceInput{{URL: "done.mp4", Type: "VICL"}},
	})
	if err != nil {
		t.Fatalf("ApplyDefinitiveSolution() error = %v", err)
	}
	if resolved.Status != domaincard.StatusResolved || !resolved.Definitive.IsSet() {
		t.Fatalf("definitive = %+v status = %s", resolved.Definitive, resolved.Status)
	}
	if !resolved.Evidence.Has(domaincard.SlotVideoClosing) {
		t.Fatalf("VICL flag not set")
	}
	if !resolved.Provisional.IsSet() {
		t.Fatalf("provisional fields lost")
	}

	_, err = f.svc.ApplyDefinitiveSolution(ctx, SolutionInput{CardID: card.CardID, ResponsibleUserID: 9, AppUserID: 9})
	if !errors.Is(err, domaincard.ErrAlreadySet) {
		t.Fatalf("second ApplyDefinitiveSolution() error = %v", err)
	}
}

func TestProvisionalAfterDefinitiveIsInvalidTransition(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	if _, err := f.svc.ApplyDefinitiveSolution(ctx, SolutionInput{CardID: card.CardID, ResponsibleUserID: 9, AppUserID: 9}); err != nil {
		t.Fatalf("ApplyDefinitiveSolution() error = %v", err)
	}
	_, err := f.svc.ApplyProvisionalSolution(ctx, SolutionInput{CardID: card.CardID, ResponsibleUserID: 9, AppUserID: 9})
	var ve *domaincard.ValidationError
	if !errors.As(err, &ve) || ve.Kind != domaincard.InvalidTransition {
		t.Fatalf("ApplyProvisionalSolution() error = %v", err)
	}
}

func TestApplySolutionErrors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	_, err := f.svc.ApplyProvisionalSolution(ctx, SolutionInput{CardID: 404, ResponsibleUserID: 9, AppUserID: 8})
	if kind, ok := domaincard.NotFoundKind(err); !ok || kind != domaincard.KindCard {
		t.Fatalf("missing card error = %v", err)
	}

	_, err = f.svc.ApplyProvisionalSolution(ctx, SolutionInput{CardID: card.CardID, ResponsibleUserID: 404, AppUserID: 8})
	if kind, ok := domaincard.NotFoundKind(err); !ok || kind != domaincard.KindUser {
		t.Fatalf("missing user error = %v", err)
	}

	_, err = f.svc.ApplyProvisionalSolution(ctx, SolutionInput{CardID: card.CardID})
	if !errors.Is(err, domaincard.ErrValidation) {
		t.Fatalf("missing ids error = %v", err)
	}
}

func TestChangePriority(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	f.clock.Advance(time.Hour)
	same, changed, err := f.svc.ChangePriority(ctx, ChangePriorityInput{CardID: card.CardID, PriorityID: 1, ActorID: 8})
	if err != nil {
		t.Fatalf("ChangePriority(same) error = %v", err)
	}
	if changed || same.UpdatedAt != card.UpdatedAt {
		t.Fatalf("unchanged priority wrote: changed=%v updated_at=%s", changed, same.UpdatedAt)
	}
	if n := countRows(t, f.db, &model.CardNote{}); n != 0 {
		t.Fatalf("notes = %d, want 0", n)
	}

	updated, changed, err := f.svc.ChangePriority(ctx, ChangePriorityInput{CardID: card.CardID, PriorityID: 2, ActorID: 8})
	if err != nil {
		t.Fatalf("ChangePriority() error = %v", err)
	}
	if !changed || *updated.PriorityCode != "L" || *updated.PriorityDescription != "Low" {
		t.Fatalf("priority = %v / %v", updated.PriorityCode, updated.PriorityDescription)
	}
	if updated.DueDate != card.DueDate {
		t.Fatalf("due date recomputed: %s", updated.DueDate)
	}

	notes, err := f.svc.ListNotes(ctx, card.CardID)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 1 || notes[0].Note != `Leo Park (#8) changed the priority from "High" to "Low"` {
		t.Fatalf("notes = %+v", notes)
	}

	_, _, err = f.svc.ChangePriority(ctx, ChangePriorityInput{CardID: card.CardID, PriorityID: 404, ActorID: 8})
	if kind, ok := domaincard.NotFoundKind(err); !ok || kind != domaincard.KindPriority {
		t.Fatalf("missing priority error = %v", err)
	}
}

func TestChangeMechanicNotesNewestFirst(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))

	f.clock.Advance(time.Minute)
	if _, changed, err := f.svc.ChangeMechanic(ctx, ChangeMechanicInput{CardID: card.CardID, MechanicID: 9, ActorID: 7}); err != nil || !changed {
		t.Fatalf("ChangeMechanic() changed=%v error = %v", changed, err)
	}
	f.clock.Advance(time.Minute)
	if _, changed, err := f.svc.ChangeMechanic(ctx, ChangeMechanicInput{CardID: card.CardID, MechanicID: 9, ActorID: 7}); err != nil || changed {
		t.Fatalf("ChangeMechanic(same) changed=%v error = %v", changed, err)
	}
	f.clock.Advance(time.Minute)
	updated, changed, err := f.svc.ChangeMechanic(ctx, ChangeMechanicInput{CardID: card.CardID, MechanicID: 8, ActorID: 7})
	if err != nil || !changed {
		t.Fatalf("ChangeMechanic() changed=%v error = %v", changed, err)
	}
	if *updated.MechanicName != "Leo Park" {
		t.Fatalf("mechanic = %s", *updated.MechanicName)
	}

	notes, err := f.svc.ListNotes(ctx, card.CardID)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(notes))
	}
	if notes[0].Note != `Ana Ruiz (#7) changed the mechanic from "Max Stone" to "Leo Park"` {
		t.Fatalf("newest note = %q", notes[0].Note)
	}
	if notes[1].Note != `Ana Ruiz (#7) changed the mechanic from "none" to "Max Stone"` {
		t.Fatalf("oldest note = %q", notes[1].Note)
	}

	if _, err := f.svc.ListNotes(ctx, 404); !errors.Is(err, domaincard.ErrNotFound) {
		t.Fatalf("ListNotes(missing) error = %v", err)
	}
}

func TestReadOperations(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	sealer := mustCreate(t, f, sealerCard(1))
	resolved := mustCreate(t, f, sealerCard(2))
	warehouse := sealerCard(3)
	warehouse.NodeID = 4
	mustCreate(t, f, warehouse)

	if _, err := f.svc.ApplyDefinitiveSolution(ctx, SolutionInput{CardID: resolved.CardID, ResponsibleUserID: 9, AppUserID: 9}); err != nil {
		t.Fatalf("ApplyDefinitiveSolution() error = %v", err)
	}

	all, err := f.svc.ListBySite(ctx, 1)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListBySite() = %d cards, error = %v", len(all), err)
	}

	byNode, err := f.svc.ListByNode(ctx, 1, 3)
	if err != nil || len(byNode) != 2 {
		t.Fatalf("ListByNode() = %d cards, error = %v", len(byNode), err)
	}

	byMachine, err := f.svc.ListByLevelMachineID(ctx, 1, " MCH-3 ")
	if err != nil || len(byMachine) != 2 {
		t.Fatalf("ListByLevelMachineID() = %d cards, error = %v", len(byMachine), err)
	}
	if _, err := f.svc.ListByLevelMachineID(ctx, 1, "MCH-404"); !errors.Is(err, domaincard.ErrNotFound) {
		t.Fatalf("ListByLevelMachineID(missing) error = %v", err)
	}

	open, err := f.svc.ListByParentNode(ctx, 2, 1)
	if err != nil {
		t.Fatalf("ListByParentNode() error = %v", err)
	}
	if len(open) != 1 || open[0].CardID != sealer.CardID {
		t.Fatalf("ListByParentNode() = %+v", open)
	}

	got, err := f.svc.GetByCorrelationID(ctx, " "+sealer.CardUUID+" ")
	if err != nil || got.CardID != sealer.CardID {
		t.Fatalf("GetByCorrelationID() = %d, error = %v", got.CardID, err)
	}
	if _, err := f.svc.GetByCorrelationID(ctx, testUUID(404)); !errors.Is(err, domaincard.ErrNotFound) {
		t.Fatalf("GetByCorrelationID(missing) error = %v", err)
	}

	if _, err := f.svc.ListBySite(ctx, 0); !errors.Is(err, domaincard.ErrValidation) {
		t.Fatalf("ListBySite(0) error = %v", err)
	}
}

func TestReports(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	first := mustCreate(t, f, sealerCard(1))
	dust := sealerCard(2)
	dust.PreclassifierID = 2
	dust.CardTypeID = 2
	mustCreate(t, f, dust)

	f.clock.Advance(7 * 24 * time.Hour)
	mustCreate(t, f, sealerCard(3))
	if _, err := f.svc.ApplyDefinitiveSolution(ctx, SolutionInput{CardID: first.CardID, ResponsibleUserID: 9, AppUserID: 9}); err != nil {
		t.Fatalf("ApplyDefinitiveSolution() error = %v", err)
	}

	counts, err := f.svc.CountByPreclassifier(ctx, 1)
	if err != nil {
		t.Fatalf("CountByPreclassifier() error = %v", err)
	}
	if len(counts) != 2 || counts[0].Key != "LK" || counts[0].TotalCards != 2 || counts[1].Key != "DS" || counts[1].TotalCards != 1 {
		t.Fatalf("CountByPreclassifier() = %+v", counts)
	}

	creators, err := f.svc.CountByCreator(ctx, 1)
	if err != nil {
		t.Fatalf("CountByCreator() error = %v", err)
	}
	if len(creators) != 1 || creators[0].Label != "Ana Ruiz" || creators[0].TotalCards != 3 {
		t.Fatalf("CountByCreator() = %+v", creators)
	}

	if _, err := f.svc.CountBy(ctx, 1, ports.GroupBy("colors")); !errors.Is(err, domaincard.ErrValidation) {
		t.Fatalf("CountBy(unknown) error = %v", err)
	}

	series, err := f.svc.WeeklySeries(ctx, 1)
	if err != nil {
		t.Fatalf("WeeklySeries() error = %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("WeeklySeries() = %+v", series)
	}
	if series[0].Week != 1 || series[0].Issued != 2 || series[0].Eradicated != 0 {
		t.Fatalf("week 1 = %+v", series[0])
	}
	if series[1].Week != 2 || series[1].Issued != 1 || series[1].Eradicated != 1 {
		t.Fatalf("week 2 = %+v", series[1])
	}
	if series[1].CumulativeIssued != 3 || series[1].CumulativeEradicated != 1 {
		t.Fatalf("cumulative = %+v", series[1])
	}
}

func TestReadsHideSoftDeletedCards(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	input := sealerCard(1)
	input.ResponsibleID = 9
	deleted := mustCreate(t, f, input)
	live := mustCreate(t, f, sealerCard(2))

	if err := f.db.Model(&model.Card{}).
		Where("card_id = ?", deleted.CardID).
		Update("deleted_at", "2024-01-04T10:00:00Z").Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	lists := map[string]func() ([]ports.Card, error){
		"site":        func() ([]ports.Card, error) { return f.svc.ListBySite(ctx, 1) },
		"node":        func() ([]ports.Card, error) { return f.svc.ListByNode(ctx, 1, 3) },
		"machine":     func() ([]ports.Card, error) { return f.svc.ListByLevelMachineID(ctx, 1, "MCH-3") },
		"zone":        func() ([]ports.Card, error) { return f.svc.ListByParentNode(ctx, 2, 1) },
		"responsible": func() ([]ports.Card, error) { return f.svc.ListByResponsible(ctx, 9) },
	}
	for name, list := range lists {
		items, err := list()
		if err != nil {
			t.Fatalf("%s list error = %v", name, err)
		}
		for _, item := range items {
			if item.CardID == deleted.CardID {
				t.Fatalf("%s list returned soft-deleted card %d", name, deleted.CardID)
			}
		}
		if name != "responsible" && (len(items) != 1 || items[0].CardID != live.CardID) {
			t.Fatalf("%s list = %+v, want only card %d", name, items, live.CardID)
		}
	}

	if _, err := f.svc.GetByCorrelationID(ctx, deleted.CardUUID); !errors.Is(err, domaincard.ErrNotFound) {
		t.Fatalf("GetByCorrelationID(deleted) error = %v", err)
	}
}

func TestStatusByCorrelationIDReadsCache(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	card := mustCreate(t, f, sealerCard(1))
	key := cacheCardStatusKey(card.CardUUID)

	f.cache.data[key] = "V"
	status, err := f.svc.StatusByCorrelationID(ctx, " "+card.CardUUID+" ")
	if err != nil {
		t.Fatalf("StatusByCorrelationID() error = %v", err)
	}
	if status != domaincard.StatusVerified {
		t.Fatalf("status = %q, want cached V", status)
	}

	delete(f.cache.data, key)
	status, err = f.svc.StatusByCorrelationID(ctx, card.CardUUID)
	if err != nil || status != domaincard.StatusActive {
		t.Fatalf("StatusByCorrelationID(miss) = %q, %v", status, err)
	}
	if f.cache.data[key] != "A" {
		t.Fatalf("cache not refreshed on miss: %q", f.cache.data[key])
	}

	f.cache.data[key] = "garbage"
	status, err = f.svc.StatusByCorrelationID(ctx, card.CardUUID)
	if err != nil || status != domaincard.StatusActive {
		t.Fatalf("StatusByCorrelationID(unreadable) = %q, %v", status, err)
	}
	if f.cache.data[key] != "A" {
		t.Fatalf("unreadable entry not replaced: %q", f.cache.data[key])
	}

	if _, err := f.svc.StatusByCorrelationID(ctx, testUUID(99)); !errors.Is(err, domaincard.ErrNotFound) {
		t.Fatalf("StatusByCorrelationID(missing) error = %v", err)
	}
	if _, err := f.svc.StatusByCorrelationID(ctx, "  "); !errors.Is(err, domaincard.ErrValidation) {
		t.Fatalf("StatusByCorrelationID(blank) error = %v", err)
	}
}
