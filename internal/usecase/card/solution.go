package card

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/ports"
)

// ApplyProvisionalSolution moves an Active card to Provisional. A stage can
// only be written once.
func (s *Service) ApplyProvisionalSolution(ctx context.Context, input SolutionInput) (ports.Card, error) {
	return s.applySolution(ctx, domaincard.StageProvisional, input)
}

// ApplyDefinitiveSolution resolves the card.
func (s *Service) ApplyDefinitiveSolution(ctx context.Context, input SolutionInput) (ports.Card, error) {
	return s.applySolution(ctx, domaincard.StageDefinitive, input)
}

func (s *Service) applySolution(ctx context.Context, stage domaincard.Stage, input SolutionInput) (updated ports.Card, err error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.Card{}, err
	}
	ctx, span := s.startSpan(ctx, "card."+string(stage)+"_solution")
	defer func() { finishSpan(span, err) }()

	if input.CardID == 0 {
		return ports.Card{}, invalidInput("card id is required")
	}
	if input.ResponsibleUserID == 0 || input.AppUserID == 0 {
		return ports.Card{}, invalidInput("responsible and app user ids are required")
	}

	responsible, appUser, err := s.loadSolutionUsers(ctx, input)
	if err != nil {
		return ports.Card{}, err
	}

	var from domaincard.Status
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		card, err := s.cards.GetCard(txCtx, input.CardID)
		if err != nil {
			return cardErr(err, input.CardID)
		}

		current := solutionFields(&card, stage)
		if err := domaincard.CanApply(stage, card.Status, current.IsSet()); err != nil {
			return err
		}

		from = card.Status
		to := stage.TargetStatus()
		note, err := domaincard.BuildChangeNote(
			domaincard.Actor{ID: appUser.UserID, Name: appUser.Name},
			noteKindFor(stage),
			from.Label(),
			to.Label(),
		)
		if err != nil {
			return err
		}

		now := formatTime(s.now())
		*current = ports.SolutionFields{
			UserID:      ptr(responsible.UserID),
			UserName:    ptr(responsible.Name),
			AppUserID:   ptr(appUser.UserID),
			AppUserName: ptr(appUser.Name),
			Date:        ptr(now),
			Comments:    ptr(strings.TrimSpace(input.Comments)),
		}
		card.Status = to
		card.UpdatedAt = now
		card.Evidence = domaincard.FoldEvidence(card.Evidence, domaincard.EvidenceTags(input.Evidences))

		if err := s.cards.CreateEvidences(txCtx, evidenceRows(card.CardID, card.SiteID, input.Evidences, now)); err != nil {
			return err
		}
		if err := s.cards.UpdateCard(txCtx, card); err != nil {
			return err
		}
		if err := s.cards.AppendCardNote(txCtx, ports.CardNoteCreate{
			CardID:    card.CardID,
			SiteID:    card.SiteID,
			Note:      note,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		updated = card
		return nil
	}); err != nil {
		return ports.Card{}, err
	}

	logCtx := logging.WithCard(logContext(ctx), updated.CardID, updated.CardUUID)
	logging.Info(logCtx, "solution applied",
		slog.String("stage", string(stage)),
		slog.String("from", string(from)),
		slog.String("to", string(updated.Status)),
	)
	s.setCacheBestEffort(logCtx, cacheCardStatusKey(updated.CardUUID), string(updated.Status))
	s.instruments.Transition(ctx, string(from), string(updated.Status))
	return updated, nil
}

func (s *Service) loadSolutionUsers(ctx context.Context, input SolutionInput) (ports.User, ports.User, error) {
	var responsible, appUser ports.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.catalog.FindUser(gctx, input.ResponsibleUserID)
		if err != nil {
			return catalogErr(err, domaincard.KindUser, input.ResponsibleUserID)
		}
		responsible = user
		return nil
	})
	g.Go(func() error {
		user, err := s.catalog.FindUser(gctx, input.AppUserID)
		if err != nil {
			return catalogErr(err, domaincard.KindUser, input.AppUserID)
		}
		appUser = user
		return nil
	})
	if err := g.Wait(); err != nil {
		return ports.User{}, ports.User{}, err
	}
	return responsible, appUser, nil
}

func solutionFields(card *ports.Card, stage domaincard.Stage) *ports.SolutionFields {
	if stage == domaincard.StageDefinitive {
		return &card.Definitive
	}
	return &card.Provisional
}

func noteKindFor(stage domaincard.Stage) domaincard.NoteKind {
	if stage == domaincard.StageDefinitive {
		return domaincard.NoteDefinitiveSolution
	}
	return domaincard.NoteProvisionalSolution
}
