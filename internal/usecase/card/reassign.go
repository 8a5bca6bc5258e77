package card

import (
	"context"
	"log/slog"

	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/ports"
)

// ChangePriority reassigns the card priority. It reports false and writes
// nothing when the priority is unchanged.
func (s *Service) ChangePriority(ctx context.Context, input ChangePriorityInput) (result ports.Card, changed bool, err error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.Card{}, false, err
	}
	ctx, span := s.startSpan(ctx, "card.change_priority")
	defer func() { finishSpan(span, err) }()

	if input.CardID == 0 || input.PriorityID == 0 || input.ActorID == 0 {
		return ports.Card{}, false, invalidInput("card id, priority id and actor id are required")
	}

	var from string
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		card, err := s.cards.GetCard(txCtx, input.CardID)
		if err != nil {
			return cardErr(err, input.CardID)
		}
		if card.PriorityID != nil && *card.PriorityID == input.PriorityID {
			result = card
			return nil
		}

		priority, err := s.catalog.FindPriority(txCtx, input.PriorityID)
		if err != nil {
			return catalogErr(err, domaincard.KindPriority, input.PriorityID)
		}
		actor, err := s.catalog.FindUser(txCtx, input.ActorID)
		if err != nil {
			return catalogErr(err, domaincard.KindUser, input.ActorID)
		}

		if card.PriorityDescription != nil {
			from = *card.PriorityDescription
		}
		note, err := domaincard.BuildChangeNote(
			domaincard.Actor{ID: actor.UserID, Name: actor.Name},
			domaincard.NotePriorityChange,
			from,
			priority.PriorityDescription,
		)
		if err != nil {
			return err
		}

		now := formatTime(s.now())
		card.PriorityID = ptr(priority.PriorityID)
		card.PriorityCode = ptr(priority.PriorityCode)
		card.PriorityDescription = ptr(priority.PriorityDescription)
		card.UpdatedAt = now

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

		result = card
		changed = true
		return nil
	}); err != nil {
		return ports.Card{}, false, err
	}

	if changed {
		logging.Info(logging.WithCard(logContext(ctx), result.CardID, result.CardUUID), "card priority changed",
			slog.String("from", from),
			slog.String("to", *result.PriorityDescription),
		)
	}
	return result, changed, nil
}

// ChangeMechanic reassigns the card mechanic, with the same no-op rule as ChangePriority.
func (s *Service) ChangeMechanic(ctx context.Context, input ChangeMechanicInput) (result ports.Card, changed bool, err error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.Card{}, false, err
	}
	ctx, span := s.startSpan(ctx, "card.change_mechanic")
	defer func() { finishSpan(span, err) }()

	if input.CardID == 0 || input.MechanicID == 0 || input.ActorID == 0 {
		return ports.Card{}, false, invalidInput("card id, mechanic id and actor id are required")
	}

	var from string
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		card, err := s.cards.GetCard(txCtx, input.CardID)
		if err != nil {
			return cardErr(err, input.CardID)
		}
		if card.MechanicID != nil && *card.MechanicID == input.MechanicID {
			result = card
			return nil
		}

		mechanic, err := s.catalog.FindUser(txCtx, input.MechanicID)
		if err != nil {
			return catalogErr(err, domaincard.KindUser, input.MechanicID)
		}
		actor, err := s.catalog.FindUser(txCtx, input.ActorID)
		if err != nil {
			return catalogErr(err, domaincard.KindUser, input.ActorID)
		}

		if card.MechanicName != nil {
			from = *card.MechanicName
		}
		note, err := domaincard.BuildChangeNote(
			domaincard.Actor{ID: actor.UserID, Name: actor.Name},
			domaincard.NoteMechanicChange,
			from,
			mechanic.Name,
		)
		if err != nil {
			return err
		}

		now := formatTime(s.now())
		card.MechanicID = ptr(mechanic.UserID)
		card.MechanicName = ptr(mechanic.Name)
		card.UpdatedAt = now

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

		result = card
		changed = true
		return nil
	}); err != nil {
		return ports.Card{}, false, err
	}

	if changed {
		logging.Info(logging.WithCard(logContext(ctx), result.CardID, result.CardUUID), "card mechanic changed",
			slog.String("from", from),
			slog.String("to", *result.MechanicName),
		)
	}
	return result, changed, nil
}
