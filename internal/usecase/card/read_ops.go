package card

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

func (s *Service) checkRead(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.cards == nil {
		return errors.New("card repository is required")
	}
	return nil
}

func (s *Service) ListBySite(ctx context.Context, siteID uint64) ([]ports.Card, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	if siteID == 0 {
		return nil, invalidInput("site id is required")
	}
	return s.cards.ListCards(ctx, ports.CardFilter{SiteID: siteID})
}

func (s *Service) ListByNode(ctx context.Context, siteID uint64, nodeID uint64) ([]ports.Card, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	if siteID == 0 || nodeID == 0 {
		return nil, invalidInput("site id and node id are required")
	}
	return s.cards.ListCards(ctx, ports.CardFilter{SiteID: siteID, NodeID: nodeID})
}

// ListByLevelMachineID lists the cards raised on the node tagged with machineID.
func (s *Service) ListByLevelMachineID(ctx context.Context, siteID uint64, machineID string) ([]ports.Card, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	if s.catalog == nil {
		return nil, errors.New("catalog reader is required")
	}
	machineID = strings.TrimSpace(machineID)
	if siteID == 0 || machineID == "" {
		return nil, invalidInput("site id and level machine id are required")
	}

	level, err := s.catalog.FindLevelByMachineID(ctx, siteID, machineID)
	if err != nil {
		if errors.Is(err, ports.ErrCatalogNotFound) {
			return nil, domaincard.NotFound(domaincard.KindNode, machineID)
		}
		return nil, errs.Wrap(err, "find level by machine id")
	}
	return s.cards.ListCards(ctx, ports.CardFilter{SiteID: siteID, NodeID: level.LevelID})
}

func (s *Service) ListByResponsible(ctx context.Context, responsibleID uint64) ([]ports.Card, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	if responsibleID == 0 {
		return nil, invalidInput("responsible id is required")
	}
	return s.cards.ListCards(ctx, ports.CardFilter{ResponsibleID: responsibleID})
}

// ListByParentNode lists open, live cards whose superior node is parentID.
func (s *Service) ListByParentNode(ctx context.Context, parentID uint64, siteID uint64) ([]ports.Card, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	if parentID == 0 || siteID == 0 {
		return nil, invalidInput("superior id and site id are required")
	}
	return s.cards.ListCards(ctx, ports.CardFilter{
		SiteID:     siteID,
		SuperiorID: parentID,
		Statuses:   domaincard.OpenStatuses,
	})
}

func (s *Service) GetByCorrelationID(ctx context.Context, cardUUID string) (ports.Card, error) {
	if err := s.checkRead(ctx); err != nil {
		return ports.Card{}, err
	}
	cardUUID = strings.TrimSpace(cardUUID)
	if cardUUID == "" {
		return ports.Card{}, invalidInput("card uuid is required")
	}

	card, err := s.cards.GetCardByUUID(ctx, cardUUID)
	if err != nil {
		if errors.Is(err, ports.ErrCardNotFound) {
			return ports.Card{}, domaincard.NotFound(domaincard.KindCard, cardUUID)
		}
		return ports.Card{}, errs.Wrap(err, "get card by uuid")
	}
	return card, nil
}

// StatusByCorrelationID returns the card's status code, reading the status
// cache first. A miss or an unreadable entry falls back to the store and
// refreshes the cache.
func (s *Service) StatusByCorrelationID(ctx context.Context, cardUUID string) (domaincard.Status, error) {
	if err := s.checkRead(ctx); err != nil {
		return "", err
	}
	cardUUID = strings.TrimSpace(cardUUID)
	if cardUUID == "" {
		return "", invalidInput("card uuid is required")
	}

	logCtx := logContext(ctx)
	key := cacheCardStatusKey(cardUUID)
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			logging.Warn(logCtx, "cache read failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		case found:
			status, parseErr := domaincard.ParseStatus(strings.TrimSpace(cached))
			if parseErr == nil {
				return status, nil
			}
			logging.Warn(logCtx, "cached card status unreadable", slog.String("key", key), slog.String("value", cached))
		}
	}

	card, err := s.GetByCorrelationID(ctx, cardUUID)
	if err != nil {
		return "", err
	}
	s.setCacheBestEffort(logCtx, key, string(card.Status))
	return card.Status, nil
}

func (s *Service) GetByIDWithEvidences(ctx context.Context, cardID uint64) (CardWithEvidences, error) {
	if err := s.checkRead(ctx); err != nil {
		return CardWithEvidences{}, err
	}

	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return CardWithEvidences{}, cardErr(err, cardID)
	}
	evidences, err := s.cards.ListEvidences(ctx, cardID)
	if err != nil {
		return CardWithEvidences{}, errs.Wrap(err, "list evidences")
	}
	return CardWithEvidences{Card: card, Evidences: evidences}, nil
}

// ListNotes returns the card's audit notes, newest first.
func (s *Service) ListNotes(ctx context.Context, cardID uint64) ([]ports.CardNote, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	if _, err := s.cards.GetCard(ctx, cardID); err != nil {
		return nil, cardErr(err, cardID)
	}
	return s.cards.ListCardNotes(ctx, cardID)
}
