package card

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

const methodologyWithValue = "M"

// createRefs holds the catalog records a new card snapshots from.
type createRefs struct {
	site          ports.Site
	node          ports.Level
	levels        []ports.Level
	priority      *ports.Priority
	cardType      ports.CardType
	preclassifier ports.Preclassifier
	creator       ports.User
	responsible   *ports.User
}

// CreateCard validates references, snapshots catalog data, and persists the
// card with its evidence and notification in one transaction.
func (s *Service) CreateCard(ctx context.Context, input CreateCardInput) (created ports.Card, err error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.Card{}, err
	}
	ctx, span := s.startSpan(ctx, "card.create")
	defer func() { finishSpan(span, err) }()
	logCtx := logContext(ctx)

	cardUUID := strings.TrimSpace(input.CardUUID)
	if _, err := uuid.Parse(cardUUID); err != nil {
		return ports.Card{}, invalidInput(fmt.Sprintf("card uuid %q is not a valid uuid", input.CardUUID))
	}
	if err := validateCreateInput(input); err != nil {
		return ports.Card{}, err
	}

	refs, err := s.loadCreateRefs(ctx, input)
	if err != nil {
		return ports.Card{}, err
	}

	nodes := make(map[uint64]domaincard.Node, len(refs.levels))
	for _, level := range refs.levels {
		nodes[level.LevelID] = domaincard.Node{ID: level.LevelID, SuperiorID: level.SuperiorID, Name: level.Name}
	}
	resolution, err := domaincard.Resolve(refs.node.LevelID, nodes)
	if err != nil {
		return ports.Card{}, err
	}

	now := s.now()
	card := buildCard(cardUUID, input, refs, resolution, now)
	flags := domaincard.FoldEvidence(domaincard.EvidenceFlags{}, domaincard.EvidenceTags(input.Evidences))

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.cards.CardUUIDExists(txCtx, cardUUID)
		if err != nil {
			return err
		}
		if exists {
			return &domaincard.ValidationError{Kind: domaincard.DuplicateCorrelationID, Detail: cardUUID}
		}

		siteCardID, err := s.cards.NextSiteCardID(txCtx, card.SiteID)
		if err != nil {
			return errs.Wrap(err, "allocate site card id")
		}
		card.SiteCardID = siteCardID

		created, err = s.cards.CreateCard(txCtx, card)
		if err != nil {
			return err
		}

		if err := s.cards.CreateEvidences(txCtx, evidenceRows(created.CardID, created.SiteID, input.Evidences, created.CreatedAt)); err != nil {
			return err
		}
		if flags != (domaincard.EvidenceFlags{}) {
			created.Evidence = created.Evidence.Merge(flags)
			if err := s.cards.UpdateCard(txCtx, created); err != nil {
				return err
			}
		}

		return s.enqueueCreatedNotification(txCtx, created)
	}); err != nil {
		return ports.Card{}, err
	}

	logCtx = logging.WithCard(logCtx, created.CardID, created.CardUUID)
	logging.Info(logCtx, "card created",
		slog.Uint64("site_id", created.SiteID),
		slog.Uint64("site_card_id", created.SiteCardID),
		slog.Int("evidences", len(input.Evidences)),
	)
	s.setCacheBestEffort(logCtx, cacheCardStatusKey(created.CardUUID), string(created.Status))
	s.instruments.CardCreated(ctx, created.SiteCode)
	s.wake()
	return created, nil
}

func validateCreateInput(input CreateCardInput) error {
	switch {
	case input.SiteID == 0:
		return invalidInput("site id is required")
	case input.NodeID == 0:
		return invalidInput("node id is required")
	case input.CardTypeID == 0:
		return invalidInput("card type id is required")
	case input.PreclassifierID == 0:
		return invalidInput("preclassifier id is required")
	case input.CreatorID == 0:
		return invalidInput("creator id is required")
	}
	return nil
}

// loadCreateRefs fetches every referenced catalog record concurrently.
func (s *Service) loadCreateRefs(ctx context.Context, input CreateCardInput) (createRefs, error) {
	var refs createRefs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		site, err := s.catalog.FindSite(gctx, input.SiteID)
		if err != nil {
			return catalogErr(err, domaincard.KindSite, input.SiteID)
		}
		refs.site = site
		return nil
	})
	g.Go(func() error {
		node, err := s.catalog.FindLevel(gctx, input.NodeID)
		if err != nil {
			return catalogErr(err, domaincard.KindNode, input.NodeID)
		}
		refs.node = node
		return nil
	})
	g.Go(func() error {
		levels, err := s.catalog.ListSiteLevels(gctx, input.SiteID)
		if err != nil {
			return errs.Wrap(err, "list site levels")
		}
		refs.levels = levels
		return nil
	})
	if input.PriorityID != 0 {
		g.Go(func() error {
			priority, err := s.catalog.FindPriority(gctx, input.PriorityID)
			if err != nil {
				return catalogErr(err, domaincard.KindPriority, input.PriorityID)
			}
			refs.priority = &priority
			return nil
		})
	}
	g.Go(func() error {
		cardType, err := s.catalog.FindCardType(gctx, input.CardTypeID)
		if err != nil {
			return catalogErr(err, domaincard.KindCardType, input.CardTypeID)
		}
		refs.cardType = cardType
		return nil
	})
	g.Go(func() error {
		preclassifier, err := s.catalog.FindPreclassifier(gctx, input.PreclassifierID)
		if err != nil {
			return catalogErr(err, domaincard.KindPreclassifier, input.PreclassifierID)
		}
		refs.preclassifier = preclassifier
		return nil
	})
	g.Go(func() error {
		creator, err := s.catalog.FindUser(gctx, input.CreatorID)
		if err != nil {
			return catalogErr(err, domaincard.KindUser, input.CreatorID)
		}
		refs.creator = creator
		return nil
	})
	if input.ResponsibleID != 0 {
		g.Go(func() error {
			responsible, err := s.catalog.FindUser(gctx, input.ResponsibleID)
			if err != nil {
				return catalogErr(err, domaincard.KindUser, input.ResponsibleID)
			}
			refs.responsible = &responsible
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return createRefs{}, err
	}
	if refs.node.SiteID != input.SiteID {
		return createRefs{}, domaincard.NotFound(domaincard.KindNode, input.NodeID)
	}
	return refs, nil
}

func buildCard(cardUUID string, input CreateCardInput, refs createRefs, res domaincard.Resolution, now time.Time) ports.Card {
	createdAt := formatTime(now)
	card := ports.Card{
		CardUUID:                 cardUUID,
		SiteID:                   refs.site.SiteID,
		SiteCode:                 refs.site.SiteCode,
		AreaID:                   res.Area.ID,
		AreaName:                 res.Area.Name,
		LevelName:                res.Area.Name,
		NodeID:                   res.Leaf.ID,
		NodeName:                 res.Leaf.Name,
		Level:                    res.Depth,
		Location:                 res.Location,
		SuperiorID:               res.SuperiorID,
		CardTypeID:               refs.cardType.CardTypeID,
		CardTypeColor:            refs.cardType.Color,
		CardTypeMethodologyName:  refs.cardType.Methodology,
		CardTypeName:             refs.cardType.Name,
		PreclassifierID:          refs.preclassifier.PreclassifierID,
		PreclassifierCode:        refs.preclassifier.PreclassifierCode,
		PreclassifierDescription: refs.preclassifier.PreclassifierDescription,
		CreatorID:                refs.creator.UserID,
		CreatorName:              refs.creator.Name,
		Status:                   domaincard.StatusActive,
		DueDate:                  createdAt,
		CommentsAtCreation:       strings.TrimSpace(input.Comments),
		CreatedAt:                createdAt,
		UpdatedAt:                createdAt,
	}

	if refs.cardType.CardTypeMethodology == methodologyWithValue {
		card.CardTypeMethodology = ptr(refs.cardType.CardTypeMethodology)
		if value := strings.TrimSpace(input.CardTypeValue); value != "" {
			card.CardTypeValue = ptr(value)
		}
	}
	if refs.priority != nil {
		card.PriorityID = ptr(refs.priority.PriorityID)
		card.PriorityCode = ptr(refs.priority.PriorityCode)
		card.PriorityDescription = ptr(refs.priority.PriorityDescription)
		card.DueDate = formatTime(now.AddDate(0, 0, refs.priority.PriorityDays))
	}
	if refs.responsible != nil {
		card.ResponsibleID = ptr(refs.responsible.UserID)
		card.ResponsibleName = ptr(refs.responsible.Name)
	}
	return card
}

func (s *Service) enqueueCreatedNotification(ctx context.Context, card ports.Card) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.EnqueueNotification(ctx, ports.OutboxNotification{
		NotificationID: s.newID(),
		SiteID:         card.SiteID,
		ExcludedUserID: card.CreatorID,
		CardID:         card.CardID,
		Notification: ports.Notification{
			Title:    fmt.Sprintf("New card #%d", card.SiteCardID),
			Body:     fmt.Sprintf("%s reported %s at %s", card.CreatorName, card.PreclassifierDescription, card.Location),
			Category: notificationCategory,
		},
		Status:    ports.NotificationPending,
		CreatedAt: card.CreatedAt,
	})
}
