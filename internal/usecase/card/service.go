package card

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
	"cardtrack/internal/telemetry"
)

const (
	cardStatusCacheTTL   = 24 * time.Hour
	notificationCategory = "card"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Waker is poked after a commit that queued notifications.
type Waker interface {
	Wake()
}

type Service struct {
	cards   ports.CardRepository
	catalog ports.CatalogReader
	reports ports.ReportRepository
	outbox  ports.NotificationOutbox
	uow     ports.UnitOfWork
	cache   ports.Cache

	clock       Clock
	newID       func() string
	waker       Waker
	instruments *telemetry.CardInstruments
	tracer      trace.Tracer
}

type Option func(*Service)

func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func WithWaker(w Waker) Option {
	return func(s *Service) { s.waker = w }
}

func WithInstruments(ci *telemetry.CardInstruments) Option {
	return func(s *Service) { s.instruments = ci }
}

// NewService wires the card lifecycle and report use cases. cache and outbox may be nil.
func NewService(
	cards ports.CardRepository,
	catalog ports.CatalogReader,
	reports ports.ReportRepository,
	outbox ports.NotificationOutbox,
	uow ports.UnitOfWork,
	cache ports.Cache,
	opts ...Option,
) *Service {
	s := &Service{
		cards:   cards,
		catalog: catalog,
		reports: reports,
		outbox:  outbox,
		uow:     uow,
		cache:   cache,
		clock:   systemClock{},
		newID:   uuid.NewString,
		tracer:  telemetry.Tracer("cardtrack/usecase/card"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCardInput struct {
	CardUUID        string
	SiteID          uint64
	NodeID          uint64
	PriorityID      uint64
	CardTypeID      uint64
	PreclassifierID uint64
	CreatorID       uint64
	ResponsibleID   uint64
	CardTypeValue   string
	Comments        string
	Evidences       []domaincard.EvidenceInput
}

type SolutionInput struct {
	CardID            uint64
	ResponsibleUserID uint64
	AppUserID         uint64
	Comments          string
	Evidences         []domaincard.EvidenceInput
}

type ChangePriorityInput struct {
	CardID     uint64
	PriorityID uint64
	ActorID    uint64
}

type ChangeMechanicInput struct {
	CardID     uint64
	MechanicID uint64
	ActorID    uint64
}

type CardWithEvidences struct {
	Card      ports.Card       `json:"card"`
	Evidences []ports.Evidence `json:"evidences"`
}

func (s *Service) checkReady(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.cards == nil {
		return errors.New("card repository is required")
	}
	if s.catalog == nil {
		return errors.New("catalog reader is required")
	}
	if s.uow == nil {
		return errors.New("card unit of work is required")
	}
	return nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, cardStatusCacheTTL); err != nil {
		logging.Warn(ctx, "cache write failed",
			slog.String("key", key),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func cacheCardStatusKey(cardUUID string) string {
	return "card_status:" + cardUUID
}

func (s *Service) wake() {
	if s.waker != nil {
		s.waker.Wake()
	}
}

func logContext(ctx context.Context) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "usecase.card"))
}

// catalogErr maps a catalog miss to a NotFoundError of the given kind.
func catalogErr(err error, kind domaincard.EntityKind, id uint64) error {
	if errors.Is(err, ports.ErrCatalogNotFound) {
		return domaincard.NotFound(kind, id)
	}
	return errs.Wrapf(err, "find %s %d", kind, id)
}

func cardErr(err error, cardID uint64) error {
	if errors.Is(err, ports.ErrCardNotFound) {
		return domaincard.NotFound(domaincard.KindCard, cardID)
	}
	return errs.Wrapf(err, "get card %d", cardID)
}

func invalidInput(detail string) error {
	return &domaincard.ValidationError{Kind: domaincard.InvalidInput, Detail: detail}
}

func evidenceRows(cardID uint64, siteID uint64, items []domaincard.EvidenceInput, createdAt string) []ports.EvidenceCreate {
	rows := make([]ports.EvidenceCreate, 0, len(items))
	for _, item := range items {
		rows = append(rows, ports.EvidenceCreate{
			CardID:    cardID,
			SiteID:    siteID,
			URL:       item.URL,
			Type:      item.Type,
			CreatedAt: createdAt,
		})
	}
	return rows
}

func ptr[T any](v T) *T {
	return &v
}
