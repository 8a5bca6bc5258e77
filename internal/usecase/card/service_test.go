package card

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "cardtrack/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "cardtrack/internal/infrastructure/persistence/sqlite/uow"
	"cardtrack/internal/ports"
	"cardtrack/internal/testutil"
)

type testCache struct {
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string]string)}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type countingWaker struct {
	n atomic.Int32
}

func (w *countingWaker) Wake() { w.n.Add(1) }

type fixture struct {
	svc     *Service
	db      *gorm.DB
	cache   *testCache
	clock   *testutil.StubClock
	waker   *countingWaker
	catalog *sqliterepo.CatalogRepository
}

func setupService(t *testing.T) fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	catalog := sqliterepo.NewCatalogRepository(db)
	testutil.Seed(t, catalog, testutil.Plant())

	f := fixture{
		db:      db,
		cache:   newTestCache(),
		clock:   testutil.FixedClock(),
		waker:   &countingWaker{},
		catalog: catalog,
	}
	f.svc = NewService(
		sqliterepo.NewCardRepository(db),
		catalog,
		sqliterepo.NewReportRepository(db),
		sqliterepo.NewNotificationRepository(db),
		sqliteuow.NewUnitOfWork(db),
		f.cache,
		WithClock(f.clock),
		WithIDGenerator(testutil.NewStubIDGenerator().New),
		WithWaker(f.waker),
	)
	return f
}

func testUUID(n int) string {
	return fmt.Sprintf("6f1c2a4e-0000-4000-8000-%012d", n)
}

func sealerCard(n int) CreateCardInput {
	return CreateCardInput{
		CardUUID:        testUUID(n),
		SiteID:          1,
		NodeID:          3,
		PriorityID:      1,
		CardTypeID:      1,
		PreclassifierID: 1,
		CreatorID:       7,
		CardTypeValue:   "bearing",
		Comments:        " oil under the sealer ",
	}
}

func countRows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestCreateCardSnapshotsCatalog(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	card, err := f.svc.CreateCard(ctx, sealerCard(1))
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}

	if card.SiteCardID != 1 {
		t.Fatalf("site card id = %d, want 1", card.SiteCardID)
	}
	if card.SiteCode != "PLT" || card.AreaID != 1 || card.AreaName != "Packing" || card.LevelName != "Packing" {
		t.Fatalf("hierarchy snapshot = %+v", card)
	}
	if card.Location != "Packing / Line 3 / Sealer" || card.Level != 3 || card.SuperiorID != 2 {
		t.Fatalf("location = %q level = %d superior = %d", card.Location, card.Level, card.SuperiorID)
	}
	if card.PriorityCode == nil || *card.PriorityCode != "H" || *card.PriorityDescription != "High" {
		t.Fatalf("priority snapshot = %v / %v", card.PriorityCode, card.PriorityDescription)
	}
	if card.DueDate != "2024-01-06T10:00:00Z" {
		t.Fatalf("due date = %q", card.DueDate)
	}
	if card.CardTypeMethodology == nil || *card.CardTypeMethodology != "M" || card.CardTypeValue == nil || *card.CardTypeValue != "bearing" {
		t.Fatalf("card type value not stored for methodology M")
	}
	if card.CreatorName != "Ana Ruiz" || card.PreclassifierCode != "LK" || card.CardTypeColor != "e53935" {
		t.Fatalf("classification snapshot = %+v", card)
	}
	if card.Status != domaincard.StatusActive || card.CommentsAtCreation != "oil under the sealer" {
		t.Fatalf("status = %s comments = %q", card.Status, card.CommentsAtCreation)
	}
	if card.Provisional.IsSet() || card.Definitive.IsSet() {
		t.Fatalf("solution fields must start empty")
	}

	if f.cache.data[cacheCardStatusKey(card.CardUUID)] != "A" {
		t.Fatalf("cache status = %q", f.cache.data[cacheCardStatusKey(card.CardUUID)])
	}
	if f.waker.n.Load() != 1 {
		t.Fatalf("waker calls = %d", f.waker.n.Load())
	}

	var outbox []model.NotificationOutbox
	if err := f.db.Find(&outbox).Error; err != nil {
		t.Fatalf("query outbox: %v", err)
	}
	if len(outbox) != 1 || outbox[0].ExcludedUserID != 7 || outbox[0].Status != ports.NotificationPending || outbox[0].NotificationID != "id-1" {
		t.Fatalf("outbox = %+v", outbox)
	}
}

func TestCreateCardWithoutMethodologyValue(t *testing.T) {
	f := setupService(t)

	input := sealerCard(1)
	input.CardTypeID = 2
	input.PreclassifierID = 2
	input.PriorityID = 0
	card, err := f.svc.CreateCard(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	if card.CardTypeMethodology != nil || card.CardTypeValue != nil {
		t.Fatalf("methodology fields should be empty for non-M card types")
	}
	if card.PriorityID != nil || card.DueDate != card.CreatedAt {
		t.Fatalf("priority = %v due = %q created = %q", card.PriorityID, card.DueDate, card.CreatedAt)
	}
	if card.CardTypeMethodologyName != "Cleaning" {
		t.Fatalf("methodology name = %q", card.CardTypeMethodologyName)
	}
}

func TestCreateCardSiteCardIDsIncreaseBySite(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		card, err := f.svc.CreateCard(ctx, sealerCard(i))
		if err != nil {
			t.Fatalf("CreateCard(%d) error = %v", i, err)
		}
		if card.SiteCardID != uint64(i) {
			t.Fatalf("CreateCard(%d) site card id = %d", i, card.SiteCardID)
		}
	}

	other := sealerCard(99)
	other.SiteID = 2
	other.NodeID = 10
	other.PriorityID = 0
	card, err := f.svc.CreateCard(ctx, other)
	if err != nil {
		t.Fatalf("CreateCard(site 2) error = %v", err)
	}
	if card.SiteCardID != 1 || card.Location != "Dock" || card.SuperiorID != 10 {
		t.Fatalf("site 2 card = %+v", card)
	}
}

func TestCreateCardRejectsDuplicateUUIDAndWritesNothing(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.CreateCard(ctx, sealerCard(1)); err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}

	dup := sealerCard(1)
	dup.Evidences = []domaincard.EvidenceInput{{URL: "a.png", Type: "IMCR"}}
	_, err := f.svc.CreateCard(ctx, dup)
	if !errors.Is(err, domaincard.ErrDuplicateCorrelationID) || !errors.Is(err, domaincard.ErrValidation) {
		t.Fatalf("CreateCard(duplicate) error = %v", err)
	}

	if n := countRows(t, f.db, &model.Card{}); n != 1 {
		t.Fatalf("cards = %d", n)
	}
	if n := countRows(t, f.db, &model.Evidence{}); n != 0 {
		t.Fatalf("evidences = %d", n)
	}
	if n := countRows(t, f.db, &model.NotificationOutbox{}); n != 1 {
		t.Fatalf("outbox rows = %d", n)
	}

	next, err := f.svc.CreateCard(ctx, sealerCard(2))
	if err != nil {
		t.Fatalf("CreateCard(next) error = %v", err)
	}
	if next.SiteCardID != 2 {
		t.Fatalf("site card id after rollback = %d, want 2", next.SiteCardID)
	}
}

func TestCreateCardEvidenceFlags(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	input := sealerCard(1)
	input.Evidences = []domaincard.EvidenceInput{
		{URL: "s3://cards/1/voice.m4a", Type: "AUCR"},
		{URL: "s3://cards/1/notes.docx", Type: "DOCX"},
	}
	card, err := f.svc.CreateCard(ctx, input)
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}

	for _, slot := range []domaincard.EvidenceSlot{
		domaincard.SlotAudioCreation,
		domaincard.SlotVideoCreation,
		domaincard.SlotImageCreation,
		domaincard.SlotAudioClosing,
		domaincard.SlotVideoClosing,
		domaincard.SlotImageClosing,
		domaincard.SlotAudioProvisional,
		domaincard.SlotVideoProvisional,
		domaincard.SlotImageProvisional,
	} {
		want := slot == domaincard.SlotAudioCreation
		if card.Evidence.Has(slot) != want {
			t.Fatalf("slot %d = %v, want %v", slot, card.Evidence.Has(slot), want)
		}
	}

	detail, err := f.svc.GetByIDWithEvidences(ctx, card.CardID)
	if err != nil {
		t.Fatalf("GetByIDWithEvidences() error = %v", err)
	}
	if len(detail.Evidences) != 2 || detail.Evidences[1].Type != "DOCX" {
		t.Fatalf("evidences = %+v", detail.Evidences)
	}
	if !detail.Card.Evidence.Has(domaincard.SlotAudioCreation) {
		t.Fatalf("stored flags = %v", detail.Card.Evidence)
	}
}

func TestCreateCardReferenceErrors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateCardInput)
		want   domaincard.EntityKind
	}{
		{name: "site", mutate: func(in *CreateCardInput) { in.SiteID = 50 }, want: domaincard.KindSite},
		{name: "node", mutate: func(in *CreateCardInput) { in.NodeID = 50 }, want: domaincard.KindNode},
		{name: "node of another site", mutate: func(in *CreateCardInput) { in.NodeID = 10 }, want: domaincard.KindNode},
		{name: "priority", mutate: func(in *CreateCardInput) { in.PriorityID = 50 }, want: domaincard.KindPriority},
		{name: "card type", mutate: func(in *CreateCardInput) { in.CardTypeID = 50 }, want: domaincard.KindCardType},
		{name: "preclassifier", mutate: func(in *CreateCardInput) { in.PreclassifierID = 50 }, want: domaincard.KindPreclassifier},
		{name: "creator", mutate: func(in *CreateCardInput) { in.CreatorID = 50 }, want: domaincard.KindUser},
		{name: "responsible", mutate: func(in *CreateCardInput) { in.ResponsibleID = 50 }, want: domaincard.KindUser},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sealerCard(100 + i)
			tt.mutate(&input)
			_, err := f.svc.CreateCard(ctx, input)
			if !errors.Is(err, domaincard.ErrNotFound) {
				t.Fatalf("CreateCard() error = %v, want not found", err)
			}
			kind, ok := domaincard.NotFoundKind(err)
			if !ok || kind != tt.want {
				t.Fatalf("not found kind = %q, want %q", kind, tt.want)
			}
		})
	}

	bad := sealerCard(1)
	bad.CardUUID = "not-a-uuid"
	if _, err := f.svc.CreateCard(ctx, bad); !errors.Is(err, domaincard.ErrValidation) {
		t.Fatalf("CreateCard(bad uuid) error = %v", err)
	}
	if n := countRows(t, f.db, &model.Card{}); n != 0 {
		t.Fatalf("cards = %d", n)
	}
}

func TestCreateCardHierarchyCycle(t *testing.T) {
	f := setupService(t)
	testutil.Seed(t, f.catalog, ports.CatalogSnapshot{
		Levels: []ports.Level{
			{LevelID: 20, SiteID: 1, SuperiorID: 21, Name: "Loop A"},
			{LevelID: 21, SiteID: 1, SuperiorID: 20, Name: "Loop B"},
		},
	})

	input := sealerCard(1)
	input.NodeID = 20
	_, err := f.svc.CreateCard(context.Background(), input)
	if !errors.Is(err, domaincard.ErrResolution) {
		t.Fatalf("CreateCard(cycle) error = %v", err)
	}
}

func TestCreateCardWithResponsible(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	input := sealerCard(1)
	input.ResponsibleID = 9
	card, err := f.svc.CreateCard(ctx, input)
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	if card.ResponsibleName == nil || *card.ResponsibleName != "Max Stone" {
		t.Fatalf("responsible = %v", card.ResponsibleName)
	}

	items, err := f.svc.ListByResponsible(ctx, 9)
	if err != nil {
		t.Fatalf("ListByResponsible() error = %v", err)
	}
	if len(items) != 1 || items[0].CardID != card.CardID {
		t.Fatalf("ListByResponsible() = %+v", items)
	}
}

var errStoreDown = errors.New("store down")

type failingEvidenceCards struct {
	ports.CardRepository
}

func (failingEvidenceCards) CreateEvidences(context.Context, []ports.EvidenceCreate) error {
	return errStoreDown
}

type failingOutbox struct {
	ports.NotificationOutbox
}

func (failingOutbox) EnqueueNotification(context.Context, ports.OutboxNotification) error {
	return errStoreDown
}

func TestCreateCardRollsBackOnLateFailure(t *testing.T) {
	testCases := []struct {
		name   string
		cards  func(ports.CardRepository) ports.CardRepository
		outbox func(ports.NotificationOutbox) ports.NotificationOutbox
	}{
		{
			name:   "evidence insert fails",
			cards:  func(r ports.CardRepository) ports.CardRepository { return failingEvidenceCards{r} },
			outbox: func(o ports.NotificationOutbox) ports.NotificationOutbox { return o },
		},
		{
			name:   "outbox enqueue fails",
			cards:  func(r ports.CardRepository) ports.CardRepository { return r },
			outbox: func(o ports.NotificationOutbox) ports.NotificationOutbox { return failingOutbox{o} },
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			f := setupService(t)
			ctx := context.Background()

			broken := NewService(
				testCase.cards(sqliterepo.NewCardRepository(f.db)),
				f.catalog,
				sqliterepo.NewReportRepository(f.db),
				testCase.outbox(sqliterepo.NewNotificationRepository(f.db)),
				sqliteuow.NewUnitOfWork(f.db),
				f.cache,
				WithClock(f.clock),
				WithWaker(f.waker),
			)

			input := sealerCard(1)
			input.Evidences = []domaincard.EvidenceInput{{URL: "a.png", Type: "IMCR"}}
			if _, err := broken.CreateCard(ctx, input); !errors.Is(err, errStoreDown) {
				t.Fatalf("CreateCard() error = %v, want store down", err)
			}

			if n := countRows(t, f.db, &model.Card{}); n != 0 {
				t.Fatalf("cards = %d, want 0", n)
			}
			if n := countRows(t, f.db, &model.Evidence{}); n != 0 {
				t.Fatalf("evidences = %d, want 0", n)
			}
			if n := countRows(t, f.db, &model.NotificationOutbox{}); n != 0 {
				t.Fatalf("outbox rows = %d, want 0", n)
			}
			if n := countRows(t, f.db, &model.SiteCardSequence{}); n != 0 {
				t.Fatalf("site sequences = %d, want 0", n)
			}
			if len(f.cache.data) != 0 {
				t.Fatalf("cache written on failed create: %v", f.cache.data)
			}
			if got := f.waker.n.Load(); got != 0 {
				t.Fatalf("waker calls = %d, want 0", got)
			}

			created, err := f.svc.CreateCard(ctx, input)
			if err != nil {
				t.Fatalf("CreateCard(retry) error = %v", err)
			}
			if created.SiteCardID != 1 {
				t.Fatalf("site card id after rollback = %d, want 1", created.SiteCardID)
			}
		})
	}
}
