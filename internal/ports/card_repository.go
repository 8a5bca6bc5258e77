package ports

import (
	"context"
	"errors"

	domaincard "cardtrack/internal/domain/card"
)

var ErrCardNotFound = errors.New("card not found")

// Card is the persisted card row. Snapshot fields (names, codes,
// descriptions) are copied from catalogs when assigned and never re-read.
type Card struct {
	CardID     uint64 `json:"id"`
	CardUUID   string `json:"cardUUID"`
	SiteCardID uint64 `json:"siteCardId"`

	SiteID     uint64 `json:"siteId"`
	SiteCode   string `json:"siteCode"`
	AreaID     uint64 `json:"areaId"`
	AreaName   string `json:"areaName"`
	LevelName  string `json:"levelName"`
	NodeID     uint64 `json:"nodeId"`
	NodeName   string `json:"nodeName"`
	Level      int    `json:"level"`
	Location   string `json:"location"`
	SuperiorID uint64 `json:"superiorId"`

	PriorityID          *uint64 `json:"priorityId"`
	PriorityCode        *string `json:"priorityCode"`
	PriorityDescription *string `json:"priorityDescription"`

	CardTypeID              uint64  `json:"cardTypeId"`
	CardTypeColor           string  `json:"cardTypeColor"`
	CardTypeMethodology     *string `json:"cardTypeMethodology"`
	CardTypeMethodologyName string  `json:"cardTypeMethodologyName"`
	CardTypeName            string  `json:"cardTypeName"`
	CardTypeValue           *string `json:"cardTypeValue"`

	PreclassifierID          uint64 `json:"preclassifierId"`
	PreclassifierCode        string `json:"preclassifierCode"`
	PreclassifierDescription string `json:"preclassifierDescription"`

	CreatorID   uint64 `json:"creatorId"`
	CreatorName string `json:"creatorName"`

	ResponsibleID   *uint64 `json:"responsibleId"`
	ResponsibleName *string `json:"responsibleName"`
	MechanicID      *uint64 `json:"mechanicId"`
	MechanicName    *string `json:"mechanicName"`

	Evidence domaincard.EvidenceFlags `json:"evidenceFlags"`

	Status             domaincard.Status `json:"status"`
	DueDate            string            `json:"dueDate"`
	CommentsAtCreation string            `json:"commentsAtCardCreation"`

	Provisional SolutionFields `json:"provisionalSolution"`
	Definitive  SolutionFields `json:"definitiveSolution"`

	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	DeletedAt *string `json:"deletedAt"`
}

// SolutionFields describe one solution stage. All fields stay nil until the
// stage is first applied.
type SolutionFields struct {
	UserID      *uint64 `json:"userId"`
	UserName    *string `json:"userName"`
	AppUserID   *uint64 `json:"appUserId"`
	AppUserName *string `json:"appUserName"`
	Date        *string `json:"date"`
	Comments    *string `json:"comments"`
}

func (s SolutionFields) IsSet() bool {
	return s.UserID != nil
}

type Evidence struct {
	EvidenceID uint64 `json:"id"`
	CardID     uint64 `json:"cardId"`
	SiteID     uint64 `json:"siteId"`
	URL        string `json:"evidenceName"`
	Type       string `json:"evidenceType"`
	CreatedAt  string `json:"createdAt"`
}

type EvidenceCreate struct {
	CardID    uint64
	SiteID    uint64
	URL       string
	Type      string
	CreatedAt string
}

type CardNote struct {
	NoteID    uint64 `json:"id"`
	CardID    uint64 `json:"cardId"`
	SiteID    uint64 `json:"siteId"`
	Note      string `json:"note"`
	CreatedAt string `json:"createdAt"`
}

type CardNoteCreate struct {
	CardID    uint64
	SiteID    uint64
	Note      string
	CreatedAt string
}

// CardFilter narrows ListCards. Zero values are ignored. Soft-deleted cards
// are never listed.
type CardFilter struct {
	SiteID        uint64
	NodeID        uint64
	SuperiorID    uint64
	ResponsibleID uint64
	Statuses      []domaincard.Status
}

type CardReadRepository interface {
	GetCard(ctx context.Context, cardID uint64) (Card, error)
	GetCardByUUID(ctx context.Context, cardUUID string) (Card, error)
	CardUUIDExists(ctx context.Context, cardUUID string) (bool, error)
	ListCards(ctx context.Context, filter CardFilter) ([]Card, error)
	ListEvidences(ctx context.Context, cardID uint64) ([]Evidence, error)
	ListCardNotes(ctx context.Context, cardID uint64) ([]CardNote, error)
}

type CardRepository interface {
	CardReadRepository
	// NextSiteCardID advances the per-site sequence and returns the new value.
	// It must run inside a transaction.
	NextSiteCardID(ctx context.Context, siteID uint64) (uint64, error)
	CreateCard(ctx context.Context, card Card) (Card, error)
	UpdateCard(ctx context.Context, card Card) error
	CreateEvidences(ctx context.Context, items []EvidenceCreate) error
	AppendCardNote(ctx context.Context, input CardNoteCreate) error
}
