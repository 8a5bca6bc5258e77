package ports

import (
	"context"
	"errors"
)

var ErrCatalogNotFound = errors.New("catalog record not found")

type Site struct {
	SiteID   uint64 `json:"id" yaml:"id" toml:"id"`
	SiteCode string `json:"siteCode" yaml:"siteCode" toml:"siteCode"`
	Name     string `json:"name" yaml:"name" toml:"name"`
}

// Level is a node of a site's hierarchy. SuperiorID is 0 for area roots.
type Level struct {
	LevelID        uint64 `json:"id" yaml:"id" toml:"id"`
	SiteID         uint64 `json:"siteId" yaml:"siteId" toml:"siteId"`
	SuperiorID     uint64 `json:"superiorId" yaml:"superiorId" toml:"superiorId"`
	Name           string `json:"name" yaml:"name" toml:"name"`
	Description    string `json:"description" yaml:"description" toml:"description"`
	LevelMachineID string `json:"levelMachineId" yaml:"levelMachineId" toml:"levelMachineId"`
	Status         string `json:"status" yaml:"status" toml:"status"`
}

type Priority struct {
	PriorityID          uint64 `json:"id" yaml:"id" toml:"id"`
	SiteID              uint64 `json:"siteId" yaml:"siteId" toml:"siteId"`
	PriorityCode        string `json:"priorityCode" yaml:"priorityCode" toml:"priorityCode"`
	PriorityDescription string `json:"priorityDescription" yaml:"priorityDescription" toml:"priorityDescription"`
	PriorityDays        int    `json:"priorityDays" yaml:"priorityDays" toml:"priorityDays"`
}

type CardType struct {
	CardTypeID          uint64 `json:"id" yaml:"id" toml:"id"`
	SiteID              uint64 `json:"siteId" yaml:"siteId" toml:"siteId"`
	CardTypeMethodology string `json:"cardTypeMethodology" yaml:"cardTypeMethodology" toml:"cardTypeMethodology"`
	Methodology         string `json:"methodology" yaml:"methodology" toml:"methodology"`
	Name                string `json:"name" yaml:"name" toml:"name"`
	Color               string `json:"color" yaml:"color" toml:"color"`
}

type Preclassifier struct {
	PreclassifierID          uint64 `json:"id" yaml:"id" toml:"id"`
	CardTypeID               uint64 `json:"cardTypeId" yaml:"cardTypeId" toml:"cardTypeId"`
	SiteID                   uint64 `json:"siteId" yaml:"siteId" toml:"siteId"`
	PreclassifierCode        string `json:"preclassifierCode" yaml:"preclassifierCode" toml:"preclassifierCode"`
	PreclassifierDescription string `json:"preclassifierDescription" yaml:"preclassifierDescription" toml:"preclassifierDescription"`
}

type User struct {
	UserID   uint64 `json:"id" yaml:"id" toml:"id"`
	SiteID   uint64 `json:"siteId" yaml:"siteId" toml:"siteId"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	Email    string `json:"email" yaml:"email" toml:"email"`
	AppToken string `json:"-" yaml:"appToken" toml:"appToken"`
}

// CatalogReader is the read-only view of the catalogs the card engine snapshots from.
// Find* return ErrCatalogNotFound when the id does not resolve.
type CatalogReader interface {
	FindSite(ctx context.Context, siteID uint64) (Site, error)
	FindLevel(ctx context.Context, levelID uint64) (Level, error)
	FindLevelByMachineID(ctx context.Context, siteID uint64, machineID string) (Level, error)
	ListSiteLevels(ctx context.Context, siteID uint64) ([]Level, error)
	FindPriority(ctx context.Context, priorityID uint64) (Priority, error)
	FindCardType(ctx context.Context, cardTypeID uint64) (CardType, error)
	FindPreclassifier(ctx context.Context, preclassifierID uint64) (Preclassifier, error)
	FindUser(ctx context.Context, userID uint64) (User, error)
}

// TokenRoster lists device tokens of a site's users.
type TokenRoster interface {
	TokensForSiteExcluding(ctx context.Context, siteID uint64, excludedUserID uint64) ([]string, error)
}

// CatalogSnapshot is a full set of catalog rows, as loaded from a seed file.
type CatalogSnapshot struct {
	Sites          []Site          `yaml:"sites" toml:"sites"`
	Levels         []Level         `yaml:"levels" toml:"levels"`
	Priorities     []Priority      `yaml:"priorities" toml:"priorities"`
	CardTypes      []CardType      `yaml:"cardTypes" toml:"cardTypes"`
	Preclassifiers []Preclassifier `yaml:"preclassifiers" toml:"preclassifiers"`
	Users          []User          `yaml:"users" toml:"users"`
}

// CatalogWriter upserts catalog rows. Catalog CRUD rules live elsewhere; this
// exists to seed the store.
type CatalogWriter interface {
	UpsertCatalog(ctx context.Context, snapshot CatalogSnapshot) error
}
