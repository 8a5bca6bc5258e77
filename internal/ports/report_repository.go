package ports

import (
	"context"

	domaincard "cardtrack/internal/domain/card"
)

// GroupBy selects the dimension of a grouped card count.
type GroupBy string

const (
	GroupByPreclassifier GroupBy = "preclassifiers"
	GroupByMethodology   GroupBy = "methodologies"
	GroupByArea          GroupBy = "areas"
	GroupByMachine       GroupBy = "machines"
	GroupByCreator       GroupBy = "creators"
	GroupByPriority      GroupBy = "priorities"
)

func GroupDimensions() []GroupBy {
	return []GroupBy{
		GroupByPreclassifier,
		GroupByMethodology,
		GroupByArea,
		GroupByMachine,
		GroupByCreator,
		GroupByPriority,
	}
}

// GroupCount is one row of a grouped count. Key identifies the group (an id or
// code), Label is its display name and Detail a secondary attribute such as
// the card type color or the machine location.
type GroupCount struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Detail     string `json:"detail,omitempty"`
	TotalCards int    `json:"totalCards"`
}

type ReportRepository interface {
	CountCards(ctx context.Context, siteID uint64, by GroupBy) ([]GroupCount, error)
	// WeeklyCounts returns raw (year, week) buckets; rows may repeat a week.
	WeeklyCounts(ctx context.Context, siteID uint64) ([]domaincard.WeeklyCount, error)
}
