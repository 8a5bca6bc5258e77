package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// groupColumns holds the SQL expressions of one grouping dimension.
type groupColumns struct {
	key    string
	label  string
	detail string
}

var groupDimensions = map[ports.GroupBy]groupColumns{
	ports.GroupByPreclassifier: {key: "preclassifier_code", label: "preclassifier_description", detail: "''"},
	ports.GroupByMethodology:   {key: "card_type_methodology_name", label: "card_type_name", detail: "card_type_color"},
	ports.GroupByArea:          {key: "area_id", label: "area_name", detail: "''"},
	ports.GroupByMachine:       {key: "node_id", label: "node_name", detail: "location"},
	ports.GroupByCreator:       {key: "creator_id", label: "creator_name", detail: "''"},
	ports.GroupByPriority:      {key: "COALESCE(priority_code, '')", label: "COALESCE(priority_description, '')", detail: "''"},
}

type groupCountRow struct {
	GroupKey   string
	Label      string
	Detail     string
	TotalCards int64
}

// CountCards groups the site's live cards by one dimension, largest groups first.
func (r *ReportRepository) CountCards(ctx context.Context, siteID uint64, by ports.GroupBy) ([]ports.GroupCount, error) {
	cols, ok := groupDimensions[by]
	if !ok {
		return nil, fmt.Errorf("unknown group dimension %q", by)
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT
	CAST(%[1]s AS TEXT) AS group_key,
	MAX(%[2]s) AS label,
	MAX(%[3]s) AS detail,
	COUNT(*) AS total_cards
FROM cards
WHERE site_id = ? AND deleted_at IS NULL
GROUP BY %[1]s
ORDER BY total_cards DESC, %[1]s ASC`, cols.key, cols.label, cols.detail)

	var rows []groupCountRow
	if err := db.Raw(query, siteID).Scan(&rows).Error; err != nil {
		return nil, errs.Wrapf(err, "count cards by %s", by)
	}

	items := make([]ports.GroupCount, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.GroupCount{
			Key:        row.GroupKey,
			Label:      row.Label,
			Detail:     row.Detail,
			TotalCards: int(row.TotalCards),
		})
	}
	return items, nil
}

const weeklyCountsSQL = `SELECT year, week, SUM(issued) AS issued, SUM(eradicated) AS eradicated
FROM (
	SELECT
		CAST(strftime('%Y', created_at) AS INTEGER) AS year,
		CAST(strftime('%W', created_at) AS INTEGER) AS week,
		1 AS issued,
		0 AS eradicated
	FROM cards
	WHERE site_id = ? AND deleted_at IS NULL
	UNION ALL
	SELECT
		CAST(strftime('%Y', card_definitive_solution_date) AS INTEGER),
		CAST(strftime('%W', card_definitive_solution_date) AS INTEGER),
		0,
		1
	FROM cards
	WHERE site_id = ? AND deleted_at IS NULL AND status = ? AND card_definitive_solution_date IS NOT NULL
)
GROUP BY year, week
ORDER BY year ASC, week ASC`

type weeklyRow struct {
	Year       int
	Week       int
	Issued     int64
	Eradicated int64
}

func (r *ReportRepository) WeeklyCounts(ctx context.Context, siteID uint64) ([]domaincard.WeeklyCount, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []weeklyRow
	if err := db.Raw(weeklyCountsSQL, siteID, siteID, string(domaincard.StatusResolved)).Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query weekly card counts")
	}

	items := make([]domaincard.WeeklyCount, 0, len(rows))
	for _, row := range rows {
		items = append(items, domaincard.WeeklyCount{
			Year:       row.Year,
			Week:       row.Week,
			Issued:     int(row.Issued),
			Eradicated: int(row.Eradicated),
		})
	}
	return items, nil
}
