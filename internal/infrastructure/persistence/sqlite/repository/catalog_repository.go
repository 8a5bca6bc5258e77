package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cardtrack/internal/errs"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	"cardtrack/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindSite(ctx context.Context, siteID uint64) (ports.Site, error) {
	var row model.Site
	if err := r.take(ctx, &row, "site_id = ?", siteID); err != nil {
		return ports.Site{}, errs.Wrapf(err, "find site %d", siteID)
	}
	return ports.Site{SiteID: row.SiteID, SiteCode: row.SiteCode, Name: row.Name}, nil
}

func (r *CatalogRepository) FindLevel(ctx context.Context, levelID uint64) (ports.Level, error) {
	var row model.Level
	if err := r.take(ctx, &row, "level_id = ?", levelID); err != nil {
		return ports.Level{}, errs.Wrapf(err, "find level %d", levelID)
	}
	return mapLevel(row), nil
}

func (r *CatalogRepository) FindLevelByMachineID(ctx context.Context, siteID uint64, machineID string) (ports.Level, error) {
	var row model.Level
	if err := r.take(ctx, &row, "site_id = ? AND level_machine_id = ?", siteID, strings.TrimSpace(machineID)); err != nil {
		return ports.Level{}, errs.Wrapf(err, "find level by machine id %q", machineID)
	}
	return mapLevel(row), nil
}

func (r *CatalogRepository) ListSiteLevels(ctx context.Context, siteID uint64) ([]ports.Level, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Level
	if err := db.Where("site_id = ?", siteID).Order("level_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query site levels")
	}

	items := make([]ports.Level, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLevel(row))
	}
	return items, nil
}

func (r *CatalogRepository) FindPriority(ctx context.Context, priorityID uint64) (ports.Priority, error) {
	var row model.Priority
	if err := r.take(ctx, &row, "priority_id = ?", priorityID); err != nil {
		return ports.Priority{}, errs.Wrapf(err, "find priority %d", priorityID)
	}
	return ports.Priority{
		PriorityID:          row.PriorityID,
		SiteID:              row.SiteID,
		PriorityCode:        row.PriorityCode,
		PriorityDescription: row.PriorityDescription,
		PriorityDays:        row.PriorityDays,
	}, nil
}

func (r *CatalogRepository) FindCardType(ctx context.Context, cardTypeID uint64) (ports.CardType, error) {
	var row model.CardType
	if err := r.take(ctx, &row, "card_type_id = ?", cardTypeID); err != nil {
		return ports.CardType{}, errs.Wrapf(err, "find card type %d", cardTypeID)
	}
	return ports.CardType{
		CardTypeID:          row.CardTypeID,
		SiteID:              row.SiteID,
		CardTypeMethodology: row.CardTypeMethodology,
		Methodology:         row.Methodology,
		Name:                row.Name,
		Color:               row.Color,
	}, nil
}

func (r *CatalogRepository) FindPreclassifier(ctx context.Context, preclassifierID uint64) (ports.Preclassifier, error) {
	var row model.Preclassifier
	if err := r.take(ctx, &row, "preclassifier_id = ?", preclassifierID); err != nil {
		return ports.Preclassifier{}, errs.Wrapf(err, "find preclassifier %d", preclassifierID)
	}
	return ports.Preclassifier{
		PreclassifierID:          row.PreclassifierID,
		CardTypeID:               row.CardTypeID,
		SiteID:                   row.SiteID,
		PreclassifierCode:        row.PreclassifierCode,
		PreclassifierDescription: row.PreclassifierDescription,
	}, nil
}

func (r *CatalogRepository) FindUser(ctx context.Context, userID uint64) (ports.User, error) {
	var row model.User
	if err := r.take(ctx, &row, "user_id = ?", userID); err != nil {
		return ports.User{}, errs.Wrapf(err, "find user %d", userID)
	}
	return ports.User{
		UserID:   row.UserID,
		SiteID:   row.SiteID,
		Name:     row.Name,
		Email:    row.Email,
		AppToken: row.AppToken,
	}, nil
}

func (r *CatalogRepository) TokensForSiteExcluding(ctx context.Context, siteID uint64, excludedUserID uint64) ([]string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var tokens []string
	if err := db.Model(&model.User{}).
		Where("site_id = ? AND user_id <> ? AND app_token <> ''", siteID, excludedUserID).
		Order("user_id asc").
		Pluck("app_token", &tokens).Error; err != nil {
		return nil, errs.Wrap(err, "query site tokens")
	}
	return tokens, nil
}

// UpsertCatalog writes every row of the snapshot, replacing rows with the same id.
func (r *CatalogRepository) UpsertCatalog(ctx context.Context, snapshot ports.CatalogSnapshot) error {
	return inTx(ctx, r.db, func(ctx context.Context, tx *gorm.DB) error {
		// Each table needs its own statement; a reused chain keeps the first table.
		upsert := func() *gorm.DB {
			return tx.Clauses(clause.OnConflict{UpdateAll: true})
		}

		if rows := toSiteModels(snapshot.Sites); len(rows) > 0 {
			if err := upsert().Create(&rows).Error; err != nil {
				return errs.Wrap(err, "upsert sites")
			}
		}
		if rows := toLevelModels(snapshot.Levels); len(rows) > 0 {
			if err := upsert().Create(&rows).Error; err != nil {
				return errs.Wrap(err, "upsert levels")
			}
		}
		if rows := toPriorityModels(snapshot.Priorities); len(rows) > 0 {
			if err := upsert().Create(&rows).Error; err != nil {
				return errs.Wrap(err, "upsert priorities")
			}
		}
		if rows := toCardTypeModels(snapshot.CardTypes); len(rows) > 0 {
			if err := upsert().Create(&rows).Error; err != nil {
				return errs.Wrap(err, "upsert card types")
			}
		}
		if rows := toPreclassifierModels(snapshot.Preclassifiers); len(rows) > 0 {
			if err := upsert().Create(&rows).Error; err != nil {
				return errs.Wrap(err, "upsert preclassifiers")
			}
		}
		if rows := toUserModels(snapshot.Users); len(rows) > 0 {
			if err := upsert().Create(&rows).Error; err != nil {
				return errs.Wrap(err, "upsert users")
			}
		}
		return nil
	})
}

func (r *CatalogRepository) take(ctx context.Context, dest any, query string, args ...any) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if err := db.Where(query, args...).Take(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ErrCatalogNotFound
		}
		return err
	}
	return nil
}

func mapLevel(row model.Level) ports.Level {
	return ports.Level{
		LevelID:        row.LevelID,
		SiteID:         row.SiteID,
		SuperiorID:     row.SuperiorID,
		Name:           row.Name,
		Description:    row.Description,
		LevelMachineID: row.LevelMachineID,
		Status:         row.Status,
	}
}

func toSiteModels(items []ports.Site) []model.Site {
	rows := make([]model.Site, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.Site{SiteID: item.SiteID, SiteCode: item.SiteCode, Name: item.Name})
	}
	return rows
}

func toLevelModels(items []ports.Level) []model.Level {
	rows := make([]model.Level, 0, len(items))
	for _, item := range items {
		status := item.Status
		if status == "" {
			status = "A"
		}
		rows = append(rows, model.Level{
			LevelID:        item.LevelID,
			SiteID:         item.SiteID,
			SuperiorID:     item.SuperiorID,
			Name:           item.Name,
			Description:    item.Description,
			LevelMachineID: item.LevelMachineID,
			Status:         status,
		})
	}
	return rows
}

func toPriorityModels(items []ports.Priority) []model.Priority {
	rows := make([]model.Priority, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.Priority{
			PriorityID:          item.PriorityID,
			SiteID:              item.SiteID,
			PriorityCode:        item.PriorityCode,
			PriorityDescription: item.PriorityDescription,
			PriorityDays:        item.PriorityDays,
		})
	}
	return rows
}

func toCardTypeModels(items []ports.CardType) []model.CardType {
	rows := make([]model.CardType, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.CardType{
			CardTypeID:          item.CardTypeID,
			SiteID:              item.SiteID,
			CardTypeMethodology: item.CardTypeMethodology,
			Methodology:         item.Methodology,
			Name:                item.Name,
			Color:               item.Color,
		})
	}
	return rows
}

func toPreclassifierModels(items []ports.Preclassifier) []model.Preclassifier {
	rows := make([]model.Preclassifier, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.Preclassifier{
			PreclassifierID:          item.PreclassifierID,
			CardTypeID:               item.CardTypeID,
			SiteID:                   item.SiteID,
			PreclassifierCode:        item.PreclassifierCode,
			PreclassifierDescription: item.PreclassifierDescription,
		})
	}
	return rows
}

func toUserModels(items []ports.User) []model.User {
	rows := make([]model.User, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.User{
			UserID:   item.UserID,
			SiteID:   item.SiteID,
			Name:     item.Name,
			Email:    item.Email,
			AppToken: item.AppToken,
		})
	}
	return rows
}
