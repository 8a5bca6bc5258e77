package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	"cardtrack/internal/ports"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetCard(ctx context.Context, cardID uint64) (ports.Card, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Card{}, err
	}

	var row model.Card
	if err := db.Where("card_id = ? AND deleted_at IS NULL", cardID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Card{}, ports.ErrCardNotFound
		}
		return ports.Card{}, errs.Wrap(err, "query card")
	}
	return mapCard(row), nil
}

func (r *CardRepository) GetCardByUUID(ctx context.Context, cardUUID string) (ports.Card, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Card{}, err
	}

	var row model.Card
	if err := db.Where("card_uuid = ? AND deleted_at IS NULL", cardUUID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Card{}, ports.ErrCardNotFound
		}
		return ports.Card{}, errs.Wrap(err, "query card by uuid")
	}
	return mapCard(row), nil
}

// CardUUIDExists also counts soft-deleted cards; a uuid is never reused.
func (r *CardRepository) CardUUIDExists(ctx context.Context, cardUUID string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.Card{}).Where("card_uuid = ?", cardUUID).Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count card uuid")
	}
	return count > 0, nil
}

func (r *CardRepository) ListCards(ctx context.Context, filter ports.CardFilter) ([]ports.Card, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Card{}).Where("deleted_at IS NULL")
	if filter.SiteID != 0 {
		query = query.Where("site_id = ?", filter.SiteID)
	}
	if filter.NodeID != 0 {
		query = query.Where("node_id = ?", filter.NodeID)
	}
	if filter.SuperiorID != 0 {
		query = query.Where("superior_id = ?", filter.SuperiorID)
	}
	if filter.ResponsibleID != 0 {
		query = query.Where("responsible_id = ?", filter.ResponsibleID)
	}
	if len(filter.Statuses) > 0 {
		codes := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			codes = append(codes, string(status))
		}
		query = query.Where("status IN ?", codes)
	}

	var rows []model.Card
	if err := query.Order("card_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query cards")
	}

	items := make([]ports.Card, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCard(row))
	}
	return items, nil
}

func (r *CardRepository) ListEvidences(ctx context.Context, cardID uint64) ([]ports.Evidence, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Evidence
	if err := db.
		Where("card_id = ?", cardID).
		Order("created_at asc").
		Order("evidence_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query evidences")
	}

	items := make([]ports.Evidence, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Evidence{
			EvidenceID: row.EvidenceID,
			CardID:     row.CardID,
			SiteID:     row.SiteID,
			URL:        row.URL,
			Type:       row.Type,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}

// ListCardNotes returns notes newest first.
func (r *CardRepository) ListCardNotes(ctx context.Context, cardID uint64) ([]ports.CardNote, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.CardNote
	if err := db.
		Where("card_id = ?", cardID).
		Order("created_at desc").
		Order("note_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query card notes")
	}

	items := make([]ports.CardNote, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CardNote{
			NoteID:    row.NoteID,
			CardID:    row.CardID,
			SiteID:    row.SiteID,
			Note:      row.Note,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *CardRepository) NextSiteCardID(ctx context.Context, siteID uint64) (uint64, error) {
	var next uint64
	err := inTx(ctx, r.db, func(ctx context.Context, tx *gorm.DB) error {
		var seq model.SiteCardSequence
		err := tx.Where("site_id = ?", siteID).Take(&seq).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxID sql.NullInt64
			if err := tx.Model(&model.Card{}).
				Where("site_id = ?", siteID).
				Select("MAX(site_card_id)").
				Row().Scan(&maxID); err != nil {
				return errs.Wrap(err, "query max site card id")
			}
			seq = model.SiteCardSequence{SiteID: siteID}
			if maxID.Valid {
				seq.LastCardID = uint64(maxID.Int64)
			}
		case err != nil:
			return errs.Wrap(err, "query site card sequence")
		}

		seq.LastCardID++
		seq.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_card_id", "updated_at"}),
		}).Create(&seq).Error; err != nil {
			return errs.Wrap(err, "advance site card sequence")
		}
		next = seq.LastCardID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *CardRepository) CreateCard(ctx context.Context, card ports.Card) (ports.Card, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Card{}, err
	}

	row := toCardModel(card)
	row.CardID = 0
	if err := db.Create(&row).Error; err != nil {
		return ports.Card{}, errs.Wrap(err, "insert card")
	}
	return mapCard(row), nil
}

// UpdateCard saves every column of the card.
func (r *CardRepository) UpdateCard(ctx context.Context, card ports.Card) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if card.CardID == 0 {
		return errors.New("card id is required")
	}

	row := toCardModel(card)
	result := db.Model(&model.Card{}).Where("card_id = ?", card.CardID).Select("*").Omit("card_id").Updates(&row)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update card")
	}
	if result.RowsAffected == 0 {
		return ports.ErrCardNotFound
	}
	return nil
}

func (r *CardRepository) CreateEvidences(ctx context.Context, items []ports.EvidenceCreate) error {
	if len(items) == 0 {
		return nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	rows := make([]model.Evidence, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.Evidence{
			CardID:    item.CardID,
			SiteID:    item.SiteID,
			URL:       item.URL,
			Type:      item.Type,
			CreatedAt: item.CreatedAt,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return errs.Wrap(err, "insert evidences")
	}
	return nil
}

func (r *CardRepository) AppendCardNote(ctx context.Context, input ports.CardNoteCreate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.CardNote{
		CardID:    input.CardID,
		SiteID:    input.SiteID,
		Note:      input.Note,
		CreatedAt: input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert card note")
	}
	return nil
}

func mapCard(row model.Card) ports.Card {
	var flags domaincard.EvidenceFlags
	flags[domaincard.SlotAudioCreation] = row.EvidenceAUCR
	flags[domaincard.SlotVideoCreation] = row.EvidenceVICR
	flags[domaincard.SlotImageCreation] = row.EvidenceIMCR
	flags[domaincard.SlotAudioClosing] = row.EvidenceAUCL
	flags[domaincard.SlotVideoClosing] = row.EvidenceVICL
	flags[domaincard.SlotImageClosing] = row.EvidenceIMCL
	flags[domaincard.SlotAudioProvisional] = row.EvidenceAUPS
	flags[domaincard.SlotVideoProvisional] = row.EvidenceVIPS
	flags[domaincard.SlotImageProvisional] = row.EvidenceIMPS

	return ports.Card{
		CardID:                   row.CardID,
		CardUUID:                 row.CardUUID,
		SiteCardID:               row.SiteCardID,
		SiteID:                   row.SiteID,
		SiteCode:                 row.SiteCode,
		AreaID:                   row.AreaID,
		AreaName:                 row.AreaName,
		LevelName:                row.AreaName,
		NodeID:                   row.NodeID,
		NodeName:                 row.NodeName,
		Level:                    row.Level,
		Location:                 row.Location,
		SuperiorID:               row.SuperiorID,
		PriorityID:               row.PriorityID,
		PriorityCode:             row.PriorityCode,
		PriorityDescription:      row.PriorityDescription,
		CardTypeID:               row.CardTypeID,
		CardTypeColor:            row.CardTypeColor,
		CardTypeMethodology:      row.CardTypeMethodology,
		CardTypeMethodologyName:  row.CardTypeMethodologyName,
		CardTypeName:             row.CardTypeName,
		CardTypeValue:            row.CardTypeValue,
		PreclassifierID:          row.PreclassifierID,
		PreclassifierCode:        row.PreclassifierCode,
		PreclassifierDescription: row.PreclassifierDescription,
		CreatorID:                row.CreatorID,
		CreatorName:              row.CreatorName,
		ResponsibleID:            row.ResponsibleID,
		ResponsibleName:          row.ResponsibleName,
		MechanicID:               row.MechanicID,
		MechanicName:             row.MechanicName,
		Evidence:                 flags,
		Status:                   domaincard.Status(row.Status),
		DueDate:                  row.DueDate,
		CommentsAtCreation:       row.CommentsAtCreation,
		Provisional: ports.SolutionFields{
			UserID:      row.UserProvisionalSolutionID,
			UserName:    row.UserProvisionalSolutionName,
			AppUserID:   row.UserAppProvisionalSolutionID,
			AppUserName: row.UserAppProvisionalSolutionName,
			Date:        row.CardProvisionalSolutionDate,
			Comments:    row.CommentsAtCardProvisionalSol,
		},
		Definitive: ports.SolutionFields{
			UserID:      row.UserDefinitiveSolutionID,
			UserName:    row.UserDefinitiveSolutionName,
			AppUserID:   row.UserAppDefinitiveSolutionID,
			AppUserName: row.UserAppDefinitiveSolutionName,
			Date:        row.CardDefinitiveSolutionDate,
			Comments:    row.CommentsAtCardDefinitiveSol,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
}

func toCardModel(card ports.Card) model.Card {
	flags := card.Evidence
	return model.Card{
		CardID:                         card.CardID,
		CardUUID:                       card.CardUUID,
		SiteCardID:                     card.SiteCardID,
		SiteID:                         card.SiteID,
		SiteCode:                       card.SiteCode,
		AreaID:                         card.AreaID,
		AreaName:                       card.AreaName,
		NodeID:                         card.NodeID,
		NodeName:                       card.NodeName,
		Level:                          card.Level,
		Location:                       card.Location,
		SuperiorID:                     card.SuperiorID,
		PriorityID:                     card.PriorityID,
		PriorityCode:                   card.PriorityCode,
		PriorityDescription:            card.PriorityDescription,
		CardTypeID:                     card.CardTypeID,
		CardTypeColor:                  card.CardTypeColor,
		CardTypeMethodology:            card.CardTypeMethodology,
		CardTypeMethodologyName:        card.CardTypeMethodologyName,
		CardTypeName:                   card.CardTypeName,
		CardTypeValue:                  card.CardTypeValue,
		PreclassifierID:                card.PreclassifierID,
		PreclassifierCode:              card.PreclassifierCode,
		PreclassifierDescription:       card.PreclassifierDescription,
		CreatorID:                      card.CreatorID,
		CreatorName:                    card.CreatorName,
		ResponsibleID:                  card.ResponsibleID,
		ResponsibleName:                card.ResponsibleName,
		MechanicID:                     card.MechanicID,
		MechanicName:                   card.MechanicName,
		EvidenceAUCR:                   flags.Has(domaincard.SlotAudioCreation),
		EvidenceVICR:                   flags.Has(domaincard.SlotVideoCreation),
		EvidenceIMCR:                   flags.Has(domaincard.SlotImageCreation),
		EvidenceAUCL:                   flags.Has(domaincard.SlotAudioClosing),
		EvidenceVICL:                   flags.Has(domaincard.SlotVideoClosing),
		EvidenceIMCL:                   flags.Has(domaincard.SlotImageClosing),
		EvidenceAUPS:                   flags.Has(domaincard.SlotAudioProvisional),
		EvidenceVIPS:                   flags.Has(domaincard.SlotVideoProvisional),
		EvidenceIMPS:                   flags.Has(domaincard.SlotImageProvisional),
		Status:                         string(card.Status),
		DueDate:                        card.DueDate,
		CommentsAtCreation:             card.CommentsAtCreation,
		UserProvisionalSolutionID:      card.Provisional.UserID,
		UserProvisionalSolutionName:    card.Provisional.UserName,
		UserAppProvisionalSolutionID:   card.Provisional.AppUserID,
		UserAppProvisionalSolutionName: card.Provisional.AppUserName,
		CardProvisionalSolutionDate:    card.Provisional.Date,
		CommentsAtCardProvisionalSol:   card.Provisional.Comments,
		UserDefinitiveSolutionID:       card.Definitive.UserID,
		UserDefinitiveSolutionName:     card.Definitive.UserName,
		UserAppDefinitiveSolutionID:    card.Definitive.AppUserID,
		UserAppDefinitiveSolutionName:  card.Definitive.AppUserName,
		CardDefinitiveSolutionDate:     card.Definitive.Date,
		CommentsAtCardDefinitiveSol:    card.Definitive.Comments,
		CreatedAt:                      card.CreatedAt,
		UpdatedAt:                      card.UpdatedAt,
		DeletedAt:                      card.DeletedAt,
	}
}
