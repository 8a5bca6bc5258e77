package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"cardtrack/internal/errs"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	"cardtrack/internal/ports"
)

const maxLastErrorLen = 1024

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) EnqueueNotification(ctx context.Context, item ports.OutboxNotification) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	status := item.Status
	if status == "" {
		status = ports.NotificationPending
	}
	row := model.NotificationOutbox{
		NotificationID: item.NotificationID,
		SiteID:         item.SiteID,
		ExcludedUserID: item.ExcludedUserID,
		CardID:         item.CardID,
		Title:          item.Notification.Title,
		Body:           item.Notification.Body,
		Category:       item.Notification.Category,
		Status:         status,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert notification")
	}
	return nil
}

// ListPendingNotifications returns the oldest pending rows first.
func (r *NotificationRepository) ListPendingNotifications(ctx context.Context, limit int) ([]ports.OutboxNotification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Where("status = ?", ports.NotificationPending).
		Order("created_at asc").
		Order("notification_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.NotificationOutbox
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending notifications")
	}

	items := make([]ports.OutboxNotification, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxNotification{
			NotificationID: row.NotificationID,
			SiteID:         row.SiteID,
			ExcludedUserID: row.ExcludedUserID,
			CardID:         row.CardID,
			Notification: ports.Notification{
				Title:    row.Title,
				Body:     row.Body,
				Category: row.Category,
			},
			Status:    row.Status,
			Attempts:  row.Attempts,
			LastError: row.LastError,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return items, nil
}

func (r *NotificationRepository) MarkNotificationSent(ctx context.Context, notificationID string, at string) error {
	return r.mark(ctx, notificationID, map[string]any{
		"status":     ports.NotificationSent,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": "",
		"updated_at": at,
	})
}

func (r *NotificationRepository) MarkNotificationFailed(ctx context.Context, notificationID string, lastError string, at string) error {
	lastError = strings.TrimSpace(lastError)
	if len(lastError) > maxLastErrorLen {
		lastError = lastError[:maxLastErrorLen]
	}
	return r.mark(ctx, notificationID, map[string]any{
		"status":     ports.NotificationFailed,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastError,
		"updated_at": at,
	})
}

func (r *NotificationRepository) mark(ctx context.Context, notificationID string, updates map[string]any) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.NotificationOutbox{}).
		Where("notification_id = ?", notificationID).
		Updates(updates).Error; err != nil {
		return errs.Wrap(err, "update notification status")
	}
	return nil
}
