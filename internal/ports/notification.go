package ports

import "context"

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is the payload handed to a sender.
type Notification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

// OutboxNotification is a queued notification for every user of a site except
// the one that triggered it.
type OutboxNotification struct {
	NotificationID string
	SiteID         uint64
	ExcludedUserID uint64
	CardID         uint64
	Notification   Notification
	Status         string
	Attempts       int
	LastError      string
	CreatedAt      string
	UpdatedAt      string
}

type NotificationOutbox interface {
	EnqueueNotification(ctx context.Context, item OutboxNotification) error
	ListPendingNotifications(ctx context.Context, limit int) ([]OutboxNotification, error)
	MarkNotificationSent(ctx context.Context, notificationID string, at string) error
	MarkNotificationFailed(ctx context.Context, notificationID string, lastError string, at string) error
}

// NotificationSender delivers one notification to many device tokens.
type NotificationSender interface {
	SendToMany(ctx context.Context, tokens []string, n Notification) error
}
