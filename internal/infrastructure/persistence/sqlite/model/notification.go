package model

type NotificationOutbox struct {
	NotificationID string `gorm:"column:notification_id;type:text;primaryKey"`
	SiteID         uint64 `gorm:"column:site_id;not null"`
	ExcludedUserID uint64 `gorm:"column:excluded_user_id;not null"`
	CardID         uint64 `gorm:"column:card_id;not null"`
	Title          string `gorm:"column:title;type:text;not null"`
	Body           string `gorm:"column:body;type:text;not null"`
	Category       string `gorm:"column:category;type:text;not null"`
	Status         string `gorm:"column:status;type:text;not null;index"`
	Attempts       int    `gorm:"column:attempts;not null;default:0"`
	LastError      string `gorm:"column:last_error;type:text;not null;default:''"`
	CreatedAt      string `gorm:"column:created_at;type:text;not null;index"`
	UpdatedAt      string `gorm:"column:updated_at;type:text;not null"`
}

func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}

type KV struct {
	Key       string  `gorm:"column:key;type:text;primaryKey"`
	Value     string  `gorm:"column:value;type:text;not null"`
	ExpiresAt *string `gorm:"column:expires_at;type:text"`
	UpdatedAt string  `gorm:"column:updated_at;type:text;not null"`
}

func (KV) TableName() string {
	return "kv"
}
