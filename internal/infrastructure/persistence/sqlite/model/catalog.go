package model

type Site struct {
	SiteID   uint64 `gorm:"column:site_id;primaryKey;autoIncrement:false"`
	SiteCode string `gorm:"column:site_code;type:text;not null"`
	Name     string `gorm:"column:name;type:text;not null"`
}

func (Site) TableName() string {
	return "sites"
}

type Level struct {
	LevelID        uint64 `gorm:"column:level_id;primaryKey;autoIncrement:false"`
	SiteID         uint64 `gorm:"column:site_id;not null;index"`
	SuperiorID     uint64 `gorm:"column:superior_id;not null;default:0"`
	Name           string `gorm:"column:name;type:text;not null"`
	Description    string `gorm:"column:description;type:text;not null;default:''"`
	LevelMachineID string `gorm:"column:level_machine_id;type:text;not null;default:'';index"`
	Status         string `gorm:"column:status;type:text;not null;default:'A'"`
}

func (Level) TableName() string {
	return "levels"
}

type Priority struct {
	PriorityID          uint64 `gorm:"column:priority_id;primaryKey;autoIncrement:false"`
	SiteID              uint64 `gorm:"column:site_id;not null;index"`
	PriorityCode        string `gorm:"column:priority_code;type:text;not null"`
	PriorityDescription string `gorm:"column:priority_description;type:text;not null"`
	PriorityDays        int    `gorm:"column:priority_days;not null;default:0"`
}

func (Priority) TableName() string {
	return "priorities"
}

type CardType struct {
	CardTypeID          uint64 `gorm:"column:card_type_id;primaryKey;autoIncrement:false"`
	SiteID              uint64 `gorm:"column:site_id;not null;index"`
	CardTypeMethodology string `gorm:"column:card_type_methodology;type:text;not null"`
	Methodology         string `gorm:"column:methodology;type:text;not null"`
	Name                string `gorm:"column:name;type:text;not null"`
	Color               string `gorm:"column:color;type:text;not null"`
}

func (CardType) TableName() string {
	return "card_types"
}

type Preclassifier struct {
	PreclassifierID          uint64 `gorm:"column:preclassifier_id;primaryKey;autoIncrement:false"`
	CardTypeID               uint64 `gorm:"column:card_type_id;not null"`
	SiteID                   uint64 `gorm:"column:site_id;not null;index"`
	PreclassifierCode        string `gorm:"column:preclassifier_code;type:text;not null"`
	PreclassifierDescription string `gorm:"column:preclassifier_description;type:text;not null"`
}

func (Preclassifier) TableName() string {
	return "preclassifiers"
}

type User struct {
	UserID   uint64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	SiteID   uint64 `gorm:"column:site_id;not null;index"`
	Name     string `gorm:"column:name;type:text;not null"`
	Email    string `gorm:"column:email;type:text;not null;default:''"`
	AppToken string `gorm:"column:app_token;type:text;not null;default:''"`
}

func (User) TableName() string {
	return "users"
}
