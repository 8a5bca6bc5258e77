package model

type Card struct {
	CardID     uint64 `gorm:"column:card_id;primaryKey;autoIncrement"`
	CardUUID   string `gorm:"column:card_uuid;type:text;not null;uniqueIndex"`
	SiteCardID uint64 `gorm:"column:site_card_id;not null;uniqueIndex:idx_cards_site_card,priority:2"`

	SiteID     uint64 `gorm:"column:site_id;not null;uniqueIndex:idx_cards_site_card,priority:1;index"`
	SiteCode   string `gorm:"column:site_code;type:text;not null"`
	AreaID     uint64 `gorm:"column:area_id;not null"`
	AreaName   string `gorm:"column:area_name;type:text;not null"`
	NodeID     uint64 `gorm:"column:node_id;not null;index"`
	NodeName   string `gorm:"column:node_name;type:text;not null"`
	Level      int    `gorm:"column:level;not null"`
	Location   string `gorm:"column:location;type:text;not null"`
	SuperiorID uint64 `gorm:"column:superior_id;not null;index"`

	PriorityID          *uint64 `gorm:"column:priority_id"`
	PriorityCode        *string `gorm:"column:priority_code;type:text"`
	PriorityDescription *string `gorm:"column:priority_description;type:text"`

	CardTypeID              uint64  `gorm:"column:card_type_id;not null"`
	CardTypeColor           string  `gorm:"column:card_type_color;type:text;not null"`
	CardTypeMethodology     *string `gorm:"column:card_type_methodology;type:text"`
	CardTypeMethodologyName string  `gorm:"column:card_type_methodology_name;type:text;not null"`
	CardTypeName            string  `gorm:"column:card_type_name;type:text;not null"`
	CardTypeValue           *string `gorm:"column:card_type_value;type:text"`

	PreclassifierID          uint64 `gorm:"column:preclassifier_id;not null"`
	PreclassifierCode        string `gorm:"column:preclassifier_code;type:text;not null"`
	PreclassifierDescription string `gorm:"column:preclassifier_description;type:text;not null"`

	CreatorID   uint64 `gorm:"column:creator_id;not null"`
	CreatorName string `gorm:"column:creator_name;type:text;not null"`

	ResponsibleID   *uint64 `gorm:"column:responsible_id;index"`
	ResponsibleName *string `gorm:"column:responsible_name;type:text"`
	MechanicID      *uint64 `gorm:"column:mechanic_id"`
	MechanicName    *string `gorm:"column:mechanic_name;type:text"`

	EvidenceAUCR bool `gorm:"column:evidence_aucr;not null;default:0"`
	EvidenceVICR bool `gorm:"column:evidence_vicr;not null;default:0"`
	EvidenceIMCR bool `gorm:"column:evidence_imcr;not null;default:0"`
	EvidenceAUCL bool `gorm:"column:evidence_aucl;not null;default:0"`
	EvidenceVICL bool `gorm:"column:evidence_vicl;not null;default:0"`
	EvidenceIMCL bool `gorm:"column:evidence_imcl;not null;default:0"`
	EvidenceAUPS bool `gorm:"column:evidence_aups;not null;default:0"`
	EvidenceVIPS bool `gorm:"column:evidence_vips;not null;default:0"`
	EvidenceIMPS bool `gorm:"column:evidence_imps;not null;default:0"`

	Status             string `gorm:"column:status;type:text;not null;default:'A';index"`
	DueDate            string `gorm:"column:due_date;type:text;not null"`
	CommentsAtCreation string `gorm:"column:comments_at_card_creation;type:text;not null;default:''"`

	UserProvisionalSolutionID      *uint64 `gorm:"column:user_provisional_solution_id"`
	UserProvisionalSolutionName    *string `gorm:"column:user_provisional_solution_name;type:text"`
	UserAppProvisionalSolutionID   *uint64 `gorm:"column:user_app_provisional_solution_id"`
	UserAppProvisionalSolutionName *string `gorm:"column:user_app_provisional_solution_name;type:text"`
	CardProvisionalSolutionDate    *string `gorm:"column:card_provisional_solution_date;type:text"`
	CommentsAtCardProvisionalSol   *string `gorm:"column:comments_at_card_provisional_solution;type:text"`

	UserDefinitiveSolutionID      *uint64 `gorm:"column:user_definitive_solution_id"`
	UserDefinitiveSolutionName    *string `gorm:"column:user_definitive_solution_name;type:text"`
	UserAppDefinitiveSolutionID   *uint64 `gorm:"column:user_app_definitive_solution_id"`
	UserAppDefinitiveSolutionName *string `gorm:"column:user_app_definitive_solution_name;type:text"`
	CardDefinitiveSolutionDate    *string `gorm:"column:card_definitive_solution_date;type:text"`
	CommentsAtCardDefinitiveSol   *string `gorm:"column:comments_at_card_definitive_solution;type:text"`

	CreatedAt string  `gorm:"column:created_at;type:text;not null;index"`
	UpdatedAt string  `gorm:"column:updated_at;type:text;not null"`
	DeletedAt *string `gorm:"column:deleted_at;type:text"`
}

func (Card) TableName() string {
	return "cards"
}

type Evidence struct {
	EvidenceID uint64 `gorm:"column:evidence_id;primaryKey;autoIncrement"`
	CardID     uint64 `gorm:"column:card_id;not null;index"`
	SiteID     uint64 `gorm:"column:site_id;not null"`
	URL        string `gorm:"column:evidence_name;type:text;not null"`
	Type       string `gorm:"column:evidence_type;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null"`
}

func (Evidence) TableName() string {
	return "evidences"
}

type CardNote struct {
	NoteID    uint64 `gorm:"column:note_id;primaryKey;autoIncrement"`
	CardID    uint64 `gorm:"column:card_id;not null;index"`
	SiteID    uint64 `gorm:"column:site_id;not null"`
	Note      string `gorm:"column:note;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (CardNote) TableName() string {
	return "card_notes"
}

// SiteCardSequence holds the last issued site-local card number.
type SiteCardSequence struct {
	SiteID     uint64 `gorm:"column:site_id;primaryKey;autoIncrement:false"`
	LastCardID uint64 `gorm:"column:last_card_id;not null"`
	UpdatedAt  string `gorm:"column:updated_at;type:text;not null"`
}

func (SiteCardSequence) TableName() string {
	return "site_card_sequences"
}
