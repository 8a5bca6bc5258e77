package model

// All lists every table migrated by init-db and by tests.
func All() []any {
	return []any{
		&Site{},
		&Level{},
		&Priority{},
		&CardType{},
		&Preclassifier{},
		&User{},
		&Card{},
		&Evidence{},
		&CardNote{},
		&SiteCardSequence{},
		&NotificationOutbox{},
		&KV{},
	}
}
