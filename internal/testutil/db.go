package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"cardtrack/internal/bootstrap/database"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	"cardtrack/internal/ports"
)

// OpenDB opens a migrated sqlite database under t.TempDir.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := database.WithPragmas(filepath.Join(t.TempDir(), "cards.sqlite"))
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// Plant is a small catalog: site 1 with the chain Packing > Line 3 > Sealer,
// a second root Warehouse, and site 2 with its own area.
func Plant() ports.CatalogSnapshot {
	return ports.CatalogSnapshot{
		Sites: []ports.Site{
			{SiteID: 1, SiteCode: "PLT", Name: "Plant"},
			{SiteID: 2, SiteCode: "DST", Name: "Distribution"},
		},
		Levels: []ports.Level{
			{LevelID: 1, SiteID: 1, Name: "Packing"},
			{LevelID: 2, SiteID: 1, SuperiorID: 1, Name: "Line 3"},
			{LevelID: 3, SiteID: 1, SuperiorID: 2, Name: "Sealer", LevelMachineID: "MCH-3"},
			{LevelID: 4, SiteID: 1, Name: "Warehouse"},
			{LevelID: 10, SiteID: 2, Name: "Dock"},
		},
		Priorities: []ports.Priority{
			{PriorityID: 1, SiteID: 1, PriorityCode: "H", PriorityDescription: "High", PriorityDays: 3},
			{PriorityID: 2, SiteID: 1, PriorityCode: "L", PriorityDescription: "Low", PriorityDays: 15},
		},
		CardTypes: []ports.CardType{
			{CardTypeID: 1, SiteID: 1, CardTypeMethodology: "M", Methodology: "Maintenance", Name: "Red card", Color: "e53935"},
			{CardTypeID: 2, SiteID: 1, CardTypeMethodology: "C", Methodology: "Cleaning", Name: "Blue card", Color: "1e88e5"},
		},
		Preclassifiers: []ports.Preclassifier{
			{PreclassifierID: 1, CardTypeID: 1, SiteID: 1, PreclassifierCode: "LK", PreclassifierDescription: "Leak"},
			{PreclassifierID: 2, CardTypeID: 2, SiteID: 1, PreclassifierCode: "DS", PreclassifierDescription: "Dust"},
		},
		Users: []ports.User{
			{UserID: 7, SiteID: 1, Name: "Ana Ruiz", AppToken: "tok-ana"},
			{UserID: 8, SiteID: 1, Name: "Leo Park", AppToken: "tok-leo"},
			{UserID: 9, SiteID: 1, Name: "Max Stone", AppToken: "tok-max"},
		},
	}
}

// Seed writes snapshot through w.
func Seed(t *testing.T, w ports.CatalogWriter, snapshot ports.CatalogSnapshot) {
	t.Helper()
	if err := w.UpsertCatalog(context.Background(), snapshot); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}
