package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"cardtrack/internal/bootstrap/config"
	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
	"cardtrack/internal/infrastructure/persistence/sqlite/model"
	"cardtrack/internal/ports"
	"cardtrack/internal/usecase/card"
	"cardtrack/internal/usecase/notification"
)

// App is what a command gets from the fx graph. The database is closed by the
// fx lifecycle, not by App.
type App struct {
	Config     config.Config
	DB         *gorm.DB
	Cards      *card.Service
	Dispatcher *notification.Dispatcher
	Catalog    ports.CatalogWriter
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}
