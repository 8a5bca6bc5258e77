package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"cardtrack/internal/bootstrap/config"
	"cardtrack/internal/bootstrap/database"
	"cardtrack/internal/bootstrap/logging"
	cacheinfra "cardtrack/internal/infrastructure/cache"
	"cardtrack/internal/infrastructure/notify"
	sqliterepo "cardtrack/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "cardtrack/internal/infrastructure/persistence/sqlite/uow"
	"cardtrack/internal/ports"
	"cardtrack/internal/telemetry"
	"cardtrack/internal/usecase/card"
	"cardtrack/internal/usecase/notification"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideTelemetry),
	fx.Provide(provideInstruments),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCardRepository,
			fx.As(new(ports.CardRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCatalogRepository,
			fx.As(new(ports.CatalogReader)),
			fx.As(new(ports.TokenRoster)),
			fx.As(new(ports.CatalogWriter)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReportRepository,
			fx.As(new(ports.ReportRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewNotificationRepository,
			fx.As(new(ports.NotificationOutbox)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideSender),
	fx.Provide(provideDispatcher),
	fx.Provide(provideCardService),
	fx.Provide(provideApp),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideTelemetry(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*telemetry.Providers, error) {
	providers, err := telemetry.Setup(ctx, telemetry.Options{
		Config:      cfg.Telemetry,
		ServiceName: cfg.App.Name,
		Writer:      os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: providers.Shutdown})
	return providers, nil
}

// provideInstruments depends on the providers so counters register on the
// installed meter provider.
func provideInstruments(_ *telemetry.Providers) *telemetry.CardInstruments {
	return telemetry.NewCardInstruments(telemetry.Meter("cardtrack/usecase/card"))
}

func provideSender(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.NotificationSender, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))
	if cfg.Notification.NATSURL == "" {
		logging.Info(logCtx, "notification transport: log")
		return notify.NewLogSender(), nil
	}

	sender, err := notify.DialNATS(cfg.Notification.NATSURL, cfg.Notification.Subject)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sender.Close()
			return nil
		},
	})
	logging.Info(logCtx, "notification transport: nats", slog.String("subject", cfg.Notification.Subject))
	return sender, nil
}

type dispatcherParams struct {
	fx.In

	Config      config.Config
	Outbox      ports.NotificationOutbox
	Roster      ports.TokenRoster
	Sender      ports.NotificationSender
	Instruments *telemetry.CardInstruments
}

func provideDispatcher(p dispatcherParams) *notification.Dispatcher {
	return notification.NewDispatcher(p.Outbox, p.Roster, p.Sender, notification.Config{
		Timeout:      p.Config.Notification.Timeout,
		MaxElapsed:   p.Config.Notification.MaxElapsed,
		BatchSize:    p.Config.Notification.BatchSize,
		PollInterval: p.Config.Notification.PollInterval,
	}, notification.WithInstruments(p.Instruments))
}

type cardServiceParams struct {
	fx.In

	Telemetry   *telemetry.Providers
	Cards       ports.CardRepository
	Catalog     ports.CatalogReader
	Reports     ports.ReportRepository
	Outbox      ports.NotificationOutbox
	UnitOfWork  ports.UnitOfWork
	Cache       ports.Cache
	Dispatcher  *notification.Dispatcher
	Instruments *telemetry.CardInstruments
}

func provideCardService(p cardServiceParams) *card.Service {
	return card.NewService(
		p.Cards,
		p.Catalog,
		p.Reports,
		p.Outbox,
		p.UnitOfWork,
		p.Cache,
		card.WithWaker(p.Dispatcher),
		card.WithInstruments(p.Instruments),
	)
}

type appParams struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Cards      *card.Service
	Dispatcher *notification.Dispatcher
	Catalog    ports.CatalogWriter
}

func provideApp(p appParams) *App {
	return &App{
		Config:     p.Config,
		DB:         p.DB,
		Cards:      p.Cards,
		Dispatcher: p.Dispatcher,
		Catalog:    p.Catalog,
	}
}
