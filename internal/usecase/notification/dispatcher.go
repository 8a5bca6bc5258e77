package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
	"cardtrack/internal/telemetry"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultMaxElapsed   = 30 * time.Second
	defaultBatchSize    = 50
	defaultPollInterval = 10 * time.Second
)

type Config struct {
	Timeout      time.Duration
	MaxElapsed   time.Duration
	BatchSize    int
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxElapsed <= 0 {
		c.MaxElapsed = defaultMaxElapsed
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Dispatcher delivers queued card notifications. Delivery failures mark the
// outbox row failed and are never reported back to the card mutation that
// queued it.
type Dispatcher struct {
	outbox ports.NotificationOutbox
	roster ports.TokenRoster
	sender ports.NotificationSender
	cfg    Config

	now         func() time.Time
	newBackOff  func() backoff.BackOff
	instruments *telemetry.CardInstruments
	wake        chan struct{}
}

type Option func(*Dispatcher)

func WithNow(fn func() time.Time) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.now = fn
		}
	}
}

func WithBackOff(fn func() backoff.BackOff) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newBackOff = fn
		}
	}
}

func WithInstruments(ci *telemetry.CardInstruments) Option {
	return func(d *Dispatcher) { d.instruments = ci }
}

func NewDispatcher(
	outbox ports.NotificationOutbox,
	roster ports.TokenRoster,
	sender ports.NotificationSender,
	cfg Config,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		outbox: outbox,
		roster: roster,
		sender: sender,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
	d.newBackOff = d.defaultBackOff
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = d.cfg.MaxElapsed
	return bo
}

// Wake asks a running loop to dispatch now. It never blocks.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// DispatchPending sends one batch of pending notifications and returns how
// many were delivered.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}
	if d.outbox == nil || d.roster == nil || d.sender == nil {
		return 0, errors.New("notification dispatcher is not configured")
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.notification"))

	items, err := d.outbox.ListPendingNotifications(ctx, d.cfg.BatchSize)
	if err != nil {
		return 0, errs.Wrap(err, "list pending notifications")
	}

	sent := 0
	for _, item := range items {
		itemCtx := logging.WithAttrs(logCtx,
			slog.String("notification_id", item.NotificationID),
			slog.Uint64("card_id", item.CardID),
		)

		deliverErr := d.deliver(ctx, item)
		at := d.now().UTC().Format(time.RFC3339)
		if deliverErr != nil {
			logging.Warn(itemCtx, "notification delivery failed",
				slog.Int("attempts", item.Attempts+1),
				slog.Any("err", errs.Loggable(deliverErr)),
			)
			d.instruments.NotificationDispatched(ctx, ports.NotificationFailed)
			if err := d.outbox.MarkNotificationFailed(ctx, item.NotificationID, deliverErr.Error(), at); err != nil {
				return sent, errs.Wrapf(err, "mark notification %s failed", item.NotificationID)
			}
			continue
		}

		if err := d.outbox.MarkNotificationSent(ctx, item.NotificationID, at); err != nil {
			return sent, errs.Wrapf(err, "mark notification %s sent", item.NotificationID)
		}
		d.instruments.NotificationDispatched(ctx, ports.NotificationSent)
		sent++
	}

	if len(items) > 0 {
		logging.Info(logCtx, "notification batch dispatched",
			slog.Int("pending", len(items)),
			slog.Int("sent", sent),
		)
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, item ports.OutboxNotification) error {
	tokens, err := d.roster.TokensForSiteExcluding(ctx, item.SiteID, item.ExcludedUserID)
	if err != nil {
		return errs.Wrap(err, "list site tokens")
	}
	if len(tokens) == 0 {
		return nil
	}

	return backoff.Retry(func() error {
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
		return d.sender.SendToMany(sendCtx, tokens, item.Notification)
	}, backoff.WithContext(d.newBackOff(), ctx))
}

// Run dispatches on every poll interval and on Wake until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.notification"))

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchPending(ctx); err != nil && ctx.Err() == nil {
			logging.Error(logCtx, "notification dispatch failed", slog.Any("err", errs.Loggable(err)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-d.wake:
		}
	}
}
