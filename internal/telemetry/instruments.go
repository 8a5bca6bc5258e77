package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CardInstruments are the counters recorded by the card engine.
type CardInstruments struct {
	created       metric.Int64Counter
	transitions   metric.Int64Counter
	notifications metric.Int64Counter
}

// NewCardInstruments registers the card counters on meter. Registration
// errors fall back to no-op counters so recording never fails.
func NewCardInstruments(meter metric.Meter) *CardInstruments {
	ci := &CardInstruments{}
	ci.created, _ = meter.Int64Counter("cardtrack.cards.created",
		metric.WithDescription("Cards created"),
		metric.WithUnit("{card}"),
	)
	ci.transitions, _ = meter.Int64Counter("cardtrack.cards.transitions",
		metric.WithDescription("Card status transitions"),
		metric.WithUnit("{transition}"),
	)
	ci.notifications, _ = meter.Int64Counter("cardtrack.notifications.dispatched",
		metric.WithDescription("Outbox notifications processed, by result"),
		metric.WithUnit("{notification}"),
	)
	return ci
}

func (ci *CardInstruments) CardCreated(ctx context.Context, siteCode string) {
	if ci == nil || ci.created == nil {
		return
	}
	ci.created.Add(ctx, 1, metric.WithAttributes(attribute.String("site", siteCode)))
}

func (ci *CardInstruments) Transition(ctx context.Context, from string, to string) {
	if ci == nil || ci.transitions == nil {
		return
	}
	ci.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (ci *CardInstruments) NotificationDispatched(ctx context.Context, result string) {
	if ci == nil || ci.notifications == nil {
		return
	}
	ci.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
