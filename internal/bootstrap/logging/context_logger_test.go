package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestWithAttrsOverridesByKey(t *testing.T) {
	ctx := WithAttrs(context.Background(), slog.String("component", "a"), slog.Int("site_id", 1))
	ctx = WithAttrs(ctx, slog.String("component", "b"))

	attrs := Attrs(ctx)
	if len(attrs) != 2 {
		t.Fatalf("attrs len = %d, want 2", len(attrs))
	}
	if attrs[0].Key != "component" || attrs[0].Value.String() != "b" {
		t.Fatalf("attrs[0] = %v", attrs[0])
	}
}

func TestLoggerWritesContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "json", "info"))
	ctx = WithCard(ctx, 42, "6f1c7a52-8f0e-4a0b-9a57-2d1f1f1b3c11")

	Info(ctx, "card created", slog.String("component", "test"))
	Debug(ctx, "suppressed")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line: %v (raw=%q)", err, buf.String())
	}
	if line["msg"] != "card created" {
		t.Fatalf("msg = %v", line["msg"])
	}
	if line["card_id"] != float64(42) {
		t.Fatalf("card_id = %v", line["card_id"])
	}
	if line["component"] != "test" {
		t.Fatalf("component = %v", line["component"])
	}
}
