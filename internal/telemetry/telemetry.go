// Package telemetry wires OpenTelemetry tracing and metrics.
//
// Telemetry is off unless telemetry.enabled is set. When enabled, spans and
// metrics go to stdout (telemetry.stdout) and metrics additionally to an
// OTLP/HTTP collector (telemetry.otlp_endpoint). With neither configured,
// stdout is used.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"cardtrack/internal/bootstrap/config"
	"cardtrack/internal/errs"
)

const instrumentationScope = "cardtrack"

// Providers owns the installed tracer and meter providers.
type Providers struct {
	shutdownFns []func(context.Context) error
}

type Options struct {
	Config      config.TelemetryConfig
	ServiceName string
	// Writer receives stdout exports; os.Stdout when nil.
	Writer io.Writer
}

// Setup installs global providers. Disabled telemetry installs no-op providers.
func Setup(ctx context.Context, opts Options) (*Providers, error) {
	p := &Providers{}
	if !opts.Config.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return p, nil
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = instrumentationScope
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, errs.Wrap(err, "telemetry resource")
	}

	useStdout := opts.Config.Stdout || opts.Config.OTLPEndpoint == ""

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if useStdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(writer))
		if err != nil {
			return nil, errs.Wrap(err, "stdout trace exporter")
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tp)
	p.shutdownFns = append(p.shutdownFns, tp.Shutdown)

	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if useStdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(writer))
		if err != nil {
			return nil, errs.Wrap(err, "stdout metric exporter")
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second)),
		))
	}
	if endpoint := opts.Config.OTLPEndpoint; endpoint != "" {
		exp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, errs.Wrap(err, "otlp metric exporter")
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second)),
		))
	}
	mp := sdkmetric.NewMeterProvider(metricOpts...)
	otel.SetMeterProvider(mp)
	p.shutdownFns = append(p.shutdownFns, mp.Shutdown)

	return p, nil
}

// Shutdown flushes and stops every provider Setup installed.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errList []error
	for _, fn := range p.shutdownFns {
		if err := fn(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	p.shutdownFns = nil
	return errors.Join(errList...)
}

func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}
