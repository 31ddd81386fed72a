// Package telemetry exports run, suite and test lifecycles as OpenTelemetry
// traces.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/aryankumar/paratest/internal/util"
)

// Config holds the exporter settings
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is host:port of an OTLP/HTTP collector; the path is added by the exporter
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// DefaultConfig returns a configuration for a local collector
func DefaultConfig(version string) Config {
	return Config{
		ServiceName:    "paratest",
		ServiceVersion: version,
		Endpoint:       "127.0.0.1:4318",
		Insecure:       true,
		SampleRatio:    1.0,
	}
}

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider that exports over OTLP/HTTP and
// returns its shutdown function.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		return nil, util.NewValidationError("otlp-endpoint", cfg.Endpoint, "must not be empty")
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, util.NewValidationError("sampleRatio", cfg.SampleRatio, "must be between 0 and 1")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "paratest"
	}

	logger.Debug("setting up tracing",
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint)

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Shutdown calls shutdown with a bounded timeout and logs the outcome
func Shutdown(shutdown ShutdownFunc, timeout time.Duration, logger *slog.Logger) error {
	if shutdown == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
		return err
	}
	logger.Debug("tracing shut down")
	return nil
}
