// Package tracing - OpenTelemetry setup.
//
// Экспорт спанов идёт по OTLP/HTTP в коллектор (Jaeger, Tempo, etc).
// HTTP-слой инструментируется otelgin middleware в роутере.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config - настройки трейсинга.
type Config struct {
	// ServiceName попадает в resource attributes каждого спана
	ServiceName string
	// ServiceVersion версия приложения
	ServiceVersion string
	// Environment (development, staging, production)
	Environment string
	// OTLPEndpoint - host:port OTLP HTTP коллектора (без схемы)
	OTLPEndpoint string
	// SampleRatio - доля трейсов для записи (0.0 - 1.0)
	SampleRatio float64
	// Insecure отключает TLS до коллектора
	Insecure bool
}

// Setup инициализирует глобальный TracerProvider.
//
// Возвращает shutdown-функцию, которую нужно вызвать при остановке
// приложения, чтобы дослать буферизованные спаны.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}
