// Package telemetry настраивает метрики OpenTelemetry для клиента статистики.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName = "restostats"
	meterName   = "github.com/KruglovEgor/RestoStats"
)

// Config содержит настройки экспорта метрик
type Config struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	ExportInterval time.Duration
	ServiceVersion string
}

// Setup создаёт MeterProvider. Если экспорт выключен, возвращается noop-провайдер.
// Возвращаемая функция завершает работу провайдера и сбрасывает накопленные метрики.
func Setup(ctx context.Context, cfg Config) (metric.MeterProvider, func(context.Context) error, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure(),
		)
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.ExportInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.ExportInterval))
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return provider, provider.Shutdown, nil
}

// Metrics содержит инструменты слоя статистики
type Metrics struct {
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	cacheShared     metric.Int64Counter
	rateLimited     metric.Int64Counter
	backendRequests metric.Int64Counter
	backendLatency  metric.Float64Histogram
	watcherErrors   metric.Int64Counter
}

// NewMetrics создаёт инструменты из переданного провайдера
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	cacheHits, err := meter.Int64Counter(
		"restostats_cache_hits_total",
		metric.WithDescription("Responses served from the local cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache hits counter: %w", err)
	}

	cacheMisses, err := meter.Int64Counter(
		"restostats_cache_misses_total",
		metric.WithDescription("Cache lookups that required a backend call"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache misses counter: %w", err)
	}

	cacheShared, err := meter.Int64Counter(
		"restostats_inflight_shared_total",
		metric.WithDescription("Callers that reused an in-flight backend call"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shared calls counter: %w", err)
	}

	rateLimited, err := meter.Int64Counter(
		"restostats_rate_limited_total",
		metric.WithDescription("Requests rejected by the client-side rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rate limited counter: %w", err)
	}

	backendRequests, err := meter.Int64Counter(
		"restostats_backend_requests_total",
		metric.WithDescription("Requests sent to the POS backend"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating backend requests counter: %w", err)
	}

	backendLatency, err := meter.Float64Histogram(
		"restostats_backend_request_duration_seconds",
		metric.WithDescription("POS backend request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating backend latency histogram: %w", err)
	}

	watcherErrors, err := meter.Int64Counter(
		"restostats_watcher_errors_total",
		metric.WithDescription("Failed watcher fetch attempts"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating watcher errors counter: %w", err)
	}

	return &Metrics{
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheShared:     cacheShared,
		rateLimited:     rateLimited,
		backendRequests: backendRequests,
		backendLatency:  backendLatency,
		watcherErrors:   watcherErrors,
	}, nil
}

// NewNoop возвращает инструменты, которые ничего не записывают
func NewNoop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// CacheHit учитывает попадание в кэш
func (m *Metrics) CacheHit(ctx context.Context, family string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("family", family)))
}

// CacheMiss учитывает промах кэша
func (m *Metrics) CacheMiss(ctx context.Context, family string) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("family", family)))
}

// InFlightShared учитывает вызов, получивший результат чужого запроса
func (m *Metrics) InFlightShared(ctx context.Context, family string) {
	m.cacheShared.Add(ctx, 1, metric.WithAttributes(attribute.String("family", family)))
}

// RateLimited учитывает отказ ограничителя
func (m *Metrics) RateLimited(ctx context.Context, endpoint string) {
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// BackendRequest учитывает запрос к бэкенду и его длительность
func (m *Metrics) BackendRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	m.backendRequests.Add(ctx, 1, attrs)
	m.backendLatency.Record(ctx, elapsed.Seconds(), attrs)
}

// WatcherError учитывает неудачную попытку наблюдателя
func (m *Metrics) WatcherError(ctx context.Context, watcher string) {
	m.watcherErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("watcher", watcher)))
}
