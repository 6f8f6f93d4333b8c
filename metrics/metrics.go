// Package metrics records bridge instrumentation through the
// OpenTelemetry SDK and exposes it on a Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const shutdownTimeout = 5 * time.Second

// Collector manages all metrics for a bridge worker. A nil or
// disabled Collector is safe to use; every method degrades to a
// no-op, so callers never guard their instrumentation sites.
type Collector struct {
	enabled bool
	addr    string

	registry *promclient.Registry
	provider *sdkmetric.MeterProvider
	server   *http.Server

	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	activePrograms  metric.Int64UpDownCounter
	lmRequests      metric.Int64Counter
	lmDuration      metric.Float64Histogram
}

// New creates a collector that serves Prometheus metrics on addr.
// An empty addr disables collection entirely.
func New(addr string) (*Collector, error) {
	if addr == "" {
		return &Collector{}, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName("lmbridge")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)
	meter := provider.Meter("lmbridge")

	requests, err := meter.Int64Counter(
		"lmbridge.requests",
		metric.WithDescription("Requests dispatched, by command and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"lmbridge.request.duration",
		metric.WithDescription("Request handling duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request_duration histogram: %w", err)
	}

	activePrograms, err := meter.Int64UpDownCounter(
		"lmbridge.programs.active",
		metric.WithDescription("Programs currently held in the registry"),
		metric.WithUnit("{program}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_programs gauge: %w", err)
	}

	lmRequests, err := meter.Int64Counter(
		"lmbridge.lm.requests",
		metric.WithDescription("Language model calls, by model and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lm_requests counter: %w", err)
	}

	lmDuration, err := meter.Float64Histogram(
		"lmbridge.lm.duration",
		metric.WithDescription("Language model call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lm_duration histogram: %w", err)
	}

	return &Collector{
		enabled:         true,
		addr:            addr,
		registry:        registry,
		provider:        provider,
		requests:        requests,
		requestDuration: requestDuration,
		activePrograms:  activePrograms,
		lmRequests:      lmRequests,
		lmDuration:      lmDuration,
	}, nil
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// RecordRequest records one dispatched request.
func (c *Collector) RecordRequest(command, status string, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	ctx := context.Background()
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	))
	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("command", command),
	))
}

// AddActivePrograms moves the registry occupancy gauge by delta.
func (c *Collector) AddActivePrograms(delta int64) {
	if !c.Enabled() {
		return
	}
	c.activePrograms.Add(context.Background(), delta)
}

// RecordLMRequest records one language model call.
func (c *Collector) RecordLMRequest(model, outcome string, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	ctx := context.Background()
	c.lmRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
	c.lmDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("model", model),
	))
}

// Serve runs the Prometheus scrape endpoint until ctx is cancelled.
// It returns immediately for a disabled collector.
func (c *Collector) Serve(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	c.server = &http.Server{Addr: c.addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- c.server.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return c.server.Shutdown(shutdownCtx)
	}
}

// Shutdown flushes the meter provider. Safe on a disabled collector.
func (c *Collector) Shutdown(ctx context.Context) error {
	if c == nil || c.provider == nil {
		return nil
	}
	return c.provider.Shutdown(ctx)
}
