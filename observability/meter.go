package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/stackup/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name reported for metrics.
	ServiceName string
	// ServiceVersion is the version of the binary.
	ServiceVersion string
	// Environment is the deployment environment (development, staging, production).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows plain HTTP (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on exit to flush metrics.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded during a run.
type Metrics struct {
	nodeTotal     metric.Int64Counter
	nodeDuration  metric.Float64Histogram
	nodeActive    metric.Int64UpDownCounter
	probeAttempts metric.Int64Counter
	runTotal      metric.Int64Counter
	runDuration   metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	nodeTotal, err := meter.Int64Counter("stackup.node.total",
		metric.WithDescription("Nodes that reached a terminal state, by kind and state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stackup.node.total counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("stackup.node.duration",
		metric.WithDescription("Time from leaving pending to a terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stackup.node.duration histogram: %w", err)
	}

	nodeActive, err := meter.Int64UpDownCounter("stackup.node.active",
		metric.WithDescription("Nodes currently starting or running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stackup.node.active gauge: %w", err)
	}

	probeAttempts, err := meter.Int64Counter("stackup.probe.attempts",
		metric.WithDescription("Readiness attempts that did not succeed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stackup.probe.attempts counter: %w", err)
	}

	runTotal, err := meter.Int64Counter("stackup.run.total",
		metric.WithDescription("Orchestration runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stackup.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("stackup.run.duration",
		metric.WithDescription("Duration of orchestration runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stackup.run.duration histogram: %w", err)
	}

	return &Metrics{
		nodeTotal:     nodeTotal,
		nodeDuration:  nodeDuration,
		nodeActive:    nodeActive,
		probeAttempts: probeAttempts,
		runTotal:      runTotal,
		runDuration:   runDuration,
	}, nil
}

// RecordNodeStart increments the active node count.
func (m *Metrics) RecordNodeStart(ctx context.Context, kind string) {
	m.nodeActive.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordNodeEnd decrements active nodes and records the terminal state.
func (m *Metrics) RecordNodeEnd(ctx context.Context, node, kind, state string, duration time.Duration) {
	m.nodeActive.Add(ctx, -1, metric.WithAttributes(attribute.String("kind", kind)))
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("state", state),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("kind", kind),
	))
}

// RecordProbeAttempt counts a failed readiness attempt.
func (m *Metrics) RecordProbeAttempt(ctx context.Context, node, probeKind string) {
	m.probeAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("probe_kind", probeKind),
	))
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, outcome string, duration time.Duration) {
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}
