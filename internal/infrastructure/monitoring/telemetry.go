package monitoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	TracingEnabled bool
	JaegerEndpoint string
	OTLPEndpoint   string
	SamplingRate   float64

	MetricsEnabled bool
}

// Telemetry owns the tracer and meter providers
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	logger         *zap.Logger
	config         TelemetryConfig
}

// NewTelemetry installs the global tracer and meter providers. OTel metrics
// are exported through registerer so they share the /metrics endpoint.
func NewTelemetry(config TelemetryConfig, registerer prometheus.Registerer, logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Telemetry{
		logger: logger.Named("telemetry"),
		config: config,
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.TracingEnabled {
		if err := t.initializeTracing(res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if config.MetricsEnabled {
		if err := t.initializeMetrics(res, registerer); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	t.logger.Info("OpenTelemetry initialized",
		zap.String("service", config.ServiceName),
		zap.String("version", config.ServiceVersion),
		zap.Bool("tracing_enabled", t.tracerProvider != nil),
		zap.Bool("metrics_enabled", t.meterProvider != nil),
	)

	return t, nil
}

func (t *Telemetry) initializeTracing(res *resource.Resource) error {
	var exporters []sdktrace.SpanExporter

	if t.config.JaegerEndpoint != "" {
		exporter, err := jaeger.New(
			jaeger.WithCollectorEndpoint(
				jaeger.WithEndpoint(t.config.JaegerEndpoint),
			),
		)
		if err != nil {
			return fmt.Errorf("failed to create Jaeger exporter: %w", err)
		}
		exporters = append(exporters, exporter)
		t.logger.Info("Jaeger exporter configured", zap.String("endpoint", t.config.JaegerEndpoint))
	}

	if t.config.OTLPEndpoint != "" {
		exporter, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpoint(t.config.OTLPEndpoint),
				otlptracehttp.WithInsecure(),
			),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporters = append(exporters, exporter)
		t.logger.Info("OTLP trace exporter configured", zap.String("endpoint", t.config.OTLPEndpoint))
	}

	if len(exporters) == 0 {
		t.logger.Warn("No trace exporters configured, tracing stays disabled")
		return nil
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.config.SamplingRate))),
	}
	for _, exporter := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	t.tracerProvider = sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(t.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource, registerer prometheus.Registerer) error {
	opts := []otelprom.Option{otelprom.WithoutTargetInfo()}
	if registerer != nil {
		opts = append(opts, otelprom.WithRegisterer(registerer))
	}

	exporter, err := otelprom.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(t.meterProvider)
	return nil
}

// Meter returns the service meter, a no-op one when metrics are disabled
func (t *Telemetry) Meter() metric.Meter {
	if t.meterProvider == nil {
		return noop.NewMeterProvider().Meter(t.config.ServiceName)
	}
	return t.meterProvider.Meter(
		t.config.ServiceName,
		metric.WithInstrumentationVersion(t.config.ServiceVersion),
		metric.WithSchemaURL(semconv.SchemaURL),
	)
}

// TracerProvider returns the installed provider or the global one
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	if t.tracerProvider == nil {
		return otel.GetTracerProvider()
	}
	return t.tracerProvider
}

// Shutdown flushes and stops both providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}
	if t.meterProvider != nil {
		errs = append(errs, t.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// PlannerInstruments are the OpenTelemetry counters for plan contents
type PlannerInstruments struct {
	instances     metric.Int64Counter
	substitutions metric.Int64Counter
	uncommitted   metric.Int64Counter
}

// NewPlannerInstruments creates the planner counters on meter
func NewPlannerInstruments(meter metric.Meter) (*PlannerInstruments, error) {
	instances, err := meter.Int64Counter("planner.instances_scheduled",
		metric.WithDescription("Recipe instances placed into generated plans"))
	if err != nil {
		return nil, err
	}
	substitutions, err := meter.Int64Counter("planner.substitutions",
		metric.WithDescription("Grid references replaced by a favorite recipe"))
	if err != nil {
		return nil, err
	}
	uncommitted, err := meter.Int64Counter("planner.uncommitted_instances",
		metric.WithDescription("Instances kept without a committed serving"))
	if err != nil {
		return nil, err
	}

	return &PlannerInstruments{
		instances:     instances,
		substitutions: substitutions,
		uncommitted:   uncommitted,
	}, nil
}

// Record adds one plan's counts
func (p *PlannerInstruments) Record(ctx context.Context, instances, substitutions, uncommitted int) {
	attrs := metric.WithAttributes(attribute.Bool("personalized", substitutions > 0))
	p.instances.Add(ctx, int64(instances), attrs)
	p.substitutions.Add(ctx, int64(substitutions), attrs)
	p.uncommitted.Add(ctx, int64(uncommitted), attrs)
}
