package telemetry

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Options selects where finished spans go. With no endpoint and LogSpans
// unset, spans are sampled but dropped.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Insecure       bool
	SampleRatio    float64
	LogSpans       bool
	Logger         zerolog.Logger
}

// SetupTracing installs a global tracer provider and propagators. Callers
// own the returned provider and must shut it down to flush pending spans.
func SetupTracing(ctx context.Context, o Options) (*sdktrace.TracerProvider, error) {
	ratio := o.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(o.ServiceName),
		semconv.ServiceVersion(o.ServiceVersion),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
	}

	if o.Endpoint != "" {
		exporter, err := newOTLPExporter(ctx, o.Endpoint, o.Insecure)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	if o.LogSpans {
		logger := o.Logger.With().Str("component", "otel").Logger()
		opts = append(opts, sdktrace.WithSyncer(newLoggingExporterWithLogger(logger)))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return provider, nil
}

func newOTLPExporter(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	// otlptracehttp wants host:port; a scheme decides transport security.
	ep := endpoint
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		ep = strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		ep = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	}
	ep = strings.TrimRight(ep, "/")
	if ep == "" {
		return nil, errors.New("invalid OTLP endpoint")
	}
	clientOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(ep)}
	if insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, clientOpts...)
}
