package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the exporters installed by Init.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Env            string
	Endpoint       string
	Headers        map[string]string
}

// Endpoint is the parsed form of an OTLP collector URL.
type Endpoint struct {
	Host      string
	TracePath string
	LogPath   string
	Insecure  bool
}

// ParseEndpoint splits an OTLP URL into host and signal paths. A bare
// "/otlp" base path targets the Grafana Cloud gateway layout.
func ParseEndpoint(raw string) Endpoint {
	ep := Endpoint{TracePath: "/v1/traces", LogPath: "/v1/logs"}
	host := raw

	if strings.HasPrefix(host, "https://") {
		host = strings.TrimPrefix(host, "https://")
	} else if strings.HasPrefix(host, "http://") {
		host = strings.TrimPrefix(host, "http://")
		ep.Insecure = true
	}

	basePath := ""
	if idx := strings.Index(host, "/"); idx > 0 {
		basePath = host[idx:]
		host = host[:idx]
	}
	ep.Host = host

	if basePath != "" {
		basePath = strings.TrimSuffix(basePath, "/v1/traces")
		basePath = strings.TrimSuffix(basePath, "/v1/logs")
		basePath = strings.TrimSuffix(basePath, "/")
		ep.TracePath = basePath + "/v1/traces"
		ep.LogPath = basePath + "/v1/logs"
	}
	return ep
}

// Init installs the global tracer and logger providers plus the W3C
// propagators. With no endpoint only the propagators are installed.
// The returned function flushes and shuts the providers down.
func Init(ctx context.Context, opts Options) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if opts.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceVersionKey.String(opts.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(opts.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	ep := ParseEndpoint(opts.Endpoint)

	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(ep.Host),
		otlptracehttp.WithURLPath(ep.TracePath),
	}
	logOpts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(ep.Host),
		otlploghttp.WithURLPath(ep.LogPath),
	}
	if len(opts.Headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(opts.Headers))
		logOpts = append(logOpts, otlploghttp.WithHeaders(opts.Headers))
	}
	if ep.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		logOpts = append(logOpts, otlploghttp.WithInsecure())
	}

	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}

	logExporter, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	slog.Info("Telemetry initialized",
		"endpoint", ep.Host,
		"trace_path", ep.TracePath,
		"log_path", ep.LogPath,
		"insecure", ep.Insecure,
	)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx))
	}, nil
}

// Tracer returns a tracer with the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
