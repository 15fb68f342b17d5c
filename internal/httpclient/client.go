package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTransport is the base transport used by the instrumented client.
var DefaultTransport = http.DefaultTransport

type contextKey string

const providerKey contextKey = "httpclient.provider"

// WithProvider names the upstream (HuggingFace, Spoonacular, YOLO...) that
// requests built from ctx talk to.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFromContext returns the provider name set by WithProvider.
func ProviderFromContext(ctx context.Context) string {
	provider, _ := ctx.Value(providerKey).(string)
	return provider
}

// upstreamTransport tags the active span with the provider and records the
// call duration.
type upstreamTransport struct {
	base     http.RoundTripper
	duration metric.Float64Histogram
}

func (t *upstreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	provider := ProviderFromContext(ctx)
	if provider == "" {
		provider = "unknown"
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("upstream.provider", provider))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.record(ctx, provider, "error", elapsed)
		return nil, err
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP status %d", resp.StatusCode))
	}
	t.record(ctx, provider, statusClass(resp.StatusCode), elapsed)
	return resp, nil
}

func (t *upstreamTransport) record(ctx context.Context, provider, status string, seconds float64) {
	if t.duration == nil {
		return
	}
	t.duration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}

// statusClass collapses a status code to "2xx", "4xx" and so on.
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func newTransport(base http.RoundTripper) http.RoundTripper {
	duration, _ := otel.Meter("recipegen/httpclient").Float64Histogram(
		"recipegen.upstream.duration",
		metric.WithDescription("Duration of calls to upstream model, lookup and storage APIs"),
		metric.WithUnit("s"),
	)
	return otelhttp.NewTransport(&upstreamTransport{base: base, duration: duration},
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			if provider := ProviderFromContext(r.Context()); provider != "" {
				return fmt.Sprintf("%s: %s %s", provider, r.Method, r.URL.Path)
			}
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
	)
}

// InstrumentedClient is shared by every upstream client. The timeout covers
// model inference on a cold endpoint.
var InstrumentedClient = NewInstrumentedClient(120 * time.Second)

// NewInstrumentedClient returns a traced and metered client with the given timeout.
func NewInstrumentedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newTransport(DefaultTransport),
		Timeout:   timeout,
	}
}
