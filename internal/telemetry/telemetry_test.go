package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_NoEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{ServiceName: "recipegen-test", ServiceVersion: "v0.0.0", Env: "test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw  string
		want Endpoint
	}{
		{"http://localhost:4318", Endpoint{Host: "localhost:4318", TracePath: "/v1/traces", LogPath: "/v1/logs", Insecure: true}},
		{"https://otlp-gateway.grafana.net/otlp", Endpoint{Host: "otlp-gateway.grafana.net", TracePath: "/otlp/v1/traces", LogPath: "/otlp/v1/logs"}},
		{"https://collector.example.com/base/v1/traces", Endpoint{Host: "collector.example.com", TracePath: "/base/v1/traces", LogPath: "/base/v1/logs"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEndpoint(tt.raw))
		})
	}
}

func TestTracer_StartsSpans(t *testing.T) {
	_, span := Tracer("chef").Start(context.Background(), "chef.generate")
	defer span.End()
	assert.NotNil(t, span)
}
