package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/alibyilmaz/unimallaicase/internal/config"
)

// Not parallel: both tests replace the global trace provider.
func TestInitTracerProviderStdout(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracerProvider(context.Background(), config.TelemetryConfig{
		ServiceName: "unimall-test",
		Version:     "1.0.0",
		Exporter:    config.ExporterStdout,
	}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "crawl")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	require.Contains(t, buf.String(), `"Name":"crawl"`)
	require.Contains(t, buf.String(), "unimall-test")
}

func TestInitTracerProviderWithoutExporter(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracerProvider(context.Background(), config.TelemetryConfig{
		ServiceName: "unimall-test",
		Exporter:    config.ExporterNone,
	}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "crawl")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	require.Empty(t, buf.String())
}
