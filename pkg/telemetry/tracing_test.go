package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupTracingDefaults(t *testing.T) {
	ctx := context.Background()
	provider, err := SetupTracing(ctx, Options{ServiceName: "contactd", ServiceVersion: "test"})
	require.NoError(t, err)
	require.NotNil(t, provider)
	require.NoError(t, provider.Shutdown(ctx))
}

func TestSetupTracingLogsSpans(t *testing.T) {
	writer := &captureWriter{}
	ctx := context.Background()
	provider, err := SetupTracing(ctx, Options{
		ServiceName: "contactd",
		LogSpans:    true,
		Logger:      zerolog.New(writer),
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "mailer.send")
	span.End()
	require.NoError(t, provider.Shutdown(ctx))

	require.Len(t, writer.entries, 1)
	require.Contains(t, writer.entries[0], `"span_name":"mailer.send"`)
	require.Contains(t, writer.entries[0], `"component":"otel"`)
}

func TestSetupTracingRejectsEmptyEndpoint(t *testing.T) {
	_, err := SetupTracing(context.Background(), Options{ServiceName: "contactd", Endpoint: "https://"})
	require.Error(t, err)
}
