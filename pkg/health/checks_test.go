package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestCheckHealthy(t *testing.T) {
	status := Check(context.Background(), Inputs{
		MailConfigured: true,
		RateLimitKeys:  3,
		DB:             pingFunc(func(context.Context) error { return nil }),
	})
	require.True(t, status.Healthy)
	require.Equal(t, "ok", status.Status)
	require.Equal(t, 3, status.RateLimitKeys)
	require.Empty(t, status.Issues)
}

func TestCheckMailNotConfiguredIsDegraded(t *testing.T) {
	status := Check(context.Background(), Inputs{})
	require.True(t, status.Healthy)
	require.Equal(t, "degraded", status.Status)
	require.Contains(t, status.Issues, "mail provider not configured")
}

func TestCheckDatabaseDown(t *testing.T) {
	status := Check(context.Background(), Inputs{
		MailConfigured: true,
		DB:             pingFunc(func(context.Context) error { return errors.New("disk I/O error") }),
	})
	require.False(t, status.Healthy)
	require.Equal(t, "unhealthy", status.Status)
	require.Len(t, status.Issues, 1)
	require.Contains(t, status.Issues[0], "disk I/O error")
}
