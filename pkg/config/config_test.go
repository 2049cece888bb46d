package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 15*time.Minute, cfg.RateLimit.Window())
	require.Equal(t, 5, cfg.RateLimit.MaxRequests)
	require.Equal(t, 30*time.Minute, cfg.RateLimit.SweepInterval())
	require.Empty(t, cfg.Mail.APIKey)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contactd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":9090"
rate_limit:
  max_requests: 3
mail:
  to: "therapist@example.com"
`), 0o600))

	t.Setenv("RESEND_API_KEY", "re_from_env")
	t.Setenv("CONTACTD_RATE_MAX_REQUESTS", "7")
	t.Setenv("CONTACTD_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Listen)
	require.Equal(t, 7, cfg.RateLimit.MaxRequests)
	require.Equal(t, "therapist@example.com", cfg.Mail.To)
	require.Equal(t, "re_from_env", cfg.Mail.APIKey)
	require.True(t, cfg.Logging.JSON)
	require.Equal(t, 900, cfg.RateLimit.WindowS, "unset keys keep defaults")
}

func TestLoadRetryCountKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contactd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mail:
  retry_max_retries: 4
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Mail.RetryMaxRetries)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.MaxRequests = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidMaxRequests)

	cfg = DefaultConfig()
	cfg.Mail.To = ""
	require.ErrorIs(t, cfg.Validate(), ErrMissingAddresses)

	cfg = DefaultConfig()
	cfg.Mail.APIURL = "ftp://mail"
	var cerr *Error
	require.ErrorAs(t, cfg.Validate(), &cerr)

	cfg = DefaultConfig()
	cfg.RateLimit.SweepIntervalS = 0
	cfg.Tracing.SampleRatio = 4
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2*cfg.RateLimit.WindowS, cfg.RateLimit.SweepIntervalS)
	require.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}
