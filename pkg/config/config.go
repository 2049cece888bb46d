package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Mail      MailConfig      `yaml:"mail"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Listen           string `yaml:"listen"`
	AdminToken       string `yaml:"admin_token"`
	ShutdownTimeoutS int    `yaml:"shutdown_timeout_s"`
}

type RateLimitConfig struct {
	WindowS        int `yaml:"window_s"`
	MaxRequests    int `yaml:"max_requests"`
	SweepIntervalS int `yaml:"sweep_interval_s"`
}

type MailConfig struct {
	APIKey          string `yaml:"api_key"`
	APIURL          string `yaml:"api_url"`
	From            string `yaml:"from"`
	To              string `yaml:"to"`
	TimeoutS        int    `yaml:"timeout_s"`
	RetryInitialMs  int    `yaml:"retry_initial_ms"`
	RetryMaxMs      int    `yaml:"retry_max_ms"`
	RetryMaxRetries int    `yaml:"retry_max_retries"`
}

type StorageConfig struct {
	DBPath     string `yaml:"db_path"`
	RetentionH int    `yaml:"retention_h"`
	HashSalt   string `yaml:"hash_salt"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" json:"sample_ratio"`
	LogSpans    bool    `yaml:"log_spans" json:"log_spans"`
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowS) * time.Second
}

func (c RateLimitConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalS) * time.Second
}

func (c StorageConfig) Retention() time.Duration {
	return time.Duration(c.RetentionH) * time.Hour
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:           ":8080",
			ShutdownTimeoutS: 10,
		},
		RateLimit: RateLimitConfig{
			WindowS:        15 * 60,
			MaxRequests:    5,
			SweepIntervalS: 30 * 60,
		},
		Mail: MailConfig{
			APIURL:          "https://api.resend.com",
			From:            "Contact Form <noreply@example.com>",
			To:              "hello@example.com",
			TimeoutS:        10,
			RetryInitialMs:  500,
			RetryMaxMs:      5000,
			RetryMaxRetries: 2,
		},
		Storage: StorageConfig{
			RetentionH: 24 * 30,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// Load reads config from file, then .env, then env var overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Listen, "CONTACTD_LISTEN")
	setString(&cfg.Server.AdminToken, "CONTACTD_ADMIN_TOKEN")
	setInt(&cfg.RateLimit.WindowS, "CONTACTD_RATE_WINDOW_S")
	setInt(&cfg.RateLimit.MaxRequests, "CONTACTD_RATE_MAX_REQUESTS")
	setString(&cfg.Mail.APIKey, "RESEND_API_KEY")
	setString(&cfg.Mail.APIURL, "CONTACTD_MAIL_API_URL")
	setString(&cfg.Mail.From, "CONTACTD_MAIL_FROM")
	setString(&cfg.Mail.To, "CONTACTD_MAIL_TO")
	setString(&cfg.Storage.DBPath, "CONTACTD_DB_PATH")
	setString(&cfg.Storage.HashSalt, "CONTACTD_HASH_SALT")
	setString(&cfg.Logging.Level, "CONTACTD_LOG_LEVEL")
	setString(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("CONTACTD_LOG_FORMAT"))); v != "" {
		cfg.Logging.JSON = v == "json"
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return ErrMissingListen
	}
	if c.RateLimit.WindowS <= 0 {
		return ErrInvalidWindow
	}
	if c.RateLimit.MaxRequests <= 0 {
		return ErrInvalidMaxRequests
	}
	if c.Mail.From == "" || c.Mail.To == "" {
		return ErrMissingAddresses
	}
	if c.Mail.APIURL != "" && !strings.HasPrefix(c.Mail.APIURL, "https://") && !strings.HasPrefix(c.Mail.APIURL, "http://") {
		return &Error{"mail API URL must be http(s)"}
	}
	if c.RateLimit.SweepIntervalS <= 0 {
		c.RateLimit.SweepIntervalS = 2 * c.RateLimit.WindowS
	}
	if c.Server.ShutdownTimeoutS <= 0 {
		c.Server.ShutdownTimeoutS = 10
	}
	if c.Mail.TimeoutS <= 0 {
		c.Mail.TimeoutS = 10
	}
	if c.Mail.RetryInitialMs <= 0 {
		c.Mail.RetryInitialMs = 500
	}
	if c.Mail.RetryMaxMs < c.Mail.RetryInitialMs {
		c.Mail.RetryMaxMs = c.Mail.RetryInitialMs
	}
	if c.Mail.RetryMaxRetries < 0 {
		c.Mail.RetryMaxRetries = 0
	}
	if c.Storage.RetentionH <= 0 {
		c.Storage.RetentionH = 24 * 30
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}

var (
	ErrMissingListen      = &Error{"server listen address is required"}
	ErrInvalidWindow      = &Error{"rate limit window must be > 0"}
	ErrInvalidMaxRequests = &Error{"rate limit max requests must be > 0"}
	ErrMissingAddresses   = &Error{"mail from and to addresses are required"}
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
