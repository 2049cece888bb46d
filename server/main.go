package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/gin-gonic/gin"
	"github.com/haasonsaas/contactd/pkg/config"
	"github.com/haasonsaas/contactd/pkg/mailer"
	"github.com/haasonsaas/contactd/pkg/ratelimit"
	"github.com/haasonsaas/contactd/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	configPath = flag.String("config", "contactd.yaml", "Config file path")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "Delivery log database path (overrides config)")
	Version    = "dev"
)

func main() {
	flag.Parse()
	configureLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	if level := applyLogging(cfg.Logging); level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().Str("version", Version).Msg("contactd starting")
	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("contactd exited")
	}
	log.Info().Msg("contactd stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.SetupTracing(ctx, telemetry.Options{
		ServiceName:    "contactd",
		ServiceVersion: Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		LogSpans:       cfg.Tracing.LogSpans,
		Logger:         log.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	deliveries, err := openDeliveryStore(cfg.Storage)
	if err != nil {
		return err
	}

	hasher, err := newHasher(cfg.Storage.HashSalt)
	if err != nil {
		return err
	}

	if cfg.Mail.APIKey == "" {
		log.Warn().Msg("RESEND_API_KEY not set; contact submissions will be refused")
	}
	sender := mailer.NewSender(cfg.Mail.APIKey,
		mailer.WithBaseURL(cfg.Mail.APIURL),
		mailer.WithTimeout(time.Duration(cfg.Mail.TimeoutS)*time.Second),
		mailer.WithRetry(cfg.Mail.RetryInitialMs, cfg.Mail.RetryMaxMs, cfg.Mail.RetryMaxRetries),
		mailer.WithLogger(log.Logger.With().Str("component", "mailer").Logger()),
	)

	limiter := ratelimit.New(ratelimit.Options{
		Window:      cfg.RateLimit.Window(),
		MaxRequests: cfg.RateLimit.MaxRequests,
		Clock:       clock.NewClock(),
		Logger:      log.Logger.With().Str("component", "ratelimit").Logger(),
	})
	limiter.StartSweeper(ctx, cfg.RateLimit.SweepInterval())
	defer limiter.Reset()

	srv := &Server{
		logger:     log.Logger,
		limiter:    limiter,
		dispatcher: mailer.NewDispatcher(sender, cfg.Mail.From, cfg.Mail.To),
		deliveries: deliveries,
		hasher:     hasher,
		adminToken: cfg.Server.AdminToken,
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Msg("Listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutS)*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func openDeliveryStore(cfg config.StorageConfig) (*DeliveryStore, error) {
	if cfg.DBPath == "" {
		log.Info().Msg("Delivery log disabled")
		return nil, nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Delivery{}); err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.DBPath).Dur("retention", cfg.Retention()).Msg("Delivery log enabled")
	return NewDeliveryStore(db, cfg.Retention(), clock.NewClock()), nil
}

func newHasher(salt string) (KeyHasher, error) {
	if salt != "" {
		return NewKeyHasher([]byte(salt)), nil
	}
	return NewRandomKeyHasher()
}
