// Command roomrent-server serves the room rental API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/blob"
	"github.com/MrEthical07/roomrent/blob/s3blob"
	"github.com/MrEthical07/roomrent/enquiry"
	"github.com/MrEthical07/roomrent/httpapi"
	"github.com/MrEthical07/roomrent/internal/config"
	"github.com/MrEthical07/roomrent/internal/logging"
	"github.com/MrEthical07/roomrent/listing"
	otelexport "github.com/MrEthical07/roomrent/metrics/export/otel"
	promexport "github.com/MrEthical07/roomrent/metrics/export/prometheus"
	"github.com/MrEthical07/roomrent/notify"
	"github.com/MrEthical07/roomrent/store/mongostore"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "roomrent-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Development: cfg.Log.Development, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			logger.Warn("mongodb disconnect failed", zap.Error(err))
		}
	}()
	store := mongostore.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}

	blobs, err := openBlobs(ctx, cfg, logger)
	if err != nil {
		return err
	}

	engine, err := roomrent.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithAccountStore(store).
		WithNotifier(newNotifier(cfg.Mail, logger)).
		WithAuditSink(roomrent.NewZapSink(logger)).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	// Close drains queued mail, so it runs before the store clients go away.
	defer engine.Close()

	rooms := listing.NewService(store, blobs, engine, logger)
	enquiries := enquiry.NewService(store, rooms, engine, engine, logger)

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promexport.New(engine).Handler()
		otelExporter, err := otelexport.New(otel.Meter("github.com/MrEthical07/roomrent"), engine)
		if err != nil {
			return fmt.Errorf("register otel instruments: %w", err)
		}
		defer func() { _ = otelExporter.Close() }()
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:           engine,
		Rooms:          rooms,
		Enquiries:      enquiries,
		Blobs:          blobs,
		Metrics:        metricsHandler,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustProxy:     cfg.Server.TrustProxy,
		Health: func(ctx context.Context) error {
			if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
				return fmt.Errorf("mongodb: %w", err)
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openBlobs returns the S3 store, or an in-memory store when no bucket is
// configured. Memory uploads are lost on restart.
func openBlobs(ctx context.Context, cfg *config.Config, logger *zap.Logger) (blob.Store, error) {
	if cfg.S3.Bucket == "" {
		logger.Warn("s3.bucket is empty, keeping uploads in memory")
		return blob.NewMemory(cfg.PublicBaseURL + "/uploads"), nil
	}
	return s3blob.New(ctx, s3blob.Config{
		Bucket:        cfg.S3.Bucket,
		Region:        cfg.S3.Region,
		Endpoint:      cfg.S3.Endpoint,
		PublicBaseURL: cfg.S3.PublicBaseURL,
	})
}

func newNotifier(cfg config.MailConfig, logger *zap.Logger) roomrent.Notifier {
	switch cfg.Provider {
	case "smtp":
		return notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	case "brevo":
		return notify.NewBrevo(notify.BrevoConfig{
			APIKey:    cfg.Brevo.APIKey,
			FromEmail: cfg.Brevo.FromEmail,
			FromName:  cfg.Brevo.FromName,
		}, &http.Client{Timeout: 15 * time.Second})
	default:
		return notify.NewLog(logger)
	}
}
