package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/consent-notifications/internal/api"
	"github.com/ignite/consent-notifications/internal/auth"
	"github.com/ignite/consent-notifications/internal/config"
	"github.com/ignite/consent-notifications/internal/email"
	"github.com/ignite/consent-notifications/internal/marketing"
	"github.com/ignite/consent-notifications/internal/metrics"
	"github.com/ignite/consent-notifications/internal/pkg/distlock"
	"github.com/ignite/consent-notifications/internal/pkg/logger"
	"github.com/ignite/consent-notifications/internal/repository/postgres"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

const version = "1.0.0"

func extractHost(dsn string) string {
	_, rest, ok := strings.Cut(dsn, "@")
	if !ok {
		return "(unknown)"
	}
	host, _, _ := strings.Cut(rest, "/")
	return host
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.SetService("consent-notifications")
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactPII)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connected: ...@%s/...", extractHost(cfg.Database.URL))

	redisClient := openRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	sender, err := newSender(ctx, cfg)
	if err != nil {
		log.Fatalf("Email sender: %v", err)
	}
	renderer, err := email.NewRenderer(map[string]any{"app_url": strings.TrimRight(cfg.App.URL, "/")})
	if err != nil {
		log.Fatalf("Email templates: %v", err)
	}
	dispatcher := email.NewDispatcher(renderer, sender, cfg.Email.From, cfg.Email.FromName)
	log.Printf("Email provider: %s (from %s)", sender.Name(), cfg.Email.From)

	marketingClient := marketing.NewClient(marketing.Config{
		APIKey:     cfg.SendGrid.APIKey,
		Host:       cfg.SendGrid.BaseURL,
		Timeout:    cfg.SendGrid.Timeout(),
		MaxRetries: cfg.SendGrid.MaxRetries,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	opts := []notifications.Option{notifications.WithRecorder(m)}
	if cfg.Notifications.LockEnabled {
		opts = append(opts, notifications.WithLocker(distlock.NewFactory(redisClient, db)))
		log.Println("Confirmation lock enabled")
	}

	svc := notifications.NewService(notifications.Dependencies{
		Persons:   postgres.NewPersonRepo(db),
		Consents:  postgres.NewConsentRepo(db),
		Ledger:    postgres.NewEmailSentRepo(db),
		Campaigns: postgres.NewCampaignRepo(db),
		Marketing: marketingClient,
		Mailer:    dispatcher,
	}, notifications.Config{
		DefaultListID: cfg.SendGrid.MarketingListID,
		AppURL:        cfg.App.URL,
		Cooldown:      cfg.Notifications.Cooldown(),
	}, opts...)

	router := api.SetupRoutes(api.RouterDeps{
		Notifications:  svc,
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience),
		Health:         api.NewHealthChecker(db, redisClient, version),
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	server := api.NewServer(cfg.Server, router)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// openRedis returns nil when Redis is not configured or unreachable; locks
// then fall back to Postgres advisory locks.
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Println("Redis not configured (REDIS_URL not set), using PG advisory locks")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v, falling back to PG advisory locks", err)
		client.Close()
		return nil
	}
	log.Printf("Redis connected (distributed locking enabled)")
	return client
}

func newSender(ctx context.Context, cfg *config.Config) (email.Sender, error) {
	switch cfg.Email.Provider {
	case "ses":
		ses := cfg.Email.SES
		return email.NewSESSender(ctx, ses.AccessKey, ses.SecretKey, ses.Region, ses.ConfigurationSet)
	case "smtp":
		smtp := cfg.Email.SMTP
		return email.NewSMTPSender(smtp.Host, smtp.Port, smtp.Username, smtp.Password), nil
	default:
		hc := &http.Client{Timeout: cfg.SendGrid.Timeout()}
		return email.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.BaseURL, hc), nil
	}
}
