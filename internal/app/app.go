// Package app is the composition root: it loads configuration, wires a
// concrete Repository and Authenticator per the configured provider, and
// assembles the HTTP surface and server around them. Grounded on the
// teacher's internal/app/app.go (loadEnv, setupLogger, the App struct
// shape, Start/Shutdown) — generalized from a single Postgres-backed
// wiring into a provider-switched one.
package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/urlshortener/internal/api"
	"github.com/sundayezeilo/urlshortener/internal/config"
	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/linksvc"
	"github.com/sundayezeilo/urlshortener/internal/oidc"
	"github.com/sundayezeilo/urlshortener/internal/repo"
	"github.com/sundayezeilo/urlshortener/internal/repo/dynamorepo"
	"github.com/sundayezeilo/urlshortener/internal/repo/memrepo"
	"github.com/sundayezeilo/urlshortener/internal/repo/sqliterepo"
	"github.com/sundayezeilo/urlshortener/internal/server"
	"github.com/sundayezeilo/urlshortener/sluggen"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *server.Server
	Handler *api.Handler

	closers []func() error
}

// noopAuthenticator implements api.Authenticator for AUTH_PROVIDER=none
// (local development / tests without a Google OAuth client configured).
type noopAuthenticator struct{ email domain.UserEmail }

func (n noopAuthenticator) Verify(_ context.Context, _ string) (domain.VerifiedUser, error) {
	return domain.VerifiedUser{Email: n.email, EmailVerified: true, HD: n.email.Domain()}, nil
}

// New initializes and returns a new App instance with all dependencies
// wired up from configuration.
func New(ctx context.Context) (*App, error) {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)
	logger.Info("starting application", "env", cfg.App.Environment, "storage_provider", cfg.Storage.Provider, "auth_provider", cfg.Auth.Provider)

	a := &App{Config: cfg, Logger: logger}

	repository, err := a.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	authenticator := a.buildAuthenticator()

	svc := linksvc.New(repository, sluggen.NewBase62(), domain.RealClock{}, sluggen.DefaultMinWidth)
	handler := api.NewHandler(api.Config{
		Service: svc,
		Auth:    authenticator,
		Logger:  logger,
		BaseURL: cfg.Server.ShortlinkDomain,
	})
	a.Handler = handler

	a.Server = server.New(cfg, logger, handler, a.healthDetail)

	logger.Info("application initialized", "port", cfg.Server.Port)
	return a, nil
}

// healthDetail reports the active storage/auth provider (§4.13: /health
// reports which provider is in use).
func (a *App) healthDetail() map[string]string {
	return map[string]string{
		"storage_provider": string(a.Config.Storage.Provider),
		"auth_provider":    string(a.Config.Auth.Provider),
	}
}

// buildRepository returns the Repository adapter selected by
// STORAGE_PROVIDER — a tagged variant over the three concrete adapters,
// per spec §9's preference for dispatch-by-enum over a dynamic plugin
// registry.
func (a *App) buildRepository(ctx context.Context) (repo.Repository, error) {
	switch a.Config.Storage.Provider {
	case config.StorageMemory:
		return memrepo.New(), nil

	case config.StorageSQLite:
		r, err := sqliterepo.Open(a.Config.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		a.closers = append(a.closers, r.Close)
		return r, nil

	case config.StorageAWS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		return dynamorepo.New(client, a.Config.Storage.DynamoTableShortlinks, a.Config.Storage.DynamoTableCounters), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q", a.Config.Storage.Provider)
	}
}

// buildAuthenticator returns the Authenticator selected by AUTH_PROVIDER.
func (a *App) buildAuthenticator() api.Authenticator {
	if a.Config.Auth.Provider == config.AuthNone {
		email, _ := domain.NewUserEmail("local@localhost")
		return noopAuthenticator{email: email}
	}

	jwksURL := "https://www.googleapis.com/oauth2/v3/certs"
	return oidc.NewVerifier(http.DefaultClient, a.Logger, jwksURL, a.Config.Auth.GoogleOAuthClientID, a.Config.Auth.AllowedDomain, a.Config.Auth.InsecureSkipSignature)
}

// Start starts the application server. Blocks until shutdown.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting", "port", a.Config.Server.Port)
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application and closes any adapter
// resources (e.g. the SQLite connection pool) it opened.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.Logger.Warn("error closing resource", "error", err.Error())
		}
	}
	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file found.")
		}
	}
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
