package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deskhub/deskhub/internal/api"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/config"
	"github.com/deskhub/deskhub/internal/health"
	"github.com/deskhub/deskhub/internal/logger"
	"github.com/deskhub/deskhub/internal/provider/google"
	"github.com/deskhub/deskhub/internal/secrets"
	"github.com/deskhub/deskhub/internal/store"
	"github.com/deskhub/deskhub/internal/store/memstore"
	"github.com/deskhub/deskhub/internal/store/postgres"
	"github.com/deskhub/deskhub/internal/tokens"
)

func main() {
	log := logger.New("deskhub-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("DeskHub service starting…")

	ctx := context.Background()

	// -------- Store -----------------------
	var st store.Store
	switch cfg.StoreDriver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Postgres unavailable")
		}
		defer func() { _ = db.Close() }()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Schema migration failed")
		}
		st = postgres.New(db)
	case "memory":
		st = memstore.New()
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unsupported store driver")
	}

	// -------- Crypto & tokens -------------
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid encryption key")
	}
	cipher, err := secrets.NewCipher(key)
	if err != nil {
		log.Fatal().Err(err).Msg("Cipher init failed")
	}
	refresher := google.NewTokenClient(cfg.GoogleTokenURL, cfg.GoogleClientID, cfg.GoogleClientSecret)
	tokenSvc := tokens.NewService(st.Credentials(), cipher, refresher, log)
	clients := google.NewFactory(tokenSvc, cfg.GoogleAPIEndpoint)

	// -------- Auth ------------------------
	var authorizer auth.Authorizer
	if cfg.JWTSecret != "" {
		authorizer, err = auth.NewJWTAuthorizer(cfg.JWTSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("Authorizer init failed")
		}
	} else {
		log.Warn().Msg("No JWT secret configured; using static dev authorizer")
		authorizer = &auth.StaticAuthorizer{User: auth.UserInfo{UserID: "dev-user", Email: "dev@localhost"}}
	}

	// -------- Health monitor --------------
	pinger, ok := st.(health.HealthPinger)
	if !ok {
		log.Fatal().Msg("store does not expose a health ping")
	}
	storeChecker := health.NewPingChecker("store", pinger, log)
	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go storeChecker.Start(ctx, 30*time.Second)
	go svcHealth.Start(ctx, 30*time.Second)
	api.BindServiceHealth(svcHealth.IsHealthy)

	// -------- Router & Server -------------
	router := api.NewRouter(api.Deps{
		Config:     cfg,
		Store:      st,
		Authorizer: authorizer,
		Tokens:     tokenSvc,
		Clients:    clients,
		Log:        log,
	})
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
