package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/records-api/internal/alert"
	"github.com/jwalitptl/records-api/internal/config"
	accessHandler "github.com/jwalitptl/records-api/internal/handler/access"
	auditHandler "github.com/jwalitptl/records-api/internal/handler/audit"
	recordsHandler "github.com/jwalitptl/records-api/internal/handler/records"
	"github.com/jwalitptl/records-api/internal/middleware"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/internal/repository/memory"
	"github.com/jwalitptl/records-api/internal/repository/postgres"
	"github.com/jwalitptl/records-api/internal/router"
	accessService "github.com/jwalitptl/records-api/internal/service/access"
	auditService "github.com/jwalitptl/records-api/internal/service/audit"
	recordsService "github.com/jwalitptl/records-api/internal/service/records"
	"github.com/jwalitptl/records-api/pkg/auth"
	"github.com/jwalitptl/records-api/pkg/logger"
	"github.com/jwalitptl/records-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/records-api/pkg/messaging/redis"
	"github.com/jwalitptl/records-api/pkg/metrics"
	"github.com/jwalitptl/records-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	appMetrics := metrics.NewMetrics("records_core")
	alerts := alert.NewMailer(alert.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.AlertTo,
	}, appLogger)

	var broker messaging.Publisher
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisPublisher(redisbroker.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	// Initialize services. The ledger trusts exactly two writers: the
	// policy store (bound at construction) and the document registry
	// (bound once below, as the deployment step).
	ledgerAdmin := model.Principal(cfg.Audit.Admin)
	auditOpts := []auditService.Option{auditService.WithMetrics(appMetrics)}
	if broker != nil {
		auditOpts = append(auditOpts, auditService.WithBroker(broker))
	}
	if alerts != nil {
		auditOpts = append(auditOpts, auditService.WithAlerts(alerts))
	}
	auditSvc := auditService.NewService(store.Audit(), appLogger, ledgerAdmin, accessService.WriterPrincipal, auditOpts...)

	if err := auditSvc.SetRecordsWriter(context.Background(), ledgerAdmin, recordsService.WriterPrincipal); err != nil {
		log.Fatal().Err(err).Msg("failed to bind records writer")
	}

	accessSvc := accessService.NewService(store, auditSvc,
		model.Principal(cfg.Registrar.Principal), appLogger,
		accessService.WithMetrics(appMetrics))
	recordsSvc := recordsService.NewService(store, accessSvc, auditSvc, appLogger,
		recordsService.WithMetrics(appMetrics))

	tokens := auth.NewTokenService(auth.Config{
		Secret:      cfg.Auth.JWTSecret,
		Issuer:      cfg.Auth.Issuer,
		ExpiryHours: cfg.Auth.ExpiryHours,
	})
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	var registrarGuard gin.HandlerFunc
	if cfg.Registrar.KeyHash != "" {
		verifier := security.NewBcryptVerifier(0)
		registrarGuard = middleware.RegistrarKey(verifier, cfg.Registrar.KeyHash)
	}

	r := router.NewRouter(authMiddleware, router.Config{
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	},
		accessHandler.NewHandler(accessSvc, registrarGuard),
		recordsHandler.NewHandler(recordsSvc),
		auditHandler.NewHandler(auditSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func newStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return memory.NewStore(), nil
	case "postgres":
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
