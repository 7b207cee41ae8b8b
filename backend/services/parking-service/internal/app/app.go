package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	libdb "parkgate/backend/libs/db"
	libredis "parkgate/backend/libs/redis"
	"parkgate/backend/services/parking-service/internal/auth"
	"parkgate/backend/services/parking-service/internal/clients"
	"parkgate/backend/services/parking-service/internal/config"
	"parkgate/backend/services/parking-service/internal/events"
	httpserver "parkgate/backend/services/parking-service/internal/http"
	"parkgate/backend/services/parking-service/internal/http/handlers"
	"parkgate/backend/services/parking-service/internal/pricing"
	redisstore "parkgate/backend/services/parking-service/internal/redis"
	"parkgate/backend/services/parking-service/internal/repository"
	"parkgate/backend/services/parking-service/internal/service"
)

// App assembles the parking service.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db        *sql.DB
	publisher *events.Publisher
	server    *httpserver.Server
}

// New wires the full dependency graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := libdb.NewPostgres(cfg.DB.DSN, libdb.DefaultPoolOptions())
	if err != nil {
		return nil, err
	}

	sessionRepo := repository.NewSessionRepository(db)
	lotRepo := repository.NewLotRepository(db)
	plateRepo := repository.NewPlateRepository(db)
	userRepo := repository.NewUserRepository(db)

	collab := service.Collaborators{
		Store:   sessionRepo,
		Lots:    lotRepo,
		Plates:  plateRepo,
		Pricing: pricing.NewCalculator(),
		Gate:    clients.NewGateClient(cfg.Gate.BaseURL, cfg.Gate.Timeout, logger),
		PreAuth: clients.NewPaymentClient(cfg.Payment.BaseURL, cfg.Payment.Timeout, logger),
	}

	// Cache and event publishing are optional; an unset address or URL
	// leaves them off and the engine works against the store alone.
	if cfg.Redis.Addr != "" {
		redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, running without session cache", zap.Error(err))
		} else {
			collab.Cache = redisstore.NewStore(redisClient, cfg.Redis.TTL)
		}
	}

	var publisher *events.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = events.NewPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, running without events", zap.Error(err))
			publisher = nil
		} else {
			collab.Events = publisher
		}
	}

	sessions := service.NewSessionsService(collab, logger)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := auth.NewService(userRepo, auth.NewBcryptHasher(0), tokens, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Auth:     handlers.NewAuthHandlers(authService, logger),
		Sessions: handlers.NewSessionHandlers(sessions, logger),
		Plates:   handlers.NewPlateHandlers(plateRepo, logger),
		Health:   handlers.NewHealthHandler(db),
		Tokens:   tokens,
	})

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		publisher: publisher,
		server:    httpserver.NewServer(":"+cfg.HTTP.Port, router, logger),
	}, nil
}

// Run serves HTTP until the context is cancelled, then releases resources.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	return a.server.Run(ctx)
}

func (a *App) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
}
