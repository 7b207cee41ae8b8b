package app

import (
	"context"

	"go.uber.org/zap"

	"parkgate/backend/services/gate-server/internal/config"
	"parkgate/backend/services/gate-server/internal/gate"
	httpserver "parkgate/backend/services/gate-server/internal/http"
	"parkgate/backend/services/gate-server/internal/http/handlers"
	"parkgate/backend/services/gate-server/internal/ws"
)

// App assembles the gate server.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	server *httpserver.Server
}

// New wires the dependency graph.
func New(cfg *config.Config, logger *zap.Logger) *App {
	dispatcher := gate.NewDispatcher(cfg.Gate.AckTimeout, logger)
	processor := gate.NewAckProcessor(dispatcher, logger)
	wsServer := ws.NewServer(dispatcher, processor, cfg.WS.WriteTimeout, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Open: handlers.NewOpenHandler(dispatcher, logger),
		WS:   wsServer,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		server: httpserver.NewServer(":"+cfg.HTTP.Port, router, logger),
	}
}

// Run serves HTTP until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}
