package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"parkgate/backend/services/gate-server/internal/gate"
)

// Server upgrades HTTP connections to WebSockets for gate controllers.
type Server struct {
	dispatcher   *gate.Dispatcher
	processor    MessageProcessor
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(dispatcher *gate.Dispatcher, processor MessageProcessor, writeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		dispatcher:   dispatcher,
		processor:    processor,
		logger:       logger,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for the /gates/ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.ParseInt(r.URL.Query().Get("lot_id"), 10, 64)
	if err != nil || lotID <= 0 {
		http.Error(w, "lot_id is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var connection *Connection
	connection = NewConnection(lotID, conn, s.processor, s.writeTimeout, s.logger, func(id int64) {
		s.dispatcher.Detach(id, connection)
		cancel()
	})
	s.dispatcher.Attach(lotID, connection)

	go connection.Start(ctx)
	s.logger.Info("gate controller connected", zap.Int64("lot_id", lotID))
}
