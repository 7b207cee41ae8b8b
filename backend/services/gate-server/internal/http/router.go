package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkgate/backend/services/gate-server/internal/http/handlers"
	"parkgate/backend/services/gate-server/internal/ws"
)

// RouterDeps collects the handlers the router dispatches to.
type RouterDeps struct {
	Open *handlers.OpenHandler
	WS   *ws.Server
}

// NewRouter wires up all routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /gates/ws", deps.WS.HandleWS)
	mux.HandleFunc("POST /internal/gates/open", deps.Open.Open)
	mux.HandleFunc("GET /internal/gates/{lotID}/status", deps.Open.Status)

	return mux
}
