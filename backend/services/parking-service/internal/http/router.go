package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkgate/backend/services/parking-service/internal/auth"
	"parkgate/backend/services/parking-service/internal/http/handlers"
	"parkgate/backend/services/parking-service/internal/http/middleware"
)

// RouterDeps collects the handlers the router dispatches to.
type RouterDeps struct {
	Auth     *handlers.AuthHandlers
	Sessions *handlers.SessionHandlers
	Plates   *handlers.PlateHandlers
	Health   *handlers.HealthHandler
	Tokens   *auth.TokenService
}

// NewRouter wires up all routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	authed := middleware.Authenticate(deps.Tokens)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.HandleFunc("GET /health", deps.Health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /auth/signup", deps.Auth.Signup)
	mux.HandleFunc("POST /auth/login", deps.Auth.Login)

	mux.Handle("POST /sessions/start", protect(deps.Sessions.Start))
	mux.Handle("POST /sessions/stop", protect(deps.Sessions.Stop))
	mux.Handle("GET /sessions", protect(deps.Sessions.List))
	mux.Handle("POST /sessions", protect(deps.Sessions.Create))
	mux.Handle("GET /sessions/active/{plate}", protect(deps.Sessions.ActiveByPlate))
	mux.Handle("GET /sessions/active", protect(deps.Sessions.Active))
	mux.Handle("GET /sessions/recent", protect(deps.Sessions.Recent))
	mux.Handle("GET /sessions/plate/{plate}", protect(deps.Sessions.ByPlate))
	mux.Handle("GET /sessions/count", protect(deps.Sessions.Count))
	mux.Handle("PATCH /sessions/{sessionID}", protect(deps.Sessions.Update))

	mux.Handle("GET /lots/{lotID}/sessions", protect(deps.Sessions.LotSessions))
	mux.Handle("GET /lots/{lotID}/sessions/{sessionID}", protect(deps.Sessions.LotSession))
	mux.Handle("DELETE /lots/{lotID}/sessions/{sessionID}", protect(deps.Sessions.DeleteLotSession))

	mux.Handle("POST /plates", protect(deps.Plates.Register))
	mux.Handle("GET /plates", protect(deps.Plates.ListMine))

	return mux
}
