/*
Package handler provides the transport edges of the collaboration server:
the HTTP routing setup with the WebSocket upgrade endpoint, and the raw TCP
line listener. Both feed accepted connections into the same session core.

This file defines the main Router, applying logging, CORS and IP-based rate
limiting before delegating to the WebSocket handler.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"holochat/internal/pkg/limiter"
	"holochat/internal/pkg/logx"
	"holochat/internal/pkg/resp"
)

const (
	// ConnectRate limits how often one IP may open a connection, per second.
	ConnectRate = 0.2

	// ConnectBurst is the connection burst allowance per IP.
	ConnectBurst = 5
)

// Router sets up the HTTP routing table (chi.Router) for the application.
// It configures CORS, the global middleware stack, the health endpoint and
// the rate-limited WebSocket upgrade.
func Router(deps *AppDeps, connectLimiter *limiter.IPRateLimiter) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Holochat Server",
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}

// NewConnectLimiter builds the per-IP limiter shared by the WebSocket upgrade
// and the TCP accept loop, so one client cannot dodge the limit by switching
// transports.
func NewConnectLimiter() *limiter.IPRateLimiter {
	return limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
}
