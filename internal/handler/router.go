/*
Package handler provides the HTTP handlers and routing setup for the Echo Chat Server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/limiter"
	"echochat/internal/pkg/logx"
	"echochat/internal/pkg/resp"
)

const (
	LoginRate    = 0.2
	LoginBurst   = 5
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(rate.Limit(LoginRate), LoginBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Echo Chat Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", HandleRegister(deps))
			auth.With(loginLimiter.Middleware).Post("/login", HandleLogin(deps))
		})

		api.Route("/messages", func(messages chi.Router) {
			messages.Get("/history/{userId}", HandleDirectHistory(deps))
			messages.Get("/group-history/{groupId}", HandleGroupHistory(deps))
			messages.Get("/search", HandleSearchMessages(deps))
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/users", HandleListUsers(deps))
			admin.Get("/users/{id}", HandleGetUser(deps))
			admin.Put("/users/{id}", HandleUpdateUser(deps))
			admin.Delete("/users/{id}", HandleDeleteUser(deps))

			admin.Get("/messages", HandleListMessages(deps))
			admin.Delete("/messages/{id}", HandleDeleteMessage(deps))

			admin.Get("/groups", HandleListGroups(deps))
			admin.Post("/groups", HandleCreateGroup(deps))
			admin.Post("/groups/{id}/members", HandleAddGroupMember(deps))
			admin.Delete("/groups/{id}/members", HandleRemoveGroupMember(deps))

			admin.Post("/invitations", HandleCreateInvitation(deps))
		})

		api.Post("/file/presign-upload", HandlePresignUpload(deps))
		api.Get("/file/presign-download", HandlePresignDownload(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
