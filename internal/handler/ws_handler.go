/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
upgrading the HTTP connection to WebSocket, and handing the connection to the chat
lifecycle controller for the authentication handshake.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"echochat/internal/app/chat"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/limiter"
	"echochat/internal/pkg/logx"
	"echochat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The bearer credential travels in the "token" query parameter; it is verified by the
// lifecycle controller after the upgrade, so a rejection reaches the client as an
// error event followed by a close, never as a half-registered session.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		credential := r.URL.Query().Get("token")
		if credential == "" {
			logx.Warn("WebSocket request rejected: Missing token query parameter")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn)

		go client.WritePump()

		if customErr := client.Handshake(credential); customErr != nil {
			// Rejected: the error event is queued for the client; close the
			// transport without any registry mutation having happened.
			conn.Close()
			return
		}

		logx.Info("WebSocket connection established", "user_id", client.Identity().ID)

		client.ReadPump()
	}
}
