/*
Package chat contains the core logic for presence-aware message routing.

This file defines the Hub struct, the connection lifecycle controller. It
orchestrates the handshake (verify credential, register session, join the
default room, announce presence) and the teardown (deregister, announce
presence) around each connection's lifetime.
*/
package chat

import (
	"github.com/rs/zerolog"

	"echochat/internal/app/user"
	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
)

// Membership is the mutation contract the lifecycle controller needs to join
// a connecting user to the default public room.
type Membership interface {
	EnsureMember(groupID, userID string) *errs.CustomError
}

// Hub is the connection lifecycle controller. A connection attempt either
// completes the full handshake and becomes active, or is rejected without any
// registry mutation; there are no other paths in.
type Hub struct {
	registry *Registry
	router   *Router
	groups   Membership

	// jwtSecret is the key material the identity verifier validates against.
	jwtSecret string

	// defaultGroupID is the public room every authenticated connection joins.
	defaultGroupID string

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs the lifecycle controller over the given core collaborators.
func NewHub(registry *Registry, router *Router, groups Membership, jwtSecret, defaultGroupID string) *Hub {
	return &Hub{
		registry:       registry,
		router:         router,
		groups:         groups,
		jwtSecret:      jwtSecret,
		defaultGroupID: defaultGroupID,
		logger:         logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Registry exposes the session registry for read-side collaborators.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Router exposes the message router for the connection boundary.
func (h *Hub) Router() *Router {
	return h.router
}

// Connect runs the handshake for a new connection: verify the credential,
// register the session (closing any superseded connection), join the default
// public room, and announce the presence change to everyone online.
//
// On a verification failure the connection is rejected and the registry is
// left untouched.
func (h *Hub) Connect(credential string, conn Conn) (user.Identity, *errs.CustomError) {
	payload, err := jwt.ParseToken(credential, h.jwtSecret)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Connection rejected: credential verification failed.")
		return user.Identity{}, errs.NewError(errs.ErrTokenInvalid)
	}

	identity := user.Identity{
		ID:       payload.UserID,
		Username: payload.Username,
		IsAdmin:  payload.IsAdmin,
		IsVIP:    payload.IsVIP,
	}

	if superseded := h.registry.Register(identity, conn); superseded != nil {
		// The old handle is force-closed rather than silently orphaned.
		superseded.Kick("Session replaced by a new connection. Check other tabs.")
	}

	if customErr := h.groups.EnsureMember(h.defaultGroupID, identity.ID); customErr != nil {
		h.logger.Error().
			Str("user_id", identity.ID).
			Str("group_id", h.defaultGroupID).
			Msg("Failed to join user to default room.")
	}

	h.router.BroadcastPresence()

	h.logger.Info().
		Str("user_id", identity.ID).
		Str("username", identity.Username).
		Msg("Connection active.")

	return identity, nil
}

// Disconnect runs the teardown for a closing connection. The deregistration is
// conn-matched: a late disconnect from a superseded handle does not evict the
// session that replaced it. A presence update is broadcast only when a session
// was actually removed.
func (h *Hub) Disconnect(userID string, conn Conn) {
	if !h.registry.DeregisterConn(userID, conn) {
		return
	}

	h.router.BroadcastPresence()

	h.logger.Info().
		Str("user_id", userID).
		Msg("Connection closed.")
}
