/*
Package chat contains the core logic for presence-aware message routing.

This file defines the Registry struct, the authoritative mapping of user identity
to live connection handle. All presence transitions funnel through its operations;
no other component touches the underlying map.
*/
package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"echochat/internal/app/user"
	"echochat/internal/pkg/logx"
)

// Conn is the opaque handle to a live transport connection. The registry owns
// the binding of user to Conn; the router only uses it as a delivery target.
type Conn interface {
	// Send queues an event for delivery on this connection. It must not block;
	// a full or closed connection returns an error, which the router treats as
	// a delivery miss rather than a hard failure.
	Send(eventType EventType, payload any) error

	// Kick closes the connection because its session was superseded by a newer one.
	Kick(reason string)
}

// Session is the live binding between a verified identity and its current connection.
// Exactly one session per user is tracked; a reconnect supersedes the prior handle.
type Session struct {
	Identity    user.Identity
	Conn        Conn
	ConnectedAt time.Time
}

// Registry is the single serialization point for all presence state.
// Mutations and reads are atomic with respect to each other, so a presence
// snapshot never observes a register/deregister pair out of order.
type Registry struct {
	// sessions maps user ID to the live session.
	sessions map[string]*Session

	// order records user IDs in registration order, keeping presence
	// snapshots deterministic.
	order []string

	// mu protects sessions and order.
	mu sync.RWMutex

	// structured logger with Registry context.
	logger zerolog.Logger
}

// NewRegistry constructs and returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Register inserts or overwrites the session for the given identity.
// Last write wins: if the user already has a live session, the new handle
// replaces it and the superseded Conn is returned so the caller can close it.
// A nil return means no prior session existed.
func (r *Registry) Register(identity user.Identity, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	var superseded Conn

	if existing, ok := r.sessions[identity.ID]; ok {
		superseded = existing.Conn
		r.logger.Warn().
			Str("user_id", identity.ID).
			Msg("User already connected. Superseding old connection.")
	} else {
		r.order = append(r.order, identity.ID)
	}

	r.sessions[identity.ID] = &Session{
		Identity:    identity,
		Conn:        conn,
		ConnectedAt: time.Now(),
	}

	r.logger.Info().
		Str("user_id", identity.ID).
		Str("username", identity.Username).
		Int("online_count", len(r.sessions)).
		Msg("Session registered.")

	return superseded
}

// Deregister removes the session for the given user, if any.
// Calling it for a user with no session is a no-op, which absorbs duplicate
// or late disconnect events.
func (r *Registry) Deregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userID]; !ok {
		return
	}

	r.remove(userID)
}

// DeregisterConn removes the session for the given user only if it is still
// bound to the provided handle. A disconnect event from a superseded connection
// arriving after its replacement registered must not evict the newer session.
// It reports whether a session was removed.
func (r *Registry) DeregisterConn(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[userID]
	if !ok {
		return false
	}

	if session.Conn != conn {
		r.logger.Info().
			Str("user_id", userID).
			Msg("Ignoring deregister for stale connection.")
		return false
	}

	r.remove(userID)
	return true
}

// remove deletes the session and its order entry. Caller must hold mu.
func (r *Registry) remove(userID string) {
	delete(r.sessions, userID)

	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info().
		Str("user_id", userID).
		Int("online_count", len(r.sessions)).
		Msg("Session deregistered.")
}

// Lookup resolves the live connection handle for a user, if one is registered.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	return session.Conn, true
}

// Presence returns a fresh snapshot of every online user, in registration order.
// The snapshot is recomputed on each call rather than incrementally maintained,
// so it can never drift from the session map.
func (r *Registry) Presence() []user.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]user.PresenceEntry, 0, len(r.sessions))
	for _, id := range r.order {
		session, ok := r.sessions[id]
		if !ok {
			continue
		}
		entries = append(entries, user.PresenceEntry{
			ID:       session.Identity.ID,
			Username: session.Identity.Username,
			IsOnline: true,
		})
	}

	return entries
}

// Connections returns the live handles of every registered session, in
// registration order. Used by the router for default-room and presence fan-out.
func (r *Registry) Connections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.sessions))
	for _, id := range r.order {
		if session, ok := r.sessions[id]; ok {
			conns = append(conns, session.Conn)
		}
	}
	return conns
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
