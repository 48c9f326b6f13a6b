/*
Package chat contains the core logic for presence-aware message routing.

This file defines the Router struct, which resolves the delivery target(s) of a
send intent (direct, group, or default-room broadcast) against the session
registry and dispatches to each live connection handle.
*/
package chat

import (
	"context"

	"github.com/rs/zerolog"

	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
)

// GroupStore is the read contract the router consumes for group sends.
// MembersOf returns a momentary snapshot of the member set; membership changes
// concurrent with a dispatch resolve to whatever existed at the instant of the call.
type GroupStore interface {
	MembersOf(groupID string) (map[string]struct{}, *errs.CustomError)
}

// Recorder persists messages for history retrieval. The router calls it
// fire-and-forget: a recording failure is logged and never affects the
// delivery result.
type Recorder interface {
	Record(ctx context.Context, msg Message) error
}

// DeliveryResult reports the outcome of a dispatch. Delivered is false when no
// live recipient received the message; that is a policy outcome (at-most-once
// live delivery), not an error.
type DeliveryResult struct {
	Delivered  bool `json:"delivered"`
	Recipients int  `json:"recipients"`
}

// Router resolves send intents against the session registry and the group
// membership store and dispatches to live connections. It holds no mutable
// state of its own; the registry is its only shared collaborator.
type Router struct {
	registry *Registry
	groups   GroupStore
	recorder Recorder

	// defaultGroupID is the group a message with no explicit target is routed to.
	defaultGroupID string

	// structured logger with Router context.
	logger zerolog.Logger
}

// NewRouter constructs a Router over the given registry, membership store, and recorder.
func NewRouter(registry *Registry, groups GroupStore, recorder Recorder, defaultGroupID string) *Router {
	return &Router{
		registry:       registry,
		groups:         groups,
		recorder:       recorder,
		defaultGroupID: defaultGroupID,
		logger:         logx.Logger().With().Str("component", "Router").Logger(),
	}
}

// Dispatch routes a message to its target(s) and records it for history.
//
// Direct sends deliver to the recipient's registered connection; an offline
// recipient yields Delivered=false with the message still recorded. Group sends
// validate membership before any delivery (no partial fan-out on a failed
// lookup) and exclude the sender from the fan-out. A message with neither
// target set is routed to the default public room.
//
// ErrNotGroupMember and ErrGroupNotFound are returned synchronously and leave
// nothing recorded.
func (rt *Router) Dispatch(ctx context.Context, msg Message) (DeliveryResult, *errs.CustomError) {
	if msg.ReceiverID != "" && msg.GroupID != "" {
		rt.logger.Warn().
			Str("message_id", msg.ID).
			Msg("Message addressed to both a user and a group. Rejecting.")
		return DeliveryResult{}, errs.NewError(errs.ErrInvalidParams)
	}

	if msg.ReceiverID != "" {
		return rt.dispatchDirect(ctx, msg), nil
	}

	// Legacy default-room behavior: an unaddressed message goes to the public room.
	if msg.GroupID == "" {
		msg.GroupID = rt.defaultGroupID
	}

	return rt.dispatchGroup(ctx, msg)
}

// dispatchDirect delivers to a single recipient, if online.
func (rt *Router) dispatchDirect(ctx context.Context, msg Message) DeliveryResult {
	result := DeliveryResult{}

	conn, online := rt.registry.Lookup(msg.ReceiverID)
	if online {
		if err := conn.Send(EventPrivateMessage, msg); err != nil {
			// Handle went stale between lookup and send. The registry is
			// corrected on the next disconnect event; this is a delivery miss.
			rt.logger.Warn().
				Str("message_id", msg.ID).
				Str("receiver_id", msg.ReceiverID).
				Err(err).
				Msg("Send to live handle failed. Treating as delivery miss.")
		} else {
			result.Delivered = true
			result.Recipients = 1
		}
	} else {
		rt.logger.Debug().
			Str("message_id", msg.ID).
			Str("receiver_id", msg.ReceiverID).
			Msg("Recipient offline. Message recorded without live delivery.")
	}

	rt.record(ctx, msg)

	return result
}

// dispatchGroup validates membership, then fans out to every online member
// except the sender. The sender keeps local state, so no self-echo is sent;
// it receives an EventDelivered acknowledgment from the boundary instead.
func (rt *Router) dispatchGroup(ctx context.Context, msg Message) (DeliveryResult, *errs.CustomError) {
	members, customErr := rt.groups.MembersOf(msg.GroupID)
	if customErr != nil {
		return DeliveryResult{}, customErr
	}

	if _, ok := members[msg.SenderID]; !ok {
		rt.logger.Warn().
			Str("message_id", msg.ID).
			Str("group_id", msg.GroupID).
			Str("sender_id", msg.SenderID).
			Msg("Sender is not a member of the target group. Rejecting.")
		return DeliveryResult{}, errs.NewError(errs.ErrNotGroupMember)
	}

	result := DeliveryResult{}

	for memberID := range members {
		if memberID == msg.SenderID {
			continue
		}

		conn, online := rt.registry.Lookup(memberID)
		if !online {
			continue
		}

		if err := conn.Send(EventGroupMessage, msg); err != nil {
			rt.logger.Warn().
				Str("message_id", msg.ID).
				Str("member_id", memberID).
				Err(err).
				Msg("Group fan-out send failed for member. Treating as delivery miss.")
			continue
		}

		result.Recipients++
	}

	result.Delivered = result.Recipients > 0

	rt.record(ctx, msg)

	return result, nil
}

// record hands the message to the history recorder. Failures are logged only;
// recording never changes the delivery outcome.
func (rt *Router) record(ctx context.Context, msg Message) {
	if rt.recorder == nil {
		return
	}

	if err := rt.recorder.Record(ctx, msg); err != nil {
		rt.logger.Error().
			Str("message_id", msg.ID).
			Err(err).
			Msg("Failed to record message for history.")
	}
}

// BroadcastPresence recomputes the presence snapshot and pushes it to every
// live connection. Called by the lifecycle controller after each presence change.
func (rt *Router) BroadcastPresence() {
	snapshot := rt.registry.Presence()
	payload := PresencePayload{Users: snapshot}

	for _, conn := range rt.registry.Connections() {
		if err := conn.Send(EventOnlineUsers, payload); err != nil {
			rt.logger.Warn().Err(err).Msg("Presence update send failed for a connection.")
		}
	}
}
