/*
Package chat contains the core logic for presence-aware message routing:
the session registry, the message router, and the connection lifecycle handling.

This file defines the wire event vocabulary and the Message struct routed by the system.
Inbound events arrive as a tagged envelope and are decoded exactly once at the
connection boundary, so the router only ever operates on fully-formed messages.
*/
package chat

import (
	"encoding/json"
	"time"

	"echochat/internal/app/user"
	"echochat/internal/pkg/randx"
)

// MessageType classifies the content of a chat message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeFile  MessageType = "file"
	TypeEmoji MessageType = "emoji"
)

// Valid reports whether t is one of the supported message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeVideo, TypeFile, TypeEmoji:
		return true
	}
	return false
}

// EventType identifies the kind of event exchanged over a connection.
type EventType string

const (
	// EventPrivateMessage is a direct message, inbound (send intent) and outbound (delivery).
	EventPrivateMessage EventType = "privateMessage"

	// EventGroupMessage is a group message, inbound (send intent) and outbound (delivery).
	EventGroupMessage EventType = "groupMessage"

	// EventOnlineUsers is the outbound presence update carrying the full online-user snapshot.
	EventOnlineUsers EventType = "onlineUsers"

	// EventConnected is the outbound handshake acknowledgment carrying the verified
	// identity and the initial presence snapshot.
	EventConnected EventType = "connected"

	// EventDelivered is the outbound acknowledgment sent to the sender after a dispatch.
	EventDelivered EventType = "messageDelivered"

	// EventError is the outbound event carrying a business error to the client.
	EventError EventType = "error"
)

// MaxContentBytes is the maximum allowed size (in bytes) for message content.
const MaxContentBytes = 5000

// Message is the unit of routing. Exactly one of ReceiverID/GroupID is set for
// an addressed send; a message with neither is delivered to the default public room.
type Message struct {
	ID          string      `json:"id"`
	SenderID    string      `json:"senderId"`
	ReceiverID  string      `json:"receiverId,omitempty"`
	GroupID     string      `json:"groupId,omitempty"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewDirectMessage builds an addressed direct message with a fresh ID and timestamp.
func NewDirectMessage(senderID, receiverID, content string, msgType MessageType) Message {
	return Message{
		ID:          randx.NewID(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: msgType,
		Timestamp:   time.Now().UTC(),
	}
}

// NewGroupMessage builds an addressed group message with a fresh ID and timestamp.
// An empty groupID yields a default-room broadcast once routed.
func NewGroupMessage(senderID, groupID, content string, msgType MessageType) Message {
	return Message{
		ID:          randx.NewID(),
		SenderID:    senderID,
		GroupID:     groupID,
		Content:     content,
		MessageType: msgType,
		Timestamp:   time.Now().UTC(),
	}
}

// Envelope is the tagged wire frame exchanged over a connection in both directions.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload and wraps it in an Envelope of the given type,
// returning the encoded frame ready to be written to a connection.
func NewEnvelope(eventType EventType, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Type:    eventType,
		Payload: payloadBytes,
	})
}

// PrivateMessagePayload is the inbound payload of an EventPrivateMessage send intent.
type PrivateMessagePayload struct {
	RecipientID string      `json:"recipientId"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
}

// GroupMessagePayload is the inbound payload of an EventGroupMessage send intent.
type GroupMessagePayload struct {
	GroupID     string      `json:"groupId"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
}

// ConnectedPayload is the outbound payload of EventConnected.
type ConnectedPayload struct {
	User        user.Identity        `json:"user"`
	OnlineUsers []user.PresenceEntry `json:"onlineUsers"`
}

// PresencePayload is the outbound payload of EventOnlineUsers.
type PresencePayload struct {
	Users []user.PresenceEntry `json:"users"`
}

// DeliveredPayload is the outbound payload of EventDelivered, acknowledging a
// dispatch to its sender together with the authoritative message record.
type DeliveredPayload struct {
	Message   Message `json:"message"`
	Delivered bool    `json:"delivered"`
}

// ErrorPayload is the outbound payload of EventError.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
