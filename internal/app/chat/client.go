/*
Package chat contains the core logic for presence-aware message routing.

This file defines the Client struct, the WebSocket-backed connection handle. It
manages the connection's lifecycle, the message communication loops (ReadPump
and WritePump), and decodes inbound envelopes into typed send intents for the router.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"echochat/internal/app/user"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was superseded by a new connection.
	WsCloseCodeSessionReplaced = 4001
)

// Client represents an active WebSocket connection and implements Conn.
type Client struct {
	// the lifecycle controller this connection reports to.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// verified identity of the connected user, set once the handshake succeeds.
	identity user.Identity

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs a Client around an upgraded WebSocket connection.
// The identity is bound later, by Handshake.
func NewClient(hub *Hub, wsConn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   wsConn,
		send:   make(chan []byte, 256),
		logger: logx.Logger().With().Str("component", "Client").Logger(),
	}
}

// Handshake runs the connection through the lifecycle controller. On success
// the identity is bound to the client and the connected acknowledgment (identity
// plus initial presence snapshot) is queued; on failure an error event is queued
// and the caller is expected to close the connection.
func (c *Client) Handshake(credential string) *errs.CustomError {
	identity, customErr := c.hub.Connect(credential, c)
	if customErr != nil {
		c.SendError(customErr)
		return customErr
	}

	c.identity = identity
	c.logger = c.logger.With().Str("user_id", identity.ID).Logger()

	ack := ConnectedPayload{
		User:        identity,
		OnlineUsers: c.hub.Registry().Presence(),
	}
	if err := c.Send(EventConnected, ack); err != nil {
		c.logger.Error().Err(err).Msg("Failed to queue connected acknowledgment.")
	}

	return nil
}

// Identity returns the verified identity bound to this connection.
func (c *Client) Identity() user.Identity {
	return c.identity
}

// Send marshals the event into an envelope and queues it for delivery.
// It never blocks: a full send queue returns an error, which the router
// treats as a delivery miss.
func (c *Client) Send(eventType EventType, payload any) error {
	frame, err := NewEnvelope(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error marshaling event for client")
		return err
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping event")
		return fmt.Errorf("client send queue full")
	}
}

// SendError queues an EventError frame describing the given error.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	if sendErr := c.Send(EventError, ErrorPayload{Code: code, Message: message}); sendErr != nil {
		c.logger.Error().Err(sendErr).Msg("Failed to queue error event")
	}
}

// Kick gracefully closes the connection by sending a custom WebSocket Close
// Frame (Code 4001) indicating that the session was replaced.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}

	select {
	case <-c.send:
	default:
		close(c.send)
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), envelope decoding, and performs cleanup upon
// connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (Client close/going away)")
			}
			break
		}

		c.processInbound(frameBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.hub.Disconnect(c.identity.ID, c)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// processInbound decodes a raw frame into its tagged variant and hands the
// resulting typed message to the router. Decoding happens exactly once, here;
// the router never sees raw payload bytes.
func (c *Client) processInbound(frameBytes []byte) {
	var envelope Envelope
	if err := json.Unmarshal(frameBytes, &envelope); err != nil {
		c.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch envelope.Type {
	case EventPrivateMessage:
		c.handlePrivateMessage(envelope.Payload)

	case EventGroupMessage:
		c.handleGroupMessage(envelope.Payload)

	default:
		c.logger.Warn().Str("event_type", string(envelope.Type)).Msg("Client sent unsupported event type")
	}
}

// handlePrivateMessage processes an inbound direct send intent.
func (c *Client) handlePrivateMessage(payloadBytes json.RawMessage) {
	var payload PrivateMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid privateMessage payload")
		return
	}

	if payload.RecipientID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if customErr := validateContent(payload.Content, payload.MessageType); customErr != nil {
		c.SendError(customErr)
		return
	}

	msg := NewDirectMessage(c.identity.ID, payload.RecipientID, payload.Content, payload.MessageType)
	c.dispatch(msg)
}

// handleGroupMessage processes an inbound group send intent. An empty group ID
// is allowed and routes to the default public room.
func (c *Client) handleGroupMessage(payloadBytes json.RawMessage) {
	var payload GroupMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid groupMessage payload")
		return
	}

	if customErr := validateContent(payload.Content, payload.MessageType); customErr != nil {
		c.SendError(customErr)
		return
	}

	msg := NewGroupMessage(c.identity.ID, payload.GroupID, payload.Content, payload.MessageType)
	c.dispatch(msg)
}

// dispatch routes the message and acknowledges the outcome to the sender.
func (c *Client) dispatch(msg Message) {
	result, customErr := c.hub.Router().Dispatch(context.Background(), msg)
	if customErr != nil {
		c.SendError(customErr)
		return
	}

	ack := DeliveredPayload{
		Message:   msg,
		Delivered: result.Delivered,
	}
	if err := c.Send(EventDelivered, ack); err != nil {
		c.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to queue delivery acknowledgment")
	}
}

// validateContent checks message content and type constraints shared by all send intents.
func validateContent(content string, msgType MessageType) *errs.CustomError {
	if !msgType.Valid() {
		return errs.NewError(errs.ErrMessageTypeInvalid)
	}

	if len(content) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	return nil
}

// WritePump handles writing frames from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame handles frames pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
