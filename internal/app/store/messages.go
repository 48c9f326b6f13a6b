package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"echochat/internal/app/chat"
)

// MessageStore is the durable message history. It implements chat.Recorder for
// the router's fire-and-forget recording and backs the history retrieval and
// search endpoints.
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore constructs a MessageStore over the given connection pool.
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id::text, sender_id::text, COALESCE(receiver_id::text, ''), COALESCE(group_id, ''), content, message_type, sent_at`

func scanMessage(row pgx.Row) (chat.Message, error) {
	var m chat.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.GroupID, &m.Content, &m.MessageType, &m.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, ErrNotFound
	}
	return m, err
}

func collectMessages(rows pgx.Rows) ([]chat.Message, error) {
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Record persists a routed message. Implements chat.Recorder.
func (s *MessageStore) Record(ctx context.Context, msg chat.Message) error {
	var receiverID, groupID any
	if msg.ReceiverID != "" {
		receiverID = msg.ReceiverID
	}
	if msg.GroupID != "" {
		groupID = msg.GroupID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, group_id, content, message_type, sent_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7)`,
		msg.ID, msg.SenderID, receiverID, groupID, msg.Content, string(msg.MessageType), msg.Timestamp,
	)
	return err
}

// DirectHistory returns the non-deleted direct messages exchanged between two
// users, oldest first.
func (s *MessageStore) DirectHistory(ctx context.Context, userA, userB string) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE NOT is_deleted
		  AND ((sender_id = $1::uuid AND receiver_id = $2::uuid)
		    OR (sender_id = $2::uuid AND receiver_id = $1::uuid))
		ORDER BY sent_at`,
		userA, userB,
	)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// GroupHistory returns the non-deleted messages of a group, oldest first.
func (s *MessageStore) GroupHistory(ctx context.Context, groupID string) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE NOT is_deleted AND group_id = $1
		ORDER BY sent_at`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// SearchParams are the optional filters of a message search. Zero values are ignored.
type SearchParams struct {
	// RequesterID scopes peer searches to conversations the requester took part in.
	RequesterID string

	Query       string
	PeerID      string
	GroupID     string
	MessageType string
	StartDate   time.Time
	EndDate     time.Time
}

// Search returns non-deleted messages matching the given filters, newest first.
func (s *MessageStore) Search(ctx context.Context, params SearchParams) ([]chat.Message, error) {
	conditions := []string{"NOT is_deleted"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Query != "" {
		conditions = append(conditions, fmt.Sprintf("content ILIKE %s", arg("%"+params.Query+"%")))
	}
	if params.PeerID != "" {
		requester := arg(params.RequesterID)
		peer := arg(params.PeerID)
		conditions = append(conditions, fmt.Sprintf(
			"((sender_id = %s::uuid AND receiver_id = %s::uuid) OR (sender_id = %s::uuid AND receiver_id = %s::uuid))",
			requester, peer, peer, requester,
		))
	}
	if params.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = %s", arg(params.GroupID)))
	}
	if params.MessageType != "" {
		conditions = append(conditions, fmt.Sprintf("message_type = %s", arg(params.MessageType)))
	}
	if !params.StartDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sent_at >= %s", arg(params.StartDate)))
	}
	if !params.EndDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sent_at <= %s", arg(params.EndDate)))
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY sent_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ListAll returns every message, including soft-deleted ones, newest first.
// Admin surface only.
func (s *MessageStore) ListAll(ctx context.Context) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY sent_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// SoftDelete marks a message as deleted without removing the row.
func (s *MessageStore) SoftDelete(ctx context.Context, messageID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE messages SET is_deleted = TRUE WHERE id = $1::uuid`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
