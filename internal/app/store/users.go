/*
Package store provides the PostgreSQL-backed persistence layer: user accounts,
invitation codes, and the durable message history consumed by the retrieval API.
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"echochat/internal/pkg/randx"
)

// User is the stored account record. PasswordHash never leaves this package's callers
// except for credential checks at login.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	IsVIP        bool      `json:"isVIP"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Invitation is a registration invitation code record.
type Invitation struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	IsUsed    bool      `json:"isUsed"`
	UsedBy    string    `json:"usedBy,omitempty"`
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore provides account and invitation persistence over a pgx pool.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore constructs a UserStore over the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id::text, username, email, password_hash, is_admin, is_vip, created_at, last_active_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsVIP, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a new account and returns the stored record.
func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING `+userColumns,
		randx.NewID(), username, email, passwordHash,
	)
	return scanUser(row)
}

// GetByUsername fetches an account by login name.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetByID fetches an account by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id)
	return scanUser(row)
}

// List returns every account, oldest first.
func (s *UserStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateFlags sets the admin/VIP flags of an account.
func (s *UserStore) UpdateFlags(ctx context.Context, id string, isAdmin, isVIP bool) (User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET is_admin = $2, is_vip = $3
		WHERE id = $1::uuid
		RETURNING `+userColumns,
		id, isAdmin, isVIP,
	)
	return scanUser(row)
}

// TouchLastActive bumps the last_active_at timestamp of an account.
func (s *UserStore) TouchLastActive(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_active_at = NOW() WHERE id = $1::uuid`, id)
	return err
}

// Delete removes an account together with its sent messages.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM messages WHERE sender_id = $1::uuid`, id)
	return err
}

// CreateInvitation stores a fresh invitation code issued by the given admin.
func (s *UserStore) CreateInvitation(ctx context.Context, createdBy string) (Invitation, error) {
	code, err := randx.InviteCode()
	if err != nil {
		return Invitation{}, err
	}

	inv := Invitation{
		ID:        randx.NewID(),
		Code:      code,
		CreatedBy: createdBy,
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO invitation_codes (id, code, created_by)
		VALUES ($1::uuid, $2, $3::uuid)
		RETURNING created_at`,
		inv.ID, inv.Code, inv.CreatedBy,
	)
	if err := row.Scan(&inv.CreatedAt); err != nil {
		return Invitation{}, err
	}

	return inv, nil
}

// ConsumeInvitation atomically marks an unused invitation code as used by the
// given user. Returns ErrNotFound if the code is unknown or already consumed.
func (s *UserStore) ConsumeInvitation(ctx context.Context, code, usedBy string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invitation_codes SET is_used = TRUE, used_by = $2::uuid
		WHERE code = $1 AND NOT is_used`,
		code, usedBy,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
