package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// User mirrors the 'users' table.  Accounts are keyed externally by the
// Telegram user id carried in verified launch data; rows are created on
// first successful authentication and never deleted here.
type User struct {
	ID         uint64
	TelegramID int64
	CreatedAt  time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetOrCreateByTelegramID upserts a user keyed by the remote identity.  The
// operation is idempotent: concurrent first logins race on the telegram_id
// unique key and the loser re-reads the winning row.
func (r *UserRepo) GetOrCreateByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	u, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (telegram_id) VALUES (?)", telegramID)
	if err != nil {
		if isDuplicateKey(err) {
			return r.GetByTelegramID(ctx, telegramID)
		}
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByTelegramID fetches a user by the remote platform identity.
func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, telegram_id, created_at FROM users WHERE telegram_id=? LIMIT 1",
		telegramID).Scan(&u.ID, &u.TelegramID, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by internal id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, telegram_id, created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.TelegramID, &u.CreatedAt)
	return u, err
}
