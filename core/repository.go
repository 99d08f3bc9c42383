package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// UserRecord represents a minimal projection stored in persistence layer.
type UserRecord struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrUserNotFound is returned when no record matches the username exactly.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when the unique username constraint rejects an insert.
	ErrDuplicateUsername = errors.New("duplicate username")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	Create(ctx context.Context, username, passwordHash string) (int64, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// pgQuerier is satisfied by *pgxpool.Pool and pgxmock pools.
type pgQuerier interface {
	execer
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db pgQuerier
}

func NewPgUserRepository(db pgQuerier) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// FindByUsername looks a user up by exact username. The value is always sent as a bound
// text parameter, never interpolated into the statement.
func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	const q = `SELECT id, username, password_hash, created_at FROM users WHERE username=$1`
	var u UserRecord
	if err := r.db.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").With("operation", "find user").Wrap(err)
	}
	return &u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	const q = `INSERT INTO users (username, password_hash) VALUES ($1,$2) RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, username, passwordHash).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrDuplicateUsername
		}
		return 0, oops.Code("USER_CREATE_FAILED").With("operation", "create user").Wrap(err)
	}
	return id, nil
}
