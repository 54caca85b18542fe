// Package postgres implements authcore.UserProvider on top of a pgx
// connection pool.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id    TEXT PRIMARY KEY,
//	    email TEXT UNIQUE NOT NULL,
//	    name  TEXT NOT NULL DEFAULT '',
//	    role  TEXT NOT NULL DEFAULT 'user'
//	);
//	CREATE TABLE accounts (
//	    user_id       TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
//	    password_hash TEXT NOT NULL,
//	    verified      BOOLEAN NOT NULL DEFAULT FALSE,
//	    totp_secret   TEXT NOT NULL DEFAULT ''
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	authcore "github.com/MrEthical07/authcore"
)

// Store implements authcore.UserProvider backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ authcore.UserProvider = (*Store)(nil)

// New wraps an existing pool. The pool's lifecycle belongs to the caller.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("postgres: nil pool")
	}
	return &Store{pool: pool}, nil
}

// Connect opens a pool for dsn and wraps it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

const findByEmailQuery = `
SELECT u.id, u.email, u.name, u.role, a.password_hash, a.verified, a.totp_secret
FROM users u
LEFT JOIN accounts a ON a.user_id = u.id
WHERE u.email = $1`

const findByIDQuery = `
SELECT u.id, u.email, u.name, u.role, a.password_hash, a.verified, a.totp_secret
FROM users u
LEFT JOIN accounts a ON a.user_id = u.id
WHERE u.id = $1`

// FindUserByEmail returns (nil, nil, nil) when no user matches.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*authcore.User, *authcore.Account, error) {
	return s.findOne(ctx, findByEmailQuery, email)
}

// FindUserByID returns (nil, nil, nil) when no user matches.
func (s *Store) FindUserByID(ctx context.Context, id string) (*authcore.User, *authcore.Account, error) {
	return s.findOne(ctx, findByIDQuery, id)
}

func (s *Store) findOne(ctx context.Context, query, arg string) (*authcore.User, *authcore.Account, error) {
	var (
		user         authcore.User
		passwordHash *string
		verified     *bool
		totpSecret   *string
	)

	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role,
		&passwordHash, &verified, &totpSecret,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("postgres: query user: %w", err)
	}

	if passwordHash == nil {
		// User row without an account row: credentials were never set.
		return &user, nil, nil
	}

	account := &authcore.Account{PasswordHash: *passwordHash}
	if verified != nil {
		account.Verified = *verified
	}
	if totpSecret != nil {
		account.TOTPSecret = *totpSecret
	}
	return &user, account, nil
}

// UpdateAccount applies the non-nil fields of update to the user's account
// row. A no-op update succeeds without touching the database.
func (s *Store) UpdateAccount(ctx context.Context, userID string, update authcore.AccountUpdate) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if update.Verified != nil {
		args = append(args, *update.Verified)
		sets = append(sets, "verified = $"+strconv.Itoa(len(args)))
	}
	if update.TOTPSecret != nil {
		args = append(args, *update.TOTPSecret)
		sets = append(sets, "totp_secret = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := "UPDATE accounts SET " + strings.Join(sets, ", ") +
		" WHERE user_id = $" + strconv.Itoa(len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrAccountNotFound
	}
	return nil
}
