package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserExists   = errors.New("database: user already exists")
	ErrUserNotFound = errors.New("database: user not found")
)

// Credentials is the username to password table used by the maze server.
type Credentials struct {
	DB *SQLite

	// MaxBusyWait bounds how long a write is retried while sqlite reports
	// the database as busy or locked.
	MaxBusyWait time.Duration
}

func NewCredentials(db *SQLite) *Credentials {
	return &Credentials{DB: db, MaxBusyWait: 2 * time.Second}
}

// InsertCredential stores a new credential. The username primary key makes
// the existence check and the insert a single atomic step; a duplicate is
// reported as ErrUserExists and leaves the stored password untouched.
func (c *Credentials) InsertCredential(ctx context.Context, username, password string) error {
	operation := func() error {
		err := c.insert(ctx, username, password)
		switch {
		case err == nil:
			return nil
		case isConstraintViolation(err):
			return backoff.Permanent(ErrUserExists)
		case isBusy(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxElapsedTime = c.MaxBusyWait

	return backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		slog.Debug("Database busy, retrying insert", logging.Username(username), "wait", wait.String(), logging.Error(err))
	})
}

func (c *Credentials) insert(ctx context.Context, username, password string) error {
	tx, queries, err := c.DB.WithTx(ctx)
	if err != nil {
		return fmt.Errorf("database: begin: %w", err)
	}
	if _, err := queries.CreateUser(ctx, CreateUserParams{
		Username: username,
		Password: password,
	}); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

// LookupPassword returns the stored password or ErrUserNotFound.
func (c *Credentials) LookupPassword(ctx context.Context, username string) (string, error) {
	user, err := c.DB.Read.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("database: lookup user: %w", err)
	}
	return user.Password, nil
}

func (c *Credentials) CountUsers(ctx context.Context) (int64, error) {
	return c.DB.Read.CountUsers(ctx)
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

func isConstraintViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code&0xff == sqlite3.SQLITE_CONSTRAINT
}

func isBusy(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	return code&0xff == sqlite3.SQLITE_BUSY || code&0xff == sqlite3.SQLITE_LOCKED
}
