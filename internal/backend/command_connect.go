package backend

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/dimspell/labyrinth/internal/database"
	"github.com/dimspell/labyrinth/internal/maze"
)

// HandleConnect handles the "CONNECT <username> <password>" command.
//
// The client sends it first after opening the connection. An unknown
// username is answered with 402, which the client takes as a hint to offer
// registration; a wrong password is answered with 403. Failed attempts are
// not counted, so the correct password keeps working afterwards.
func (b *Backend) HandleConnect(ctx context.Context, session *Session, args []string) (Status, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("%w: connect expects 2 arguments, got %d", ErrBadRequest, len(args))
	}
	username, password := args[0], args[1]

	stored, err := b.Store.LookupPassword(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return 0, fmt.Errorf("%w: %q", ErrNotRegistered, username)
		}
		return 0, fmt.Errorf("connect %q: %w", username, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return 0, fmt.Errorf("%w: password mismatch for %q", ErrBadCredentials, username)
	}

	slog.Info("User signed in", logging.SessionID(session.ID), logging.Username(username))
	b.authorize(session, username, false)
	return StatusOK, nil
}

func (b *Backend) authorize(session *Session, username string, registered bool) {
	session.Authorize(username, maze.NewWalker(b.Maze))

	publish(b.Events, Authenticated{
		SessionID:  session.ID,
		Username:   username,
		Registered: registered,
	})
}
