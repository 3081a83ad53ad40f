package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/dimspell/labyrinth/internal/database"
)

// HandleRegister handles the "REGISTER <username> <password>" command.
//
// It creates a new account and logs the session in straight away, starting
// a fresh walk through the maze. An already taken username is refused with
// 405 and the stored password is left as it was.
func (b *Backend) HandleRegister(ctx context.Context, session *Session, args []string) (Status, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("%w: register expects 2 arguments, got %d", ErrBadRequest, len(args))
	}
	username, password := args[0], args[1]

	if err := b.Store.InsertCredential(ctx, username, password); err != nil {
		if errors.Is(err, database.ErrUserExists) {
			return 0, fmt.Errorf("%w: username %q is taken", ErrNotAllowed, username)
		}
		return 0, fmt.Errorf("register %q: %w", username, err)
	}

	slog.Info("New user registered", logging.SessionID(session.ID), logging.Username(username))
	b.authorize(session, username, true)
	return StatusRegistered, nil
}
