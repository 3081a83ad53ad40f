package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/dimspell/labyrinth/internal/maze"
)

// HandleMovement handles the "MOVEMENT <direction>" command.
//
// Directions are 0 (up), 1 (right), 2 (down) and 3 (left). The response is
// 200 when the player moved, 206 when a wall is in the way and 205 when the
// step leads to the exit. Once escaped, the session keeps answering 205
// until the user signs in again.
//
// Any other integer is accepted and leaves the player where they stand.
func (b *Backend) HandleMovement(_ context.Context, session *Session, args []string) (Status, error) {
	if !session.Authorized {
		return 0, ErrNoLogin
	}
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: movement expects 1 argument, got %d", ErrBadRequest, len(args))
	}
	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid direction %q", ErrBadRequest, args[0])
	}
	if session.Walker == nil {
		return 0, fmt.Errorf("movement: session %s has no maze", session.ID)
	}

	direction := maze.Direction(value)
	if !direction.Valid() {
		slog.Warn("Direction out of range, staying in place",
			logging.SessionID(session.ID),
			"direction", value,
		)
	}

	alreadyEscaped := session.Walker.Escaped()
	out := session.Walker.Move(direction)
	slog.Debug("Movement",
		logging.SessionID(session.ID),
		logging.Username(session.Username),
		"direction", direction.String(),
		"outcome", out.Kind.String(),
		"position", out.To.String(),
	)

	publish(b.Events, Moved{
		SessionID: session.ID,
		Username:  session.Username,
		Direction: direction,
		Outcome:   out,
		Finished:  out.Kind == maze.Escaped && !alreadyEscaped,
	})

	switch out.Kind {
	case maze.Blocked:
		return StatusBlocked, nil
	case maze.Escaped:
		return StatusEscaped, nil
	default:
		return StatusOK, nil
	}
}
