package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
)

const (
	CommandRegister = "REGISTER"
	CommandConnect  = "CONNECT"
	CommandMovement = "MOVEMENT"
)

// MaxLineLength is the longest request line accepted, including the line
// terminator.
const MaxLineLength = 1024

var ErrLineTooLong = errors.New("backend: request line too long")

type handlerFunc func(b *Backend, ctx context.Context, session *Session, args []string) (Status, error)

var handlers = map[string]handlerFunc{
	CommandRegister: (*Backend).HandleRegister,
	CommandConnect:  (*Backend).HandleConnect,
	CommandMovement: (*Backend).HandleMovement,
}

// readLine returns the next request line without its CRLF (or LF)
// terminator. A final line that ends with EOF instead of a newline is still
// returned; the following call reports io.EOF.
func readLine(rd *bufio.Reader) (string, error) {
	line, err := rd.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", ErrLineTooLong
	case errors.Is(err, io.EOF) && len(line) > 0:
		err = nil
	case err != nil:
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func writeStatus(w *bufio.Writer, status Status) error {
	if _, err := w.WriteString(status.String() + "\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

// dispatch runs a single request line through the command table and returns
// the code to send back. Handler failures never escape this function.
func (b *Backend) dispatch(ctx context.Context, session *Session, line string) (status Status) {
	started := time.Now()

	fields := strings.Fields(line)
	command := ""
	if len(fields) > 0 {
		command = fields[0]
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Command handler panicked",
				logging.SessionID(session.ID),
				"command", command,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			status = StatusInternalError
		}

		slog.Debug("Respond",
			logging.SessionID(session.ID),
			logging.Username(session.Username),
			"command", command,
			"status", status.String(),
		)
		publish(b.Events, CommandHandled{
			SessionID: session.ID,
			Command:   command,
			Status:    status,
			Duration:  time.Since(started),
		})
	}()

	if command == "" {
		return b.failure(session, command, fmt.Errorf("%w: empty request", ErrBadRequest))
	}

	handle, ok := handlers[command]
	if !ok {
		return b.failure(session, command, fmt.Errorf("%w: %q", ErrUnsupportedCommand, command))
	}

	status, err := handle(b, ctx, session, fields[1:])
	if err != nil {
		return b.failure(session, command, err)
	}

	// Simulated processing latency.
	if b.ProcessingDelay > 0 {
		timer := time.NewTimer(b.ProcessingDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	return status
}

func (b *Backend) failure(session *Session, command string, err error) Status {
	status := StatusOf(err)
	if status == StatusInternalError {
		slog.Error("Command failed",
			logging.SessionID(session.ID),
			"command", command,
			logging.Error(err),
		)
		return status
	}

	slog.Debug("Command rejected",
		logging.SessionID(session.ID),
		"command", command,
		"status", status.String(),
		logging.Error(err),
	)
	return status
}
