package backend

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/dimspell/labyrinth/internal/maze"
	"github.com/kelindar/event"
)

const writeTimeout = 10 * time.Second

// CredentialStore is the durable username to password mapping the backend
// authenticates against.
type CredentialStore interface {
	// InsertCredential fails with database.ErrUserExists when the username
	// is already taken.
	InsertCredential(ctx context.Context, username, password string) error
	// LookupPassword fails with database.ErrUserNotFound for unknown users.
	LookupPassword(ctx context.Context, username string) (string, error)
}

type Backend struct {
	Addr  string
	Store CredentialStore

	// Maze is the layout every new walk starts in. It is never mutated.
	Maze *maze.Maze

	// ProcessingDelay is slept after every successfully handled command.
	ProcessingDelay time.Duration

	// IdleTimeout closes connections that did not send a line for that long.
	// Zero disables the timeout.
	IdleTimeout time.Duration

	Events *event.Dispatcher

	mu       sync.Mutex
	closed   bool
	listener net.Listener
	wg       sync.WaitGroup

	ConnectedSessions sync.Map
}

type Option func(*Backend)

func WithProcessingDelay(d time.Duration) Option {
	return func(b *Backend) { b.ProcessingDelay = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(b *Backend) { b.IdleTimeout = d }
}

func WithMaze(m *maze.Maze) Option {
	return func(b *Backend) { b.Maze = m }
}

func WithEvents(bus *event.Dispatcher) Option {
	return func(b *Backend) { b.Events = bus }
}

func NewBackend(addr string, store CredentialStore, opts ...Option) *Backend {
	b := &Backend{
		Addr:            addr,
		Store:           store,
		Maze:            maze.Default(),
		ProcessingDelay: 100 * time.Millisecond,
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

func (b *Backend) Start() error {
	slog.Info("Starting backend")

	listener, err := net.Listen("tcp", b.Addr)
	if err != nil {
		slog.Error("Could not start listening", "addr", b.Addr, logging.Error(err))
		return err
	}

	b.mu.Lock()
	b.listener = listener
	b.closed = false
	b.mu.Unlock()

	slog.Info("Backend listening", "addr", listener.Addr().String(), "maze", b.Maze.Name)
	return nil
}

// ListenAddr returns the bound address, or nil before Start.
func (b *Backend) ListenAddr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// Listen accepts connections until the context is cancelled or Shutdown is
// called. Every connection is served by its own goroutine. Listen returns
// once all of them are finished.
func (b *Backend) Listen(ctx context.Context) error {
	b.mu.Lock()
	listener := b.listener
	b.mu.Unlock()
	if listener == nil {
		return errors.New("backend: not started")
	}

	stop := context.AfterFunc(ctx, b.Shutdown)
	defer stop()

	slog.Info("Backend is listening for new connections...", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			slog.Warn("Error, when accepting incoming connection", logging.Error(err))
			time.Sleep(10 * time.Millisecond)
			continue
		}

		session, ok := b.addSession(conn)
		if !ok {
			_ = conn.Close()
			break
		}

		go func() {
			defer b.wg.Done()
			if err := b.handleClient(ctx, session); err != nil {
				slog.Warn("Communication with client has failed",
					logging.SessionID(session.ID),
					logging.Error(err),
				)
			}
		}()
	}

	b.wg.Wait()
	return nil
}

// Shutdown stops accepting connections, closes the open ones and waits until
// their goroutines return.
func (b *Backend) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.wg.Wait()
		return
	}
	b.closed = true
	slog.Info("Shutting down the backend...")

	if b.listener != nil {
		if err := b.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Warn("Could not close listener", logging.Error(err))
		}
	}

	b.ConnectedSessions.Range(func(_, v any) bool {
		session := v.(*Session)
		if err := session.Conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Warn("Could not close session", logging.SessionID(session.ID), logging.Error(err))
		}
		return true
	})
	b.mu.Unlock()

	b.wg.Wait()
	slog.Info("The backend has successfully shut down")
}

func (b *Backend) addSession(conn net.Conn) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}

	session := NewSession(conn)
	b.ConnectedSessions.Store(session.ID, session)
	b.wg.Add(1)

	slog.Info("Accepted connection",
		logging.SessionID(session.ID),
		logging.RemoteAddr(session.RemoteAddr()),
	)
	publish(b.Events, SessionOpened{SessionID: session.ID, RemoteAddr: session.RemoteAddr()})
	return session, true
}

func (b *Backend) closeSession(session *Session) {
	b.ConnectedSessions.Delete(session.ID)
	if err := session.Conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("Could not close connection", logging.SessionID(session.ID), logging.Error(err))
	}

	duration := time.Since(session.ConnectedAt)
	slog.Info("Session closed",
		logging.SessionID(session.ID),
		logging.Username(session.Username),
		"duration", duration.String(),
	)
	publish(b.Events, SessionClosed{
		SessionID: session.ID,
		Username:  session.Username,
		Duration:  duration,
	})
}

// handleClient serves requests strictly one at a time: the response to a
// line is written and flushed before the next line is read.
func (b *Backend) handleClient(ctx context.Context, session *Session) error {
	defer b.closeSession(session)

	conn := session.Conn
	reader := bufio.NewReaderSize(conn, MaxLineLength)
	writer := bufio.NewWriter(conn)

	for {
		if b.IdleTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(b.IdleTimeout)); err != nil {
				return err
			}
		}

		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				slog.Info("Closing idle connection", logging.SessionID(session.ID))
				return nil
			}
			return err
		}

		slog.Debug("Recv", logging.SessionID(session.ID), "line", line)
		status := b.dispatch(ctx, session, line)

		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
		if err := writeStatus(writer, status); err != nil {
			return err
		}
	}
}
