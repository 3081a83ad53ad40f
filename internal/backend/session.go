package backend

import (
	"net"
	"time"

	"github.com/dimspell/labyrinth/internal/maze"
	"github.com/google/uuid"
)

// Session is the state of a single client connection. It is owned by the
// goroutine serving that connection and is never shared with other clients.
type Session struct {
	// ID keeps the session identifier for the backend.
	ID string

	// Conn stores the TCP connection between the backend and the client.
	Conn net.Conn

	ConnectedAt time.Time

	Username   string
	Authorized bool

	// Walker tracks the player's progress. It is replaced on every
	// successful CONNECT or REGISTER.
	Walker *maze.Walker
}

func NewSession(conn net.Conn) *Session {
	return &Session{
		ID:          uuid.New().String(),
		Conn:        conn,
		ConnectedAt: time.Now(),
	}
}

// Authorize marks the session as logged in and starts a new walk.
func (s *Session) Authorize(username string, walker *maze.Walker) {
	s.Username = username
	s.Authorized = true
	s.Walker = walker
}

func (s *Session) RemoteAddr() string {
	if s.Conn == nil || s.Conn.RemoteAddr() == nil {
		return ""
	}
	return s.Conn.RemoteAddr().String()
}
