package backend

import (
	"time"

	"github.com/dimspell/labyrinth/internal/maze"
	"github.com/kelindar/event"
)

// Event types published on the backend dispatcher.
const (
	EventSessionOpened uint32 = iota + 1
	EventSessionClosed
	EventAuthenticated
	EventCommandHandled
	EventMoved
)

type SessionOpened struct {
	SessionID  string
	RemoteAddr string
}

func (SessionOpened) Type() uint32 { return EventSessionOpened }

type SessionClosed struct {
	SessionID string
	Username  string
	Duration  time.Duration
}

func (SessionClosed) Type() uint32 { return EventSessionClosed }

type Authenticated struct {
	SessionID string
	Username  string
	// Registered is set when the user was created by this request.
	Registered bool
}

func (Authenticated) Type() uint32 { return EventAuthenticated }

type CommandHandled struct {
	SessionID string
	Command   string
	Status    Status
	Duration  time.Duration
}

func (CommandHandled) Type() uint32 { return EventCommandHandled }

type Moved struct {
	SessionID string
	Username  string
	Direction maze.Direction
	Outcome   maze.Outcome
	// Finished is set only on the step that reached the exit.
	Finished bool
}

func (Moved) Type() uint32 { return EventMoved }

func publish[T event.Event](bus *event.Dispatcher, ev T) {
	if bus == nil {
		return
	}
	event.Publish(bus, ev)
}
