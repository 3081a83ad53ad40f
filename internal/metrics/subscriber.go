package metrics

import (
	"context"

	"github.com/dimspell/labyrinth/internal/backend"
	"github.com/kelindar/event"
)

// Subscribe feeds the collectors from the backend events. The returned
// function removes the subscriptions.
func Subscribe(bus *event.Dispatcher) context.CancelFunc {
	cancels := []context.CancelFunc{
		event.Subscribe(bus, func(e backend.SessionOpened) {
			ActiveSessions.Inc()
			TotalSessions.Inc()
		}),
		event.Subscribe(bus, func(e backend.SessionClosed) {
			ActiveSessions.Dec()
			SessionDuration.Observe(e.Duration.Seconds())
		}),
		event.Subscribe(bus, func(e backend.Authenticated) {
			kind := "login"
			if e.Registered {
				kind = "register"
			}
			Authentications.WithLabelValues(kind).Inc()
		}),
		event.Subscribe(bus, func(e backend.CommandHandled) {
			Commands.WithLabelValues(commandLabel(e.Command), e.Status.String()).Inc()
			CommandLatency.Observe(e.Duration.Seconds())
		}),
		event.Subscribe(bus, func(e backend.Moved) {
			Moves.WithLabelValues(e.Outcome.Kind.String()).Inc()
			if e.Finished {
				Escapes.Inc()
			}
		}),
	}

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// commandLabel keeps the label set bounded: anything a client sends that is
// not a known command is counted under "unknown".
func commandLabel(command string) string {
	switch command {
	case backend.CommandRegister, backend.CommandConnect, backend.CommandMovement:
		return command
	case "":
		return "empty"
	default:
		return "unknown"
	}
}
