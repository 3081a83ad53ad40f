package backend

import (
	"errors"
	"fmt"
	"strconv"
)

// Status is the three digit code sent back for every request.
type Status int

const (
	StatusOK                 Status = 200
	StatusRegistered         Status = 201
	StatusEscaped            Status = 205
	StatusBlocked            Status = 206
	StatusBadRequest         Status = 400
	StatusNoLogin            Status = 401
	StatusNotRegistered      Status = 402
	StatusBadCredentials     Status = 403
	StatusNotAllowed         Status = 405
	StatusInternalError      Status = 500
	StatusUnsupportedCommand Status = 501
)

var statusText = map[Status]string{
	StatusOK:                 "ok",
	StatusRegistered:         "registered",
	StatusEscaped:            "escaped",
	StatusBlocked:            "blocked",
	StatusBadRequest:         "bad request",
	StatusNoLogin:            "not logged in",
	StatusNotRegistered:      "not registered",
	StatusBadCredentials:     "bad credentials",
	StatusNotAllowed:         "not allowed",
	StatusInternalError:      "internal error",
	StatusUnsupportedCommand: "unsupported command",
}

func (s Status) String() string { return strconv.Itoa(int(s)) }

// Text returns a short human readable description, used in logs only.
func (s Status) Text() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return "unknown"
}

func (s Status) IsFailure() bool { return s >= 400 }

// StatusError is a request failure that maps onto exactly one status code.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Status.Text(), int(e.Status))
}

var (
	ErrBadRequest         = &StatusError{Status: StatusBadRequest}
	ErrNoLogin            = &StatusError{Status: StatusNoLogin}
	ErrNotRegistered      = &StatusError{Status: StatusNotRegistered}
	ErrBadCredentials     = &StatusError{Status: StatusBadCredentials}
	ErrNotAllowed         = &StatusError{Status: StatusNotAllowed}
	ErrUnsupportedCommand = &StatusError{Status: StatusUnsupportedCommand}
)

// StatusOf maps a handler error onto the code reported to the client.
// Anything outside the StatusError family is an internal error.
func StatusOf(err error) Status {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return StatusInternalError
}
