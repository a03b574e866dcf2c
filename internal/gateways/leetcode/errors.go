package leetcode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers network failures, 5xx and 429 once retries are
	// exhausted, and cancelled calls.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrRejected covers 4xx other than 429 and unknown usernames.
	ErrRejected = errors.New("upstream rejected request")
	// ErrMalformed is returned when a payload lacks a required field.
	ErrMalformed = errors.New("upstream payload malformed")
)

// Error describes a failed upstream operation. Kind is one of the sentinel
// errors above, so errors.Is(err, ErrRejected) works on it.
type Error struct {
	Op       string
	Username string
	Status   int
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Username != "" {
		msg += " " + e.Username
	}
	msg += ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, username string, kind error, status int, err error) *Error {
	return &Error{Op: op, Username: username, Status: status, Kind: kind, Err: err}
}
