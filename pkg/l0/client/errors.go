package client

import (
	"errors"

	"github.com/robotalks/laserctl/pkg/l0/status"
)

var (
	// ErrNotConnected indicates the link is closed.
	ErrNotConnected = errors.New("not connected")
	// ErrLineTooLong indicates the command line would overflow the
	// controller line buffer.
	ErrLineTooLong = errors.New("command line too long")
	// ErrInvalidLine indicates the command line contains a terminator.
	ErrInvalidLine = errors.New("command line contains terminator")
)

// CommandError wraps the error status line replied to a command.
type CommandError struct {
	Status status.Line
}

// Error implements error.
func (e *CommandError) Error() string {
	return e.Status.String()
}
