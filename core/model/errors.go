package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown driver, rider or request ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPosition is returned when a coordinate lies outside the grid.
	ErrInvalidPosition = errors.New("position out of bounds")
	// ErrInvalidConfig is returned for rejected configuration updates.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrActiveRequest is returned when a rider already holds a non-terminal
	// request. It matches ErrNotFound as well: no requestable rider was found.
	ErrActiveRequest = fmt.Errorf("%w: rider already has an active request", ErrNotFound)
	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
)
