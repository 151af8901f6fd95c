package session

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches the requested id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownUser is returned when a session is created for a user that does not exist.
	ErrUnknownUser = errors.New("session owner not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)
