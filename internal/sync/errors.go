package sync

import "errors"

var (
	// ErrManualResolution is returned when a conflict is resolved with
	// the manual strategy: the engine cannot decide on its own and the
	// caller must prompt a person.
	ErrManualResolution = errors.New("manual resolution requires user interaction")

	// ErrNotAuthenticated is returned when an operation needs a remote
	// token and none is available.
	ErrNotAuthenticated = errors.New("not authenticated with external service")

	// ErrConflictNotFound is returned when a named conflict is not in
	// the open set.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrUnknownStrategy is returned for an unrecognized resolution
	// strategy name.
	ErrUnknownStrategy = errors.New("unknown resolution strategy")
)
