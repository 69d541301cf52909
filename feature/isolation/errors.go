package isolation

import "errors"

// Caller-visible failures of direct operations. Test with errors.Is.
var (
	// ErrInvalidArgument: unknown hardware, unmapped severity or unresolvable error log.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotAllowed: the chassis is powered on for an operation that needs it off.
	ErrNotAllowed = errors.New("not allowed")
	// ErrUnavailable: hardware isolation is disabled by setting.
	ErrUnavailable = errors.New("unavailable")
	// ErrInternalFailure: the guard record or its entry could not be created.
	ErrInternalFailure = errors.New("internal failure")
	// ErrNotFound: no entry for the requested record or hardware.
	ErrNotFound = errors.New("not found")
	// ErrCorruption: several valid records for one location. Logged only.
	ErrCorruption = errors.New("corruption")
)
