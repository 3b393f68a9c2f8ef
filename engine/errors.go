package engine

import "errors"

// The engine reports every failure as one of these sentinels (usually
// wrapped with context). The HTTP layer maps them onto status codes;
// nothing in this package knows about transports.
var (
	// ErrNotFound: the entity is absent or already DELETED.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: the actor lacks the required relationship to the entity,
	// or the actor account is missing or deactivated.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition: the requested status edge is not in the
	// transition table for this entity kind.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConflict: a uniqueness rule would be violated (duplicate tag name,
	// duplicate identical reaction, deleting a tag that is still in use).
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument: malformed input, disallowed characters, or an
	// attempt to edit an immutable field.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransient: the store kept losing serialization races after bounded
	// retries. The request may be repeated.
	ErrTransient = errors.New("transient storage contention")
)
