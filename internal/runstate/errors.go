package runstate

import "errors"

var (
	// ErrUnknownKey rejects a write naming a key outside the run state schema.
	ErrUnknownKey = errors.New("runstate: unknown key")
	// ErrBadValue indicates a stored or written value of the wrong shape.
	ErrBadValue = errors.New("runstate: bad value")
	// ErrSchemaVersion indicates state written by an incompatible version.
	ErrSchemaVersion = errors.New("runstate: schema version mismatch")
)
