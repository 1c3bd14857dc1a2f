package transport

import "errors"

var (
	// ErrNoData rejects a store or clear message without a dataObj.
	ErrNoData = errors.New("transport: message has no dataObj")
	// ErrBadKeys rejects a keysObj that is neither a key list nor an object.
	ErrBadKeys = errors.New("transport: keysObj must be a list or an object")
)
