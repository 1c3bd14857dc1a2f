package db

import "errors"

var (
	// ErrNotFound means no outcome row matched.
	ErrNotFound = errors.New("outcome not found")
	// ErrConflict is a unique violation on the outcome table.
	ErrConflict = errors.New("outcome conflict")
	// ErrValidation rejects an outcome before or during the insert.
	ErrValidation = errors.New("invalid outcome")
)
