// Package kv holds the raw key-value backends behind the run state. Every
// backend runs Update as one all-or-nothing transaction.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("kv: store closed")
	// ErrReadOnly is returned by writes inside View.
	ErrReadOnly = errors.New("kv: write in read-only transaction")
)

// Txn is the view of the store inside one transaction.
type Txn interface {
	// Get returns the value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, val []byte) error
	Delete(key string) error
}

// Store runs transactions. A non-nil error from fn discards every write made in it.
type Store interface {
	View(ctx context.Context, fn func(Txn) error) error
	Update(ctx context.Context, fn func(Txn) error) error
	Close() error
}
