package driver

import "errors"

var (
	// ErrNoTargetTab is returned by Begin when no application tab is open.
	ErrNoTargetTab = errors.New("no target application tab open")
	// ErrTooManyTabs is returned by Begin when more than one application tab is open.
	ErrTooManyTabs = errors.New("too many target application tabs open")
)
