// Package activities holds the Temporal activities of an import run.
package activities

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/browser"
	"github.com/yourorg/rips-import/internal/config"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/page"
	"github.com/yourorg/rips-import/internal/runstate"
)

// Browser is the part of a browser session the activities use.
type Browser interface {
	Page() page.Page
	CountTabs(ctx context.Context) (int, error)
	Loads() <-chan struct{}
	Close() error
}

// Opener starts a browser session.
type Opener func(ctx context.Context, opts browser.Options, log *zap.Logger) (Browser, error)

// OpenBrowser is the playwright Opener.
func OpenBrowser(ctx context.Context, opts browser.Options, log *zap.Logger) (Browser, error) {
	s, err := browser.Open(ctx, opts, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type Activities struct {
	cfg   config.Config
	store *runstate.Store
	rep   driver.Reporter
	open  Opener
	log   *zap.Logger
}

// New returns the activities over store. rep and log may be nil.
func New(cfg config.Config, store *runstate.Store, rep driver.Reporter, open Opener, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	if open == nil {
		open = OpenBrowser
	}
	return &Activities{cfg: cfg, store: store, rep: rep, open: open, log: log}
}
