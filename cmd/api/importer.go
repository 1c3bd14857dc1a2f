package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/browser"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/types"
)

// browserImporter begins batches in the attached browser and keeps one
// runner feeding it page loads while a batch is active.
type browserImporter struct {
	ctx   context.Context
	d     *driver.Driver
	loads <-chan struct{}
	log   *zap.Logger

	mu      sync.Mutex
	running bool
}

func (b *browserImporter) Begin(ctx context.Context, batch types.Batch, settings types.Settings) (string, error) {
	if err := b.d.Begin(ctx, batch, settings); err != nil {
		return "", err
	}
	b.ensureRunner()
	return b.d.RunID(), nil
}

// ensureRunner starts a runner unless one is already following the tab. A
// running one picks the new batch up on the next load.
func (b *browserImporter) ensureRunner() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.running = true
	go func() {
		defer func() {
			b.mu.Lock()
			b.running = false
			b.mu.Unlock()
		}()
		if err := browser.NewRunner(b.d, b.loads, b.log).Run(b.ctx, false); err != nil {
			b.log.Error("import run ended", zap.String("run_id", b.d.RunID()), zap.Error(err))
			return
		}
		b.log.Info("import run finished", zap.String("run_id", b.d.RunID()))
	}()
}
