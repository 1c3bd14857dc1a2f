package main

import (
	"context"
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/activities"
	"github.com/yourorg/rips-import/internal/config"
	"github.com/yourorg/rips-import/internal/db"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/logging"
	ripsmetrics "github.com/yourorg/rips-import/internal/metrics"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/workflow"
)

func main() {
	cfg, err := config.Load(os.Getenv("RIPS_CONFIG"))
	if err != nil {
		log.Fatal("config:", err)
	}
	ctx := context.Background()

	// Structured logger (zap)
	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	// Metrics server
	ripsmetrics.Init()
	go func() {
		_ = ripsmetrics.Serve(cfg.MetricsAddr)
	}()

	backend, err := cfg.OpenKV(ctx)
	if err != nil {
		log.Fatal("run state:", err)
	}
	store := runstate.New(backend, zl)
	defer store.Close()

	reps := driver.Reporters{driver.LogReporter{Log: zl}, driver.MetricsReporter{}}
	if cfg.DBDSN != "" {
		pool, err := db.Connect(ctx, db.FromEnv().WithDSN(cfg.DBDSN))
		if err != nil {
			log.Fatal("audit db:", err)
		}
		defer pool.Close()
		if err := pool.Migrate(ctx); err != nil {
			log.Fatal("audit db migrate:", err)
		}
		reps = append(reps, driver.RecorderReporter{Recorder: db.NewOutcomeRepo(pool), Log: zl})
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	// one controlled browser per worker, so batches run one at a time
	w := worker.New(c, cfg.TaskQueue, worker.Options{MaxConcurrentActivityExecutionSize: 1})
	acts := activities.New(cfg, store, reps, activities.OpenBrowser, zl)
	workflow.Register(w, acts)

	zl.Info("worker started",
		zap.String("namespace", cfg.TemporalNamespace),
		zap.String("taskQueue", cfg.TaskQueue),
		zap.String("stateBackend", cfg.StateBackend),
		zap.String("metrics", cfg.MetricsAddr))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}
