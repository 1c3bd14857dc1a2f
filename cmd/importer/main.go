package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/config"
	"github.com/yourorg/rips-import/internal/db"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/logging"
	"github.com/yourorg/rips-import/internal/runstate"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Import client records into RIPS through a controlled browser",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("RIPS_CONFIG"), "YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides LOG_LEVEL")

	root.AddCommand(parseCmd(), startCmd(), resumeCmd(), statusCmd(), stopCmd(), clearCmd(), reportCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is what every command that touches run state needs.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store *runstate.Store
	audit *db.Pool
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log := logging.New(cfg.LogLevel)
	backend, err := cfg.OpenKV(ctx)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: runstate.New(backend, log)}, nil
}

// reporter logs and counts outcomes, and records them when DB_DSN is set.
func (e *env) reporter(ctx context.Context) (driver.Reporter, error) {
	reps := driver.Reporters{driver.LogReporter{Log: e.log}, driver.MetricsReporter{}}
	if e.cfg.DBDSN == "" {
		return reps, nil
	}
	pool, err := db.Connect(ctx, db.FromEnv().WithDSN(e.cfg.DBDSN))
	if err != nil {
		return nil, fmt.Errorf("audit db: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit db migrate: %w", err)
	}
	e.audit = pool
	return append(reps, driver.RecorderReporter{Recorder: db.NewOutcomeRepo(pool), Log: e.log}), nil
}

func (e *env) close() {
	if e.audit != nil {
		e.audit.Close()
	}
	if err := e.store.Close(); err != nil {
		e.log.Warn("close run state", zap.Error(err))
	}
	_ = e.log.Sync()
}

// withEnv adapts a command body that needs run state.
func withEnv(fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd, args, e)
	}
}
