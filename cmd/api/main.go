package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/api"
	"github.com/yourorg/rips-import/internal/browser"
	"github.com/yourorg/rips-import/internal/config"
	"github.com/yourorg/rips-import/internal/db"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/logging"
	"github.com/yourorg/rips-import/internal/metrics"
	"github.com/yourorg/rips-import/internal/models"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/transport"
)

func main() {
	cfg, err := config.Load(os.Getenv("RIPS_CONFIG"))
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run state
	backend, err := cfg.OpenKV(ctx)
	if err != nil {
		log.Fatal("open run state", zap.Error(err))
	}
	store := runstate.New(backend, log)
	defer store.Close()

	deps := api.Deps{
		Store:       store,
		Coordinator: transport.New(store, log),
		TaskQueue:   cfg.TaskQueue,
		Log:         log,
	}
	reps := driver.Reporters{driver.LogReporter{Log: log}, driver.MetricsReporter{}}

	// Audit trail: pgx writes outcomes, gorm serves the listings
	if cfg.DBDSN != "" {
		pool, err := db.Connect(ctx, db.FromEnv().WithDSN(cfg.DBDSN))
		if err != nil {
			log.Fatal("connect audit db", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Migrate(ctx); err != nil {
			log.Fatal("migrate audit db", zap.Error(err))
		}
		reps = append(reps, driver.RecorderReporter{Recorder: db.NewOutcomeRepo(pool), Log: log})

		database, err := models.Open(cfg.DBDSN)
		if err != nil {
			log.Fatal("open audit db", zap.Error(err))
		}
		defer database.Close()
		deps.Outcomes = database
	}

	// Browser: attach only to one the operator already runs
	if cfg.CDPURL != "" {
		sess, err := browser.Open(ctx, cfg.Browser(), log)
		if err != nil {
			log.Warn("browser not attached; imports disabled", zap.Error(err))
		} else {
			defer sess.Close()
			d := driver.New(store, sess.Page(), sess, reps, cfg.Driver(), log)
			deps.Importer = &browserImporter{ctx: ctx, d: d, loads: sess.Loads(), log: log}
		}
	}

	// Initialize Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Warn("temporal unavailable; workflow routes disabled", zap.Error(err))
	} else {
		defer temporalClient.Close()
		deps.Temporal = temporalClient
	}

	metrics.Init()
	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			log.Warn("metrics server", zap.Error(err))
		}
	}()

	srv := api.New(deps)
	defer srv.Close()
	go srv.Run(ctx)

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20 // 8MB

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	srv.Mount(r)

	httpSrv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdown)
	}()

	log.Info("server starting", zap.String("port", cfg.Port),
		zap.Bool("browser", deps.Importer != nil),
		zap.Bool("audit", deps.Outcomes != nil),
		zap.Bool("temporal", deps.Temporal != nil))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", zap.Error(err))
	}
}
