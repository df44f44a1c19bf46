package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/matchquant/internal/adapters/cache"
	"github.com/okian/matchquant/internal/adapters/http/api"
	"github.com/okian/matchquant/internal/adapters/http/swagger"
	"github.com/okian/matchquant/internal/adapters/mq/worker"
	"github.com/okian/matchquant/internal/adapters/repository"
	"github.com/okian/matchquant/internal/adapters/repository/predlog"
	app "github.com/okian/matchquant/internal/app"
	"github.com/okian/matchquant/internal/config"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/names"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	storeRateBurst         = 10
)

func main() {
	if err := logger.Init(); err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "matchquant stopped with error", logger.Error(err))
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: logger already flushed on the error path
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, closeDeps, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDeps()

	if err := svc.Restore(ctx); err != nil {
		log.Warn(ctx, "meta-learner restore failed; starting from default weights", logger.Error(err))
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go startServiceMetricsUpdater(ctx, svc)

	mux := newMux(ctx, svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API and docs routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// buildService wires the stores, caches and learner selected by cfg. The
// returned func releases the external connections.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	resolver, err := names.New(names.WithLogger(log.Named("names")))
	if err != nil {
		return nil, closeAll, fmt.Errorf("build name resolver: %w", err)
	}
	if cfg.AliasesPath != "" {
		if err := resolver.LoadFile(cfg.AliasesPath); err != nil {
			return nil, closeAll, fmt.Errorf("load aliases: %w", err)
		}
	}

	var (
		store       repository.HistoryStore
		predictions meta.Log
	)
	if cfg.Database.Enabled() {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, closeAll, fmt.Errorf("open database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}

		gs, err := repository.NewGormStore(db, repository.WithGormCompetitions(resolver.Competition))
		if err != nil {
			return nil, closeAll, fmt.Errorf("build history store: %w", err)
		}
		if err := gs.Migrate(ctx); err != nil {
			return nil, closeAll, fmt.Errorf("migrate history store: %w", err)
		}
		store = gs

		pl, err := predlog.New(db, cfg.ModelVersion)
		if err != nil {
			return nil, closeAll, fmt.Errorf("build prediction log: %w", err)
		}
		if err := pl.Migrate(ctx); err != nil {
			return nil, closeAll, fmt.Errorf("migrate prediction log: %w", err)
		}
		predictions = pl
		log.Info(ctx, "using postgres history", logger.String("table", pl.Table()))
	} else {
		store = repository.NewMemoryStore(repository.WithMemoryCompetitions(resolver.Competition))
		predictions = meta.NewMemoryLog()
		log.Warn(ctx, "no database configured; history and predictions are kept in memory")
	}

	resilient, err := repository.NewResilient(store,
		repository.WithTimeout(cfg.StoreTimeout()),
		repository.WithRetryJitter(cfg.StoreRetryJitter()),
		repository.WithRateLimit(cfg.StoreRateLimit, storeRateBurst),
		repository.WithLogger(log.Named("history_store")),
	)
	if err != nil {
		return nil, closeAll, fmt.Errorf("wrap history store: %w", err)
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithFixtureBudget(cfg.FixtureBudget()),
		app.WithSimulations(cfg.MCSimulations),
		app.WithSeed(cfg.MCSeed),
		app.WithSimulationWorkers(cfg.MCWorkers),
		app.WithRedCardRate(cfg.RedCardRate),
		app.WithSteamWindow(cfg.SteamWindow()),
		app.WithModelVersion(cfg.ModelVersion),
		app.WithSeason(cfg.Season),
		app.WithLayerWeights(cfg.LayerWeights),
		app.WithPredictionLog(predictions),
		app.WithLearnerOptions(
			meta.WithRecordThreshold(cfg.RecordThreshold),
			meta.WithMinPicks(cfg.MetaMinPicks),
			meta.WithWindow(cfg.MetaWindow()),
			meta.WithWeeklyDecay(cfg.MetaWeeklyDecay),
		),
		app.WithSink(logSink(log.Named("batch"))),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn(ctx, "redis unreachable; DNA cache stays process-local", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		} else {
			dc, err := cache.New(client, cache.WithTTL(cfg.DNACacheTTL()))
			if err != nil {
				return nil, closeAll, fmt.Errorf("build dna cache: %w", err)
			}
			opts = append(opts, app.WithDNACache(dc))
		}
	}

	return app.New(resilient, resolver, opts...), closeAll, nil
}

// logSink logs batch results. Picks are also on the prediction log and in
// the pick metrics.
func logSink(log logger.Logger) worker.Sink {
	return worker.SinkFunc(func(ctx context.Context, r worker.Result) {
		if r.Err != nil {
			log.Warn(ctx, "batch fixture failed", logger.String("match_id", r.MatchID), logger.Error(r.Err))
			return
		}
		log.Info(ctx, "batch fixture analysed", logger.String("match_id", r.MatchID), logger.Int("picks", len(r.Picks)))
	})
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics publishes the gauges that are not updated inline.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
