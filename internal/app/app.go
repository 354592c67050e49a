package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/markstash/markstash/internal/config"
	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/gist"
	"github.com/markstash/markstash/internal/httpserver"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/markdown"
	"github.com/markstash/markstash/internal/merge"
	"github.com/markstash/markstash/internal/redis"
	"github.com/markstash/markstash/internal/scheduler"
	"github.com/markstash/markstash/internal/state"
	redisstore "github.com/markstash/markstash/internal/store/redis"
	syncer "github.com/markstash/markstash/internal/sync"
	"github.com/markstash/markstash/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	holder       *state.Holder
	orchestrator *syncer.Orchestrator
	poller       *scheduler.RemotePoller
	collector    *scheduler.TombstoneCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.Options{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Initialize Redis store and the in-memory tree
	store := redisstore.NewStore(redisClient)
	holder := state.NewHolder()

	// Gist client; create the remote document on first boot if asked to
	client := gist.NewClient(cfg.GistAPIURL, cfg.GistToken, cfg.GistFile)
	gistID := cfg.GistID
	if gistID == "" {
		loggerClient.Info("no gist configured, creating one")
		created, _, err := client.Create(context.Background(), cfg.GistDescription, markdown.Encode(domain.NewRoot()))
		if err != nil {
			loggerClient.Errorf("Failed to create gist: %v", err)
			os.Exit(1)
		}
		gistID = created
		loggerClient.Infof("Created gist %s, set MARKSTASH_GIST_ID to reuse it", gistID)
	}

	repo := gist.NewRepository(client, gistID, loggerClient)

	// Rehydrate tree and sync state from redis before first remote contact
	restorer := scheduler.NewStateRestorer(store, repo, holder, gistID, loggerClient)
	if err := restorer.Restore(context.Background()); err != nil {
		loggerClient.Warn("state restore failed, starting fresh", logger.Error(err))
	}

	orchestrator := syncer.New(syncer.Params{
		Repo:     repo,
		Holder:   holder,
		Store:    store,
		Strategy: merge.Strategy(cfg.SyncStrategy),
		GistID:   gistID,
		Logger:   loggerClient,
	})

	// Create manual poll trigger channel
	pollTrigger := make(chan struct{}, 1)

	poller := scheduler.NewRemotePoller(
		repo,
		orchestrator.Suppressed,
		func(ctx context.Context) {
			if _, err := orchestrator.SyncNow(ctx); err != nil {
				loggerClient.Warn("sync after remote change failed", logger.Error(err))
			}
		},
		loggerClient,
		cfg.PollInterval,
		pollTrigger,
	)

	collector := scheduler.NewTombstoneCollector(
		holder,
		loggerClient,
		cfg.GCInterval,
		cfg.TombstoneRetention,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AuthToken:    cfg.AuthToken,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		GistID:       gistID,
		RedisClient:  redisClient,
		Store:        store,
		Holder:       holder,
		Orchestrator: orchestrator,
		PollTrigger:  pollTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		holder:       holder,
		orchestrator: orchestrator,
		poller:       poller,
		collector:    collector,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting markstash v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("markstash %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First reconciliation against the remote. Failure is not fatal; the
	// poller keeps trying and local edits queue up meanwhile.
	if rep, err := a.orchestrator.SyncNow(ctx); err != nil {
		a.logger.Warn("initial sync failed, continuing with local state", logger.Error(err))
	} else if rep.HasConflicts() {
		a.logger.Warnf("initial sync parked %d conflicts, resolve them via the API", len(rep.Conflicts))
	}

	// Start remote change poller
	if err := a.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start remote poller: %w", err)
	}
	a.logger.Info("remote poller started",
		logger.Duration("interval", a.cfg.PollInterval))

	// Start tombstone collector
	if err := a.collector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start tombstone collector: %w", err)
	}
	a.logger.Info("tombstone collector started",
		logger.Duration("interval", a.cfg.GCInterval),
		logger.Duration("retention", a.cfg.TombstoneRetention))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop schedulers first so nothing races the final sync
	a.poller.Stop()
	a.collector.Stop()

	// One last push so a clean shutdown never strands local edits
	syncCtx, syncCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	if _, err := a.orchestrator.SyncNow(syncCtx); err != nil {
		a.logger.Warn("final sync failed, local edits remain in redis", logger.Error(err))
	}
	syncCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close failed", logger.Error(err))
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ markstash stopped cleanly")
	return nil
}
