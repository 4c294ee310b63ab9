// Package control wires configuration, storage, scraping pipelines and
// the HTTP API into one application lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/longnd/fixturewatch/internal/api"
	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/core/worker"
	"github.com/longnd/fixturewatch/internal/infra/csvstore"
	redisclient "github.com/longnd/fixturewatch/internal/infra/redis"
	"github.com/longnd/fixturewatch/internal/infra/storage"
	"github.com/longnd/fixturewatch/internal/infra/storage/memory"
	"github.com/longnd/fixturewatch/internal/infra/storage/postgres"
	"github.com/longnd/fixturewatch/internal/reliability"
	"github.com/longnd/fixturewatch/internal/scrape"
)

// App is the main application struct that manages the scraper lifecycle.
type App struct {
	cfg       config.AppConfig
	pipelines []*scrape.Pipeline
	replayers []*scrape.Replayer
	pruners   []*worker.Pruner
	apiServer *api.Server
	manager   *reliability.Manager

	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// NewApp creates an App instance with all dependencies initialized.
func NewApp(cfg config.AppConfig) (*App, error) {
	// 1. Initialize Storage
	var fixtureRepo storage.FixtureRepository
	var failedRepo storage.FailedRowRepository
	var snapshotRepo storage.SnapshotRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations. Goose needs the *sql.DB that sqlx wraps.
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		fixtureRepo = postgres.NewFixtureRepo(db)
		failedRepo = postgres.NewFailedRowRepo(db)
		snapshotRepo = postgres.NewSnapshotRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		fixtureRepo = memory.NewFixtureRepo(store)
		failedRepo = memory.NewFailedRowRepo(store)
		snapshotRepo = memory.NewSnapshotRepo(store)
		slog.Info("Using Memory storage")
	}

	// 2. Optional Redis failed-row queue. When configured it replaces
	// the database-backed queue so replays survive a database outage.
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, using database queue", "error", err)
		} else {
			failedRepo = redisclient.NewFailedRowRepo(redisClient)
			slog.Info("Using Redis failed-row queue")
		}
	}

	// 3. Recovery manager shared by pipelines and the API
	manager := reliability.NewManager(nil, reliability.ManagerConfig{
		FailureThreshold: cfg.Recovery.FailureThreshold,
		RecoveryTimeout:  cfg.Recovery.RecoveryTimeout,
	})

	// 4. Schedule sources
	primary := scrape.NewFBrefSource("fbref", cfg.Scraper.BaseURL, cfg.Scraper.UserAgent, cfg.Scraper.Timeout)
	var fallback scrape.Source
	if cfg.Scraper.FallbackURL != "" {
		fallback = scrape.NewFBrefSource("mirror", cfg.Scraper.FallbackURL, cfg.Scraper.UserAgent, cfg.Scraper.Timeout)
	}

	csv, err := csvstore.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	// 5. Per-league pipelines, replay workers and pruners
	pipelines := make([]*scrape.Pipeline, 0, len(cfg.Leagues))
	replayers := make([]*scrape.Replayer, 0, len(cfg.Leagues))
	var pruners []*worker.Pruner

	for _, lc := range cfg.Leagues {
		pipelines = append(pipelines, scrape.NewPipeline(
			lc, primary, fallback, manager,
			fixtureRepo, failedRepo, snapshotRepo, csv,
		))
		replayers = append(replayers, scrape.NewReplayer(lc.ID, failedRepo, fixtureRepo))

		if lc.RetentionPeriod > 0 {
			pruners = append(pruners, worker.NewPruner(lc, snapshotRepo, failedRepo))
		}
	}

	// 6. HTTP API with health monitor
	monitor := api.NewMonitor(cfg.Leagues, snapshotRepo, failedRepo, manager)
	apiServer := api.NewServer(cfg.Server.Port, fixtureRepo, snapshotRepo, monitor, manager, csv)

	return &App{
		cfg:         cfg,
		pipelines:   pipelines,
		replayers:   replayers,
		pruners:     pruners,
		apiServer:   apiServer,
		manager:     manager,
		db:          db,
		redisClient: redisClient,
		log:         slog.Default(),
	}, nil
}

// Pipelines exposes the scrape pipelines, used by the one-shot command.
func (a *App) Pipelines() []*scrape.Pipeline {
	return a.pipelines
}

// Start starts the API server and all background workers.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("API server failed", "error", err)
		}
	}()

	for _, p := range a.pipelines {
		go p.Start(ctx)
	}
	for _, r := range a.replayers {
		go r.Start(ctx)
	}
	for _, p := range a.pruners {
		go p.Start(ctx)
	}

	a.log.Info("fixturewatch started", "leagues", len(a.pipelines))
	return nil
}

// Stop stops the application.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping fixturewatch...")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.apiServer.Stop(ctx)
}
