// Package server initializes and runs the claim system server: database,
// migrations, blob storage, the encryption key, and the HTTP API, with
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/claimflow/internal/logging"
	"github.com/dmitrijs2005/claimflow/internal/server/config"
	"github.com/dmitrijs2005/claimflow/internal/server/httpapi"
	"github.com/dmitrijs2005/claimflow/internal/server/keys"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/claimflow/internal/server/services"
	"github.com/dmitrijs2005/claimflow/internal/server/storage"
	"github.com/dmitrijs2005/claimflow/internal/timex"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	keyProvider, err := keys.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("key init error: %w", err)
	}

	clock := timex.SystemClock{}

	documentService := services.NewDocumentService(db, repos, store, keyProvider, clock, logger)
	claimService := services.NewClaimService(db, repos, documentService, clock, logger)

	srv := httpapi.NewServer(cfg.EndpointAddrHTTP, cfg.ShutdownTimeout, claimService, documentService, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendLocal:
		return storage.NewLocalStore(cfg.UploadDir)
	case config.StorageBackendS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
