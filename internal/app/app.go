package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/snapdock/internal/config"
	"github.com/snapdock/internal/db/migrations"
	"github.com/snapdock/internal/importer"
	"github.com/snapdock/internal/store"
)

type App struct {
	config    *config.Config
	logger    *slog.Logger
	db        *sql.DB
	dbDriver  string
	snapshots *store.SnapshotStore
	importer  *importer.Importer
}

func (app *App) Close() {
	app.db.Close()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	db, driver, err := openDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	snapshots := store.NewSnapshotStore(db)
	archive := store.NewArchiveStore(db)

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		dbDriver:  driver,
		snapshots: snapshots,
		importer:  importer.New(archive, logger),
	}, nil
}

func (app *App) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "driver", app.dbDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or the server goroutine to fail

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

// openDB picks the driver from the DSN, runs migrations, and verifies
// connectivity. Postgres DSNs go through the pgx stdlib driver; anything else
// is treated as a sqlite path.
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, string, error) {
	driver := "sqlite"
	if strings.HasPrefix(cfg.DatabaseURL, "postgres://") || strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		driver = "pgx"
	}

	db, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", driver, err)
	}

	if err := runMigrations(db, driver); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, "", fmt.Errorf("run migrations: %w", err)
	}

	if driver == "sqlite" {
		// One writer at a time prevents SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, driver, nil
}

func runMigrations(db *sql.DB, driver string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	var dbDriver database.Driver
	switch driver {
	case "pgx":
		dbDriver, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		dbDriver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driver, dbDriver)
	if err != nil {
		return err
	}

	return m.Up()
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
