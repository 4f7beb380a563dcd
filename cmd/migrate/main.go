// Standalone migration runner for operators who migrate out of band instead
// of at server boot.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/snapdock/internal/db/migrations"
)

func main() {
	_ = godotenv.Load()

	down := flag.Bool("down", false, "roll back one migration instead of migrating up")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	driver := "sqlite"
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dbURL)
	if err != nil {
		slog.Error("failed to open database", "driver", driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	m, err := newMigrator(db, driver)
	if err != nil {
		slog.Error("failed to prepare migrations", "err", err)
		os.Exit(1)
	}

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}

	fmt.Println("migrations complete")
}

func newMigrator(db *sql.DB, driver string) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, err
	}

	var dbDriver database.Driver
	switch driver {
	case "pgx":
		dbDriver, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		dbDriver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", sourceDriver, driver, dbDriver)
}
