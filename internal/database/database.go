// Package database owns the PostgreSQL connection pool and the embedded
// schema migrations for the chat backend.
package database

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"

	"github.com/campushub/campushub-backend/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Connect opens the connection pool. The database may still be starting when
// the service boots, so the initial ping is retried a few times.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", connectDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle, maxLifetime := poolSettings(cfg)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	log := logrus.WithFields(logrus.Fields{
		"component": "database",
		"host":      cfg.Host,
		"database":  cfg.Database,
	})

	for attempt := 1; ; attempt++ {
		err = db.Ping()
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			db.Close()
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, err)
		}
		log.WithError(err).WithField("attempt", attempt).Warn("database not ready, retrying")
		time.Sleep(connectBackoff)
	}

	log.Info("database connected")
	return db, nil
}

// poolSettings resolves pool sizing from config, falling back to values sized
// for a single service instance.
func poolSettings(cfg config.DatabaseConfig) (maxOpen, maxIdle int, maxLifetime time.Duration) {
	maxOpen = cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle = cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	maxLifetime = time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}
	return maxOpen, maxIdle, maxLifetime
}

// Migrate applies all pending schema migrations from the embedded filesystem
func Migrate(cfg config.DatabaseConfig) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.WithField("component", "database").Debug("schema already up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logrus.WithFields(logrus.Fields{
		"component": "database",
		"version":   version,
	}).Info("schema migrated")
	return nil
}

// Rollback reverts the most recent schema migration
func Rollback(cfg config.DatabaseConfig) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// connectDSN is the keyword form used by lib/pq
func connectDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

// migrateDSN is the URL form expected by golang-migrate
func migrateDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)
}
