// Package auditstore is a dual-backend (sqlite/postgres) audit log of
// Dialog UX state transitions and Focus Manager channel
// acquisitions/releases, for post-hoc debugging of a client session.
// Grounded on pkg/controlplane/store/gorm.go's dual-driver Config/New
// shape; Postgres schema changes run through golang-migrate exactly as
// cmd/dittofs/commands/migrate.go does for the control plane database,
// while SQLite uses GORM's AutoMigrate directly since a single-file
// embedded database has no concurrent-migrator race to guard against.
package auditstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voxcore/assistant-sdk/internal/auditstore/migrations"
	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Store is the audit log handle.
type Store struct {
	db     *gorm.DB
	config *Config
}

// Open connects to the configured backend, applying schema migrations,
// and returns a ready-to-use Store. A nil Config defaults to a local
// SQLite file.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit store configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("create audit store directory: %w", err)
		}
		dsn := cfg.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DriverPostgres:
		if err := runPostgresMigrations(cfg.Postgres.DSN()); err != nil {
			return nil, err
		}
		dialector = postgres.Open(cfg.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported audit store driver: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}

	if cfg.Type == DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get underlying audit store connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}

	if cfg.Type == DriverSQLite {
		if err := db.AutoMigrate(AllModels()...); err != nil {
			return nil, fmt.Errorf("migrate audit store: %w", err)
		}
	}

	return &Store{db: db, config: cfg}, nil
}

// runPostgresMigrations applies the embedded schema migrations via
// golang-migrate, the same way migrate.go applies the control plane
// database's migrations.
func runPostgresMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{
		MigrationsTable: "audit_schema_migrations",
		DatabaseName:    "vassist_audit",
	})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply audit store migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordUXTransition audits a Dialog UX Aggregator state change.
func (s *Store) RecordUXTransition(ctx context.Context, from, to string) error {
	return s.insert(ctx, Event{Kind: EventUXTransition, FromState: from, ToState: to})
}

// RecordFocusAcquisition audits a successful Focus Manager channel
// acquisition.
func (s *Store) RecordFocusAcquisition(ctx context.Context, channel, interfaceName string) error {
	return s.insert(ctx, Event{Kind: EventFocusAcquisition, Channel: channel, Detail: interfaceName})
}

// RecordFocusRelease audits a Focus Manager channel release.
func (s *Store) RecordFocusRelease(ctx context.Context, channel, interfaceName string) error {
	return s.insert(ctx, Event{Kind: EventFocusRelease, Channel: channel, Detail: interfaceName})
}

func (s *Store) insert(ctx context.Context, e Event) error {
	e.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		logger.Warn("audit store insert failed", "kind", string(e.Kind), "error", err.Error())
		return err
	}
	return nil
}

// RecentEvents returns the most recent limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&events).Error
	return events, err
}
