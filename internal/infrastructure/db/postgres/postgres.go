// Package postgres implements the repositories on PostgreSQL through gorm.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/salesdesk/backoffice/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for opening the database.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Timeout      time.Duration
}

// Connect opens the database, verifies connectivity with a ping and applies
// the schema migrations.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := Migrate(db.WithContext(ctx)); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// Maps unique violations to gorm.ErrDuplicatedKey.
		TranslateError: true,
		// Contracts and history reference clients that may be deleted; the
		// cascade is handled by the services.
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}
}

// Migrate creates or alters the tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRow{}, &clientRow{}, &contractRow{}, &historyRow{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// NewStore returns the Postgres-backed repositories.
func NewStore(db *gorm.DB) ports.Store {
	return ports.Store{
		Users:     NewUserRepository(db),
		Clients:   NewClientRepository(db),
		Contracts: NewContractRepository(db),
		History:   NewHistoryRepository(db),
		Tx:        NewTransactor(db),
		Health:    health{db: db},
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

type health struct {
	db *gorm.DB
}

func (h health) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
