// Package gormstore provides the "gorm" store driver backed by an embedded
// SQLite database.
package gormstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/store"
)

func init() {
	store.Register("gorm", openGorm)
}

// openGorm is the store.Driver for the "gorm" backend.
func openGorm(ctx context.Context, cfg config.DatabaseConfig, clk clock.Clock) (*store.Repositories, error) {
	db, err := Connect(ctx, cfg.Path, clk)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}
	repos := New(db)
	repos.Closer = sqlDB
	return repos, nil
}

// Connect opens the SQLite database at path and migrates the schema.
func Connect(ctx context.Context, path string, clk clock.Clock) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return clk.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}
	// Every connection to :memory: gets its own database.
	if strings.Contains(path, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&shopModel{},
		&playerModel{},
		&sellerDataModel{},
		&saleModel{},
		&shopEntityModel{},
		&eventModel{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// New wraps a migrated gorm handle into store.Repositories. Closer is left
// to the caller.
func New(db *gorm.DB) *store.Repositories {
	return &store.Repositories{
		Shops:    &ShopRepo{db: db},
		Players:  &PlayerRepo{db: db},
		Sellers:  &SellerDataRepo{db: db},
		Sales:    &SaleRepo{db: db},
		Entities: &ShopEntityRepo{db: db},
		Events:   &EventStore{db: db},
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
