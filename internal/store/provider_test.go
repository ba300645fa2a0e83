package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/store"

	// Import drivers so their init() functions register them.
	_ "github.com/jensholdgaard/auction-house/internal/store/gormstore"
	_ "github.com/jensholdgaard/auction-house/internal/store/postgres"
)

// fakeDriver is a store.Driver that always succeeds without connecting to a DB.
func fakeDriver(_ context.Context, _ config.DatabaseConfig, _ clock.Clock) (*store.Repositories, error) {
	return &store.Repositories{}, nil
}

func TestOpen(t *testing.T) {
	store.Register("test-driver", fakeDriver)

	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{
			name:    "registered driver succeeds",
			driver:  "test-driver",
			wantErr: false,
		},
		{
			name:    "unknown driver fails",
			driver:  "nonexistent",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DatabaseConfig{Driver: tt.driver}
			_, err := store.Open(context.Background(), cfg, clock.Real{})
			if (err != nil) != tt.wantErr {
				t.Errorf("Open(driver=%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
		})
	}
}

func TestOpen_GormInMemory(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "gorm", Path: ":memory:"}
	repos, err := store.Open(context.Background(), cfg, clock.Real{})
	if err != nil {
		t.Fatalf("Open(gorm) error = %v", err)
	}
	defer repos.Closer.Close()

	if err := repos.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpen_SqlxWithoutDatabase(t *testing.T) {
	// No Postgres is running, so the sqlx driver must fail to connect rather
	// than report an unknown driver.
	cfg := config.DatabaseConfig{Driver: "sqlx", Host: "localhost", Port: 1, SSLMode: "disable"}
	_, err := store.Open(context.Background(), cfg, clock.Real{})
	if err == nil {
		t.Fatal("expected error (no DB running), got nil")
	}
	if strings.Contains(err.Error(), "unknown store driver") {
		t.Errorf("expected connection error, got unknown driver error: %v", err)
	}
}
