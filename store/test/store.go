// Package test provides the store integration-test harness. Tests run
// against SQLite by default; set MATARESIT_TEST_DRIVER=postgres to run
// against a PostgreSQL instance (provisioned via testcontainers unless
// POSTGRES_TEST_DSN is set).
package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/noa10/mataresit-app-sub001/internal/profile"
	"github.com/noa10/mataresit-app-sub001/store"
	"github.com/noa10/mataresit-app-sub001/store/db"
)

func getDriverFromEnv() string {
	driver := os.Getenv("MATARESIT_TEST_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

func getTestingProfile(t *testing.T) *profile.Profile {
	p := &profile.Profile{
		Mode:                  "dev",
		Driver:                getDriverFromEnv(),
		EmbeddingModel:        "gemini-embedding-001",
		EmbeddingDimensions:   1536,
		TokenPricePerThousand: 0.00013,
	}
	switch p.Driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		p.DSN = fmt.Sprintf("%s?mode=rwc", filepath.Join(t.TempDir(), "mataresit_test.db"))
	}
	return p
}

// NewTestingStore creates a store on a fresh database with the schema
// applied.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}
