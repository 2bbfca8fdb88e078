package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDSNEnv names the environment variable that enables database integration tests
const TestDSNEnv = "COURTSIDE_TEST_DATABASE_DSN"

// SetupTestDB connects to the database named by COURTSIDE_TEST_DATABASE_DSN and applies
// the schema. The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("integration test: set %s to run", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	db := &DB{pool: pool}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}

	for _, stmt := range Schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			db.Close()
			t.Fatalf("failed to apply schema: %v", err)
		}
	}
	t.Cleanup(db.Close)
	return db
}
