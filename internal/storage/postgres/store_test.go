package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/storage/storagetest"
)

// TestStoreCompliance runs the shared storage contract against a live
// Postgres instance. Skipped unless MONO_TEST_POSTGRES_DSN is set, the same
// convention the teacher's own integration suites use to avoid requiring a
// database for unit test runs.
func TestStoreCompliance(t *testing.T) {
	dsn := os.Getenv("MONO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MONO_TEST_POSTGRES_DSN not set, skipping postgres storage integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, nil))
	storagetest.Run(t, store)
}
