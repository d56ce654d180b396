package gcs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/storage/storagetest"
)

// TestStoreCompliance runs the shared storage contract against a live
// bucket. Skipped unless MONO_TEST_GCS_BUCKET is set, since it requires
// Application Default Credentials and a real bucket.
func TestStoreCompliance(t *testing.T) {
	bucket := os.Getenv("MONO_TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("MONO_TEST_GCS_BUCKET not set, skipping gcs storage integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := New(ctx, bucket)
	require.NoError(t, err)
	defer store.Close()

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		names, err := store.listObjectNames(cleanupCtx)
		if err != nil {
			t.Logf("gcs cleanup: list failed: %v", err)
			return
		}
		for name := range names {
			if err := store.client.Bucket(store.bucket).Object(name).Delete(cleanupCtx); err != nil {
				t.Logf("gcs cleanup: delete %s failed: %v", name, err)
			}
		}
	})

	storagetest.Run(t, store)
}
