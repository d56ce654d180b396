package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/storage/storagetest"
)

func TestStoreCompliance(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	storagetest.Run(t, s)
}
