package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/store/storetest"
)

// TestStore runs against a scratch database named by TOPOLOGY_TEST_DATABASE_URL.
func TestStore(t *testing.T) {
	url := os.Getenv("TOPOLOGY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TOPOLOGY_TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, url)
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, "TRUNCATE refinement_models, type_definitions")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "://not a url")
	require.Error(t, err)
}
