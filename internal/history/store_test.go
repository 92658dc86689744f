package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []Status{StatusSuccess, StatusWarning, StatusFailed} {
		require.NoError(t, store.Record(ctx, Build{
			ID:          string(rune('a' + i)),
			Started:     base.Add(time.Duration(i) * time.Minute),
			Duration:    1500 * time.Millisecond,
			Pages:       10 + i,
			Passthrough: 2,
			Status:      status,
		}))
	}

	builds, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	require.Equal(t, "c", builds[0].ID)
	require.Equal(t, StatusFailed, builds[0].Status)
	require.Equal(t, "b", builds[1].ID)
	require.Equal(t, 1500*time.Millisecond, builds[1].Duration)
	require.True(t, builds[1].Started.Equal(base.Add(time.Minute)))
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	b := Build{ID: "same", Started: time.Now(), Status: StatusSuccess}
	require.NoError(t, store.Record(context.Background(), b))
	require.Error(t, store.Record(context.Background(), b))
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Build{ID: "x", Started: time.Now(), Status: StatusFailed, Error: "boom"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	builds, err := reopened.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	require.Equal(t, "boom", builds[0].Error)
}
