package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_LoadCurrentEmpty(t *testing.T) {
	db := setupTestDB(t)

	_, ok, err := db.LoadCurrent(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_ReplaceAndLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	want := testBatch()
	require.NoError(t, db.ReplaceBatch(ctx, want))

	got, ok, err := db.LoadCurrent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadCurrent() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLite_ReplaceDropsPreviousBatch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReplaceBatch(ctx, testBatch()))

	next := testBatch()
	next.ID = "9f1e2d3c-0000-4000-8000-000000000002"
	next.Events = next.Events[3:]
	next.Rejected = 0
	next.Rejections = nil
	require.NoError(t, db.ReplaceBatch(ctx, next))

	got, ok, err := db.LoadCurrent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, next.ID, got.ID)
	assert.Equal(t, []string{"emdat-4"}, ids(got.Events))
	assert.Empty(t, got.Rejections)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emdat.db")
	ctx := context.Background()

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.ReplaceBatch(ctx, testBatch()))
	require.NoError(t, db.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, ok, err := reopened.LoadCurrent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.Events, 4)
}

func TestSQLite_ReplaceCanceledContext(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.ReplaceBatch(context.Background(), testBatch()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next := testBatch()
	next.ID = "canceled"
	require.Error(t, db.ReplaceBatch(ctx, next))

	got, ok, err := db.LoadCurrent(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testBatch().ID, got.ID, "failed replace must leave the stored batch intact")
}
