package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"painsignal/internal/config"
	"painsignal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := zap.NewNop()
	db, err := OpenSQL(config.DatabaseSQLite, ":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, MigrateDB(db, config.DatabaseSQLite, logger))

	store := NewSQLStore(db, logger)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(desc string, at time.Time, isTest bool) *models.PainPointRecord {
	return &models.PainPointRecord{
		Description:           desc,
		Industry:              "retail",
		Sentiment:             "negative",
		ConfidenceScore:       60,
		ConfidenceExplanation: "clear",
		CreatedAt:             models.FormatTimestamp(at),
		IsTest:                isTest,
	}
}

func TestPainPointRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	first := record("first", base, false)
	second := record("second", base.Add(time.Minute), false)
	marked := record("smoke run [TEST]", base.Add(2*time.Minute), true)

	for _, rec := range []*models.PainPointRecord{first, second, marked} {
		require.NoError(t, store.Primary.Insert(ctx, rec))
		assert.NotEmpty(t, rec.ID)
	}

	all, err := store.Primary.List(ctx, ListOptions{IncludeTest: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "smoke run [TEST]", all[0].Description)
	assert.True(t, all[0].IsTest)
	assert.Equal(t, "first", all[2].Description)

	visible, err := store.Primary.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "second", visible[0].Description)

	limited, err := store.Primary.List(ctx, ListOptions{IncludeTest: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, marked.ID, limited[0].ID)
	assert.Equal(t, marked.CreatedAt, limited[0].CreatedAt)
}

func TestPainPointRepository_ListEmpty(t *testing.T) {
	store := newTestStore(t)

	records, err := store.Public.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestPainPointRepository_CountOldestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	oldest, err := store.Public.Oldest(ctx)
	require.NoError(t, err)
	assert.Nil(t, oldest)

	older := record("older", base, false)
	newer := record("newer", base.Add(time.Second), false)
	require.NoError(t, store.Public.Insert(ctx, newer))
	require.NoError(t, store.Public.Insert(ctx, older))

	n, err := store.Public.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	oldest, err = store.Public.Oldest(ctx)
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, older.ID, oldest.ID)

	require.NoError(t, store.Public.Delete(ctx, oldest.ID))
	require.NoError(t, store.Public.Delete(ctx, "does-not-exist"))

	n, err = store.Public.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Collections are independent.
	n, err = store.Primary.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWaitlistRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	found, err := store.Waitlist.FindByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Nil(t, found)

	entry := &models.WaitlistEntry{Email: "a@b.co", SignedUpAt: models.FormatTimestamp(time.Now())}
	require.NoError(t, store.Waitlist.Insert(ctx, entry))
	assert.NotEmpty(t, entry.ID)

	found, err = store.Waitlist.FindByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry.ID, found.ID)
	assert.Equal(t, entry.SignedUpAt, found.SignedUpAt)
}

func TestMigrateDB_Idempotent(t *testing.T) {
	logger := zap.NewNop()
	path := filepath.Join(t.TempDir(), "nested", "painsignal.db")

	db, err := OpenSQL(config.DatabaseSQLite, path, logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateDB(db, config.DatabaseSQLite, logger))
	require.NoError(t, MigrateDB(db, config.DatabaseSQLite, logger))
}

func TestOpen_UnsupportedType(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "cassandra"

	_, err := Open(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenSQL_Unsupported(t *testing.T) {
	_, err := OpenSQL("mysql", "", zap.NewNop())
	assert.Error(t, err)
}
