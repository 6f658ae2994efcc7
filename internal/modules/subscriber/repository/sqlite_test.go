package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/reshetovitsme/modwatch/internal/modules/subscriber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "subs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLite(db)
	require.NoError(t, err)
	return repo
}

func TestSaveListDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &domain.Subscriber{ChatID: 2, Username: "bob", AddedAt: first.Add(time.Hour)}))
	require.NoError(t, repo.Save(ctx, &domain.Subscriber{ChatID: 1, Username: "alice", AddedAt: first}))
	// resubscribing renames but keeps the original date
	require.NoError(t, repo.Save(ctx, &domain.Subscriber{ChatID: 1, Username: "alice2", AddedAt: first.Add(48 * time.Hour)}))

	subs, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(1), subs[0].ChatID)
	assert.Equal(t, "alice2", subs[0].Username)
	assert.True(t, first.Equal(subs[0].AddedAt))

	deleted, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)

	subs, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}
