package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/socialnet/internal/client/migrations"
	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

func TestStoreAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Store(ctx, map[Key]string{KeyUserName: "alice"}))

	v, err := r.Get(ctx, KeyUserName)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), KeyAccessToken)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, v)
}

func TestStore_Upsert(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Store(ctx, map[Key]string{KeyAccessToken: "old"}))
	require.NoError(t, r.Store(ctx, map[Key]string{KeyAccessToken: "new"}))

	v, err := r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestStore_EmptyValueRemovesKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Store(ctx, map[Key]string{KeyAccountID: "u1", KeyUserName: "alice"}))
	require.NoError(t, r.Store(ctx, map[Key]string{KeyAccountID: "u2", KeyUserName: ""}))

	got, err := r.Load(ctx, CredentialKeys...)
	require.NoError(t, err)
	assert.Equal(t, map[Key]string{KeyAccountID: "u2"}, got)
}

func TestLoad_OnlyRequestedKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Store(ctx, map[Key]string{
		KeyAccessToken:  "a",
		KeyRefreshToken: "r",
		Key("theme"):    "dark",
	}))

	got, err := r.Load(ctx, KeyAccessToken, KeyRefreshToken, KeyUserName)
	require.NoError(t, err)
	assert.Equal(t, map[Key]string{KeyAccessToken: "a", KeyRefreshToken: "r"}, got)

	got, err = r.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Store(ctx, map[Key]string{KeyAccessToken: "a", Key("theme"): "dark"}))

	require.NoError(t, r.Delete(ctx, CredentialKeys...))
	require.NoError(t, r.Delete(ctx, CredentialKeys...))

	_, err := r.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	v, err := r.Get(ctx, Key("theme"))
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestStore_FailureLeavesEarlierValues(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Store(ctx, map[Key]string{KeyAccessToken: "a", KeyRefreshToken: "r"}))

	_, err := db.ExecContext(ctx, `CREATE TRIGGER no_refresh BEFORE INSERT ON metadata
		WHEN NEW.key = 'refresh_token' BEGIN SELECT RAISE(ABORT, 'refused'); END`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM metadata WHERE key = 'refresh_token'`)
	require.NoError(t, err)

	err = r.Store(ctx, map[Key]string{KeyAccessToken: "b", KeyRefreshToken: "r2"})
	require.Error(t, err)

	v, err := r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, KeyUserName)
	assert.ErrorContains(t, err, "failed to get metadata[username]")
	_, err = r.Load(ctx, KeyUserName)
	assert.ErrorContains(t, err, "failed to load metadata")
	assert.ErrorContains(t, r.Store(ctx, map[Key]string{KeyUserName: "x"}), "failed to store metadata")
	assert.ErrorContains(t, r.Delete(ctx, KeyUserName), "failed to delete metadata")
}
