package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-resell-backoffice/internal/tabular"
)

func TestOpenSQLite_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, Options{Driver: DriverSQLite, URL: filepath.Join(t.TempDir(), "backoffice.db")})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Health(ctx))

	for _, table := range []string{"products", "accounts", "sales", "price_lists", "trash", "audit_entries", "auth_identities", "refresh_tokens"} {
		_, err := db.Store.Select(ctx, table, tabular.Query{Limit: 1})
		assert.NoError(t, err, table)
	}
}

func TestOpenSQLite_EnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, Options{Driver: DriverSQLite, URL: filepath.Join(t.TempDir(), "fk.db")})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate())

	_, err = db.Store.Insert(ctx, "accounts", tabular.Row{
		"id": "a1", "product_id": "missing", "email": "a@b.c", "password": "x",
		"purchase_date": "2026-01-01", "expiration_date": "2026-02-01", "base_price": 1.0,
	})
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), " ")
	assert.Error(t, err)
}
