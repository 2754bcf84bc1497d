package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-resell-backoffice/internal/database"
	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/tabular"
)

func newTestStore(t *testing.T) tabular.Store {
	t.Helper()

	db, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "repo.db"),
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate())
	return db.Store
}

func archived(origin, originID string, at time.Time) model.ArchivedRecord {
	return model.ArchivedRecord{
		ID:          uuid.NewString(),
		OriginTable: origin,
		OriginID:    originID,
		Payload:     map[string]any{"id": originID, "name": "row " + originID},
		DeletedAt:   at,
		DeletedBy:   model.AuditActor{UserID: "u1", Username: "ops@example.com", Role: model.RoleAdmin},
	}
}

func TestTrashRepository_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewTrashRepository(newTestStore(t))
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, archived("products", "p1", base)))
	require.NoError(t, repo.Create(ctx, archived("sales", "s1", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, archived("products", "p2", base.Add(2*time.Minute))))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"p2", "s1", "p1"}, []string{all[0].OriginID, all[1].OriginID, all[2].OriginID})

	products, err := repo.List(ctx, "products")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].OriginID)
	assert.Equal(t, "p1", products[1].OriginID)

	assert.Equal(t, "row p1", products[1].Payload["name"])
	assert.Equal(t, "ops@example.com", products[1].DeletedBy.Username)
	assert.True(t, base.Equal(products[1].DeletedAt))
}

func TestTrashRepository_ClaimAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTrashRepository(newTestStore(t))

	rec := archived("customers", "c1", time.Now())
	require.NoError(t, repo.Create(ctx, rec))

	claimed, err := repo.Claim(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", claimed.OriginID)

	_, err = repo.Claim(ctx, rec.ID)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), model.ErrTrashItemNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "not-a-uuid"), model.ErrTrashItemNotFound)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
}

func TestTrashRepository_DeleteAllScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewTrashRepository(newTestStore(t))
	now := time.Now()

	require.NoError(t, repo.Create(ctx, archived("products", "p1", now)))
	require.NoError(t, repo.Create(ctx, archived("products", "p2", now)))
	require.NoError(t, repo.Create(ctx, archived("accounts", "a1", now)))

	n, err := repo.DeleteAll(ctx, "products")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rest, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "accounts", rest[0].OriginTable)

	n, err = repo.DeleteAll(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTrashRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewTrashRepository(newTestStore(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, archived("products", "old", now.Add(-48*time.Hour))))
	require.NoError(t, repo.Create(ctx, archived("products", "new", now)))

	n, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rest, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "new", rest[0].OriginID)
}

func TestAuditRepository_LogAndQuery(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestStore(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Log(ctx, model.AuditEntry{
			Action:     "trash.restore",
			OccurredAt: base.Add(time.Duration(i) * time.Second).Format(time.RFC3339Nano),
			Actor:      model.AuditActor{UserID: "u1"},
			Status:     "success",
			Resource:   "products/p1",
			After:      map[string]any{"id": "p1"},
		}))
	}
	require.NoError(t, repo.Log(ctx, model.AuditEntry{Action: "trash.purge", Status: "failure", Error: "boom"}))

	entries, meta, err := repo.Query(ctx, model.AuditQuery{Action: "TRASH.RESTORE", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
	require.Len(t, entries, 2)
	assert.Equal(t, base.Add(2*time.Second).Format(time.RFC3339Nano), entries[0].OccurredAt)
	assert.Equal(t, map[string]any{"id": "p1"}, entries[0].After)

	entries, _, err = repo.Query(ctx, model.AuditQuery{Status: "failure"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Error)
	assert.Nil(t, entries[0].Before)

	_, meta, err = repo.Query(ctx, model.AuditQuery{Resource: "products/p1"})
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Total)

	_, meta, err = repo.Query(ctx, model.AuditQuery{Resource: "products"})
	require.NoError(t, err)
	assert.Zero(t, meta.Total)
}

func TestIdentityAndTokenRepositories(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	identities := NewIdentityRepository(store)
	tokens := NewTokenRepository(store)

	created, err := identities.Create(ctx, model.Identity{Email: " Admin@Example.com ", Name: "Admin", PasswordHash: "h", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", created.Email)

	_, err = identities.Create(ctx, model.Identity{Email: "admin@example.com", Name: "Dup", PasswordHash: "h", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, model.ErrIdentityExists)

	found, err := identities.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = identities.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrIdentityNotFound)

	require.NoError(t, tokens.Store(ctx, "live", created.ID, time.Now().Add(time.Hour)))
	require.NoError(t, tokens.Store(ctx, "stale", created.ID, time.Now().Add(-time.Hour)))

	owner, err := tokens.Validate(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, created.ID, owner)

	_, err = tokens.Validate(ctx, "stale")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	n, err := tokens.CleanExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, tokens.Revoke(ctx, "live"))
	_, err = tokens.Validate(ctx, "live")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}
