package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-resell-backoffice/internal/cache"
	"go-resell-backoffice/internal/database"
	"go-resell-backoffice/internal/event"
	"go-resell-backoffice/internal/metrics"
	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/repository"
	"go-resell-backoffice/internal/schema"
	"go-resell-backoffice/internal/tabular"
)

type testEnv struct {
	store    tabular.Store
	trash    *TrashService
	entities *EntityService
	audit    *AuditService
	bus      *event.InMemoryBus
	clock    time.Time
}

var operator = model.AuditActor{UserID: "u-admin", Username: "admin@example.com", Role: model.RoleAdmin}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "backoffice.db"),
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate())

	registry := schema.BackOffice()
	listings := cache.NewMemoryCache(time.Minute)
	bus := event.NewBus()
	audit := NewAuditService(repository.NewAuditRepository(db.Store))
	m := metrics.New()

	env := &testEnv{
		store:    db.Store,
		trash:    NewTrashService(db.Store, registry, listings, bus, audit, m),
		entities: NewEntityService(db.Store, registry, listings, bus, audit, m),
		audit:    audit,
		bus:      bus,
		clock:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	// Each soft delete happens one minute after the previous one.
	env.trash.now = func() time.Time {
		env.clock = env.clock.Add(time.Minute)
		return env.clock
	}
	return env
}

func (e *testEnv) insert(t *testing.T, table string, row tabular.Row) tabular.Row {
	t.Helper()
	inserted, err := e.store.Insert(context.Background(), table, row)
	require.NoError(t, err)
	return inserted
}

func (e *testEnv) liveRow(t *testing.T, table, id string) (tabular.Row, bool) {
	t.Helper()
	rows, err := e.store.Select(context.Background(), table, tabular.Query{Filter: tabular.Where(tabular.Eq("id", id))})
	require.NoError(t, err)
	if len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

func (e *testEnv) seedProduct(t *testing.T, id, name string) tabular.Row {
	return e.insert(t, "products", tabular.Row{
		"id":                id,
		"name":              name,
		"base_price":        14.99,
		"max_profiles":      4,
		"allowed_durations": []int64{1, 3, 6},
		"status":            "active",
	})
}

func (e *testEnv) seedAccount(t *testing.T, id, productID string) tabular.Row {
	return e.insert(t, "accounts", tabular.Row{
		"id":              id,
		"product_id":      productID,
		"email":           id + "@streaming.example",
		"password":        "secret",
		"purchase_date":   "2026-05-01T00:00:00Z",
		"expiration_date": "2026-06-01T00:00:00Z",
		"base_price":      9.5,
	})
}

func (e *testEnv) entryFor(t *testing.T, origin, originID string) model.TrashItem {
	t.Helper()
	data, err := e.trash.List(context.Background(), origin)
	require.NoError(t, err)
	for _, item := range data.Items {
		if item.OriginID == originID {
			return item
		}
	}
	t.Fatalf("no trash entry for %s/%s", origin, originID)
	return model.TrashItem{}
}

func TestTrashService_ProductRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	original := env.seedProduct(t, "p1", "Netflix Premium")

	deleted, err := env.trash.SoftDelete(ctx, "products", "p1", operator)
	require.NoError(t, err)
	assert.Equal(t, "Producto eliminado", deleted.Notification.Title)

	_, live := env.liveRow(t, "products", "p1")
	assert.False(t, live)

	item := env.entryFor(t, "products", "p1")
	assert.Equal(t, "products", item.OriginTable)
	assert.Equal(t, "Netflix Premium", item.Label)
	assert.Equal(t, "Productos", item.DisplayName)
	assert.Equal(t, operator.Username, item.DeletedBy.Username)

	restored, err := env.trash.Restore(ctx, item.ID, operator)
	require.NoError(t, err)
	assert.Equal(t, "Producto restaurado correctamente", restored.Notification.Description)

	back, live := env.liveRow(t, "products", "p1")
	require.True(t, live)
	assert.Equal(t, original, back)

	data, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	assert.Empty(t, data.Items)

	rows, err := env.entities.List(ctx, "products")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Netflix Premium", rows[0]["name"])
}

func TestTrashService_SaleLabelFallsBackToSingular(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Netflix Premium")
	env.seedAccount(t, "a1", "p1")
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})
	env.insert(t, "sales", tabular.Row{
		"id":              "s1",
		"customer_id":     "c1",
		"product_id":      "p1",
		"account_id":      "a1",
		"purchase_date":   "2026-05-01T00:00:00Z",
		"expiration_date": "2026-06-01T00:00:00Z",
		"sale_price":      20.0,
	})

	deleted, err := env.trash.SoftDelete(ctx, "sales", "s1", operator)
	require.NoError(t, err)
	assert.Equal(t, "Venta eliminada", deleted.Notification.Title)

	item := env.entryFor(t, "sales", "s1")
	assert.Equal(t, "Venta #s1", item.Label)
	assert.Equal(t, "Ventas", item.DisplayName)
}

func TestTrashService_ListFilterOrdering(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Netflix")
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})
	env.seedProduct(t, "p2", "Spotify")
	env.insert(t, "customers", tabular.Row{"id": "c2", "name": "Luis"})

	for _, target := range [][2]string{{"products", "p1"}, {"customers", "c1"}, {"products", "p2"}, {"customers", "c2"}} {
		_, err := env.trash.SoftDelete(ctx, target[0], target[1], operator)
		require.NoError(t, err)
	}

	products, err := env.trash.List(ctx, "products")
	require.NoError(t, err)
	require.Len(t, products.Items, 2)
	assert.Equal(t, "p2", products.Items[0].OriginID)
	assert.Equal(t, "p1", products.Items[1].OriginID)
	for _, item := range products.Items {
		assert.Equal(t, "products", item.OriginTable)
	}

	all, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	require.Len(t, all.Items, 4)
	ids := make([]string, 0, 4)
	for i, item := range all.Items {
		ids = append(ids, item.OriginID)
		if i > 0 {
			assert.False(t, item.DeletedAt.After(all.Items[i-1].DeletedAt))
		}
	}
	assert.Equal(t, []string{"c2", "p2", "c1", "p1"}, ids)

	_, err = env.trash.List(ctx, "invoices")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTrashService_PurgeOne(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})

	_, err := env.trash.SoftDelete(ctx, "customers", "c1", operator)
	require.NoError(t, err)
	item := env.entryFor(t, "customers", "c1")

	result, err := env.trash.PurgeOne(ctx, item.ID, operator)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.DeletedCount)

	data, err := env.trash.List(ctx, "customers")
	require.NoError(t, err)
	assert.Empty(t, data.Items)

	_, err = env.trash.PurgeOne(ctx, item.ID, operator)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)

	_, err = env.trash.Restore(ctx, item.ID, operator)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
}

func TestTrashService_PurgeAllScopedToFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Netflix")
	env.seedProduct(t, "p2", "Spotify")
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})

	for _, target := range [][2]string{{"products", "p1"}, {"products", "p2"}, {"customers", "c1"}} {
		_, err := env.trash.SoftDelete(ctx, target[0], target[1], operator)
		require.NoError(t, err)
	}

	result, err := env.trash.PurgeAll(ctx, "products", operator)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.DeletedCount)
	assert.Equal(t, "products", result.Filter)
	assert.Equal(t, "Se eliminaron 2 elementos de Productos", result.Notification.Description)

	rest, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, "customers", rest.Items[0].OriginTable)

	result, err = env.trash.PurgeAll(ctx, FilterAll, operator)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.DeletedCount)
	assert.Equal(t, FilterAll, result.Filter)

	_, err = env.trash.PurgeAll(ctx, "all'; --", operator)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTrashService_RestoreWithMissingParentKeepsEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Netflix")
	env.seedAccount(t, "a1", "p1")

	_, err := env.trash.SoftDelete(ctx, "accounts", "a1", operator)
	require.NoError(t, err)
	_, err = env.trash.SoftDelete(ctx, "products", "p1", operator)
	require.NoError(t, err)
	_, err = env.trash.PurgeOne(ctx, env.entryFor(t, "products", "p1").ID, operator)
	require.NoError(t, err)

	account := env.entryFor(t, "accounts", "a1")
	_, err = env.trash.Restore(ctx, account.ID, operator)
	require.ErrorIs(t, err, model.ErrConstraintViolation)

	note := FailureNotification(ActionRestore, err)
	assert.Equal(t, "Error", note.Title)
	assert.Contains(t, note.Description, "No se pudo restaurar el elemento: ")
	assert.Equal(t, model.VariantDestructive, note.Variant)

	still := env.entryFor(t, "accounts", "a1")
	assert.Equal(t, account.ID, still.ID)
	_, live := env.liveRow(t, "accounts", "a1")
	assert.False(t, live)
}

func TestTrashService_RestoreRejectsInvalidPayloadBeforeStorage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	record := model.ArchivedRecord{
		ID:          "8d7e3c1a-3a53-4b4f-9f59-1f7c7cb8a001",
		OriginTable: "products",
		OriginID:    "p9",
		Payload:     map[string]any{"id": "p9", "name": "", "base_price": -1, "bogus": true},
		DeletedAt:   time.Now(),
	}
	require.NoError(t, repository.NewTrashRepository(env.store).Create(ctx, record))

	_, err := env.trash.Restore(ctx, record.ID, operator)
	require.ErrorIs(t, err, model.ErrConstraintViolation)

	var validationErr *schema.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Fields, "bogus")
	assert.Contains(t, validationErr.Fields, "max_profiles")

	env.entryFor(t, "products", "p9")
}

func TestTrashService_RestoreDuplicateIDIsConstraint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})

	_, err := env.trash.SoftDelete(ctx, "customers", "c1", operator)
	require.NoError(t, err)
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana again"})

	_, err = env.trash.Restore(ctx, env.entryFor(t, "customers", "c1").ID, operator)
	assert.ErrorIs(t, err, model.ErrConstraintViolation)
	env.entryFor(t, "customers", "c1")
}

func TestTrashService_ConcurrentRestoreHasOneWinner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})

	_, err := env.trash.SoftDelete(ctx, "customers", "c1", operator)
	require.NoError(t, err)
	id := env.entryFor(t, "customers", "c1").ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.trash.Restore(ctx, id, operator)
		}(i)
	}
	wg.Wait()

	successes, notFound := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, model.ErrTrashItemNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, notFound)
}

func TestTrashService_SoftDeleteGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Netflix")
	env.seedAccount(t, "a1", "p1")

	_, err := env.trash.SoftDelete(ctx, "products", "p1", operator)
	require.ErrorIs(t, err, model.ErrConstraintViolation)
	assert.EqualError(t, err, "No se puede eliminar porque tiene cuentas asociadas")
	_, live := env.liveRow(t, "products", "p1")
	assert.True(t, live)

	data, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	assert.Empty(t, data.Items)

	_, err = env.trash.SoftDelete(ctx, "products", "missing", operator)
	assert.ErrorIs(t, err, model.ErrRowNotFound)

	_, err = env.trash.SoftDelete(ctx, "invoices", "x", operator)
	assert.ErrorIs(t, err, model.ErrUnknownTable)
}

// dependentBeforeTx inserts a dependent row just before the archive
// transaction opens, as a concurrent writer would.
type dependentBeforeTx struct {
	tabular.Store
	once   sync.Once
	insert func()
}

func (s *dependentBeforeTx) InTx(ctx context.Context, fn func(tabular.Store) error) error {
	s.once.Do(s.insert)
	return s.Store.InTx(ctx, fn)
}

func TestTrashService_DependentAddedDuringDeleteIsNamed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Netflix")

	store := &dependentBeforeTx{Store: env.store, insert: func() { env.seedAccount(t, "a1", "p1") }}
	trash := NewTrashService(store, schema.BackOffice(), nil, nil, nil, nil)

	_, err := trash.SoftDelete(ctx, "products", "p1", operator)
	require.ErrorIs(t, err, model.ErrConstraintViolation)
	assert.EqualError(t, err, "No se puede eliminar porque tiene cuentas asociadas")

	_, live := env.liveRow(t, "products", "p1")
	assert.True(t, live)
	records, err := repository.NewTrashRepository(env.store).List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTrashService_ArchiveChecksDependents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	product := env.seedProduct(t, "p1", "Netflix")
	env.seedAccount(t, "a1", "p1")

	origin, ok := schema.BackOffice().Lookup("products")
	require.True(t, ok)

	_, err := env.trash.Archive(ctx, origin, product, time.Now(), operator)
	var depErr *DependentRowsError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "accounts", depErr.Dependent.Table())
}

func TestTrashService_MutationsInvalidateListings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})

	before, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	assert.Empty(t, before.Items)
	rows, err := env.entities.List(ctx, "customers")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = env.trash.SoftDelete(ctx, "customers", "c1", operator)
	require.NoError(t, err)

	after, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	assert.Len(t, after.Items, 1)
	rows, err = env.entities.List(ctx, "customers")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = env.trash.Restore(ctx, after.Items[0].ID, operator)
	require.NoError(t, err)

	rows, err = env.entities.List(ctx, "customers")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestTrashService_PublishesEventsAndAudits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	events, unsubscribe := env.bus.Subscribe("test")
	defer unsubscribe()

	env.insert(t, "customers", tabular.Row{"id": "c1", "name": "Ana"})
	_, err := env.trash.SoftDelete(ctx, "customers", "c1", operator)
	require.NoError(t, err)
	_, err = env.trash.PurgeAll(ctx, "customers", operator)
	require.NoError(t, err)

	got := []event.Type{(<-events).Type, (<-events).Type}
	assert.Equal(t, []event.Type{event.TypeTrashArchived, event.TypeTrashEmptied}, got)

	entries, meta, err := env.audit.Query(ctx, model.AuditQuery{ActorID: operator.UserID})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Total)
	actions := []string{entries[0].Action, entries[1].Action}
	assert.ElementsMatch(t, []string{"trash.delete", "trash.empty"}, actions)
}

func TestTrashService_Sweep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trash := repository.NewTrashRepository(env.store)
	now := time.Now().UTC()

	require.NoError(t, trash.Create(ctx, model.ArchivedRecord{OriginTable: "customers", OriginID: "old", Payload: map[string]any{"id": "old"}, DeletedAt: now.Add(-40 * 24 * time.Hour)}))
	require.NoError(t, trash.Create(ctx, model.ArchivedRecord{OriginTable: "customers", OriginID: "new", Payload: map[string]any{"id": "new"}, DeletedAt: now}))
	env.trash.now = time.Now

	n, err := env.trash.Sweep(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	data, err := env.trash.List(ctx, FilterAll)
	require.NoError(t, err)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "new", data.Items[0].OriginID)

	_, err = env.trash.Sweep(ctx, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTrashService_Origins(t *testing.T) {
	env := newTestEnv(t)
	options := env.trash.Origins()
	require.Len(t, options, 9)
	assert.Equal(t, model.OriginOption{Value: FilterAll, DisplayName: "Todos"}, options[0])
	assert.Equal(t, model.OriginOption{Value: "price_lists", DisplayName: "Listas de precios"}, options[8])
}
