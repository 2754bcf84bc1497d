package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-resell-backoffice/internal/model"
)

func TestRegistry_Presentation(t *testing.T) {
	t.Parallel()
	registry := BackOffice()

	assert.Equal(t, "Productos", registry.DisplayName("products"))
	assert.Equal(t, "Listas de precios", registry.DisplayName("PRICE_LISTS"))
	assert.Equal(t, "invoices", registry.DisplayName("invoices"))

	assert.Equal(t, "Netflix Premium", registry.Label("products", "p1", map[string]any{"name": "Netflix Premium"}))
	assert.Equal(t, "Producto #p1", registry.Label("products", "p1", map[string]any{"name": "  "}))
	assert.Equal(t, "Venta #s1", registry.Label("sales", "s1", map[string]any{"sale_price": 10.0}))
	assert.Equal(t, "ana@example.com", registry.Label("accounts", "a1", map[string]any{"email": "ana@example.com"}))
	assert.Equal(t, "invoices #9", registry.Label("invoices", "9", nil))

	kinds := registry.Kinds()
	require.Len(t, kinds, 8)
	assert.Equal(t, Products, kinds[0])
}

func TestOrigin_Inflect(t *testing.T) {
	t.Parallel()
	registry := BackOffice()
	sales, _ := registry.Lookup("sales")
	users, _ := registry.Lookup("users")

	assert.Equal(t, "restaurada", sales.Inflect("restaurado"))
	assert.Equal(t, "restaurado", users.Inflect("restaurado"))
}

func TestRegistry_Dependents(t *testing.T) {
	t.Parallel()
	registry := BackOffice()

	deps := registry.Dependents("products")
	assert.ElementsMatch(t, []Dependent{
		{Origin: Accounts, Column: "product_id"},
		{Origin: Sales, Column: "product_id"},
		{Origin: PriceLists, Column: "product_id"},
	}, deps)

	assert.Empty(t, registry.Dependents("sales"))
	assert.Nil(t, registry.Dependents("invoices"))
}

func TestRegistry_Prepare(t *testing.T) {
	t.Parallel()
	registry := BackOffice()

	t.Run("coerces decoded JSON", func(t *testing.T) {
		row, err := registry.Prepare("products", map[string]any{
			"id":                "p1",
			"name":              "Netflix",
			"base_price":        float64(15),
			"max_profiles":      float64(4),
			"allowed_durations": "[1,3]",
			"created_at":        "2026-05-01T10:00:00.000000Z",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), row["max_profiles"])
		assert.Equal(t, []int64{1, 3}, row["allowed_durations"])
		assert.Equal(t, "2026-05-01T10:00:00.000000Z", row["created_at"])
	})

	t.Run("keeps explicit nulls", func(t *testing.T) {
		row, err := registry.Prepare("sales", map[string]any{
			"id":              "s1",
			"customer_id":     "c1",
			"product_id":      "p1",
			"account_id":      "a1",
			"profile_id":      nil,
			"purchase_date":   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			"expiration_date": "2026-06-01",
			"sale_price":      int64(20),
		})
		require.NoError(t, err)
		assert.Contains(t, row, "profile_id")
		assert.Nil(t, row["profile_id"])
		assert.Equal(t, 20.0, row["sale_price"])
	})

	t.Run("collects every rejected field", func(t *testing.T) {
		_, err := registry.Prepare("accounts", map[string]any{
			"id":            "a1",
			"email":         "not-an-email",
			"purchase_date": "yesterday",
			"base_price":    "free",
			"extra":         1,
		})
		require.ErrorIs(t, err, model.ErrConstraintViolation)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		for _, field := range []string{"email", "purchase_date", "base_price", "extra", "product_id", "password", "expiration_date"} {
			assert.Contains(t, validationErr.Fields, field)
		}
		assert.NotContains(t, validationErr.Fields, "id")
	})

	t.Run("unknown origin", func(t *testing.T) {
		_, err := registry.Prepare("invoices", map[string]any{})
		assert.ErrorIs(t, err, model.ErrUnknownTable)
	})

	t.Run("fractional integer", func(t *testing.T) {
		_, err := registry.Prepare("products", map[string]any{
			"id": "p1", "name": "x", "base_price": 1.0, "max_profiles": 1.5, "allowed_durations": []any{1.0},
		})
		assert.ErrorIs(t, err, model.ErrConstraintViolation)
	})
}
