package tabular

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-resell-backoffice/internal/model"
)

func TestClassifyPostgres(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"foreign key", &pgconn.PgError{Code: "23503", Message: "violates foreign key"}, model.ErrConstraintViolation},
		{"unique", &pgconn.PgError{Code: "23505"}, model.ErrConstraintViolation},
		{"not null", &pgconn.PgError{Code: "23502"}, model.ErrConstraintViolation},
		{"bad text representation", &pgconn.PgError{Code: "22P02"}, model.ErrConstraintViolation},
		{"undefined column", &pgconn.PgError{Code: "42703"}, model.ErrConstraintViolation},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, model.ErrUnknownTable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, model.ErrTransport},
		{"too many connections", &pgconn.PgError{Code: "53300"}, model.ErrTransport},
		{"wrapped pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), model.ErrConstraintViolation},
		{"deadline", context.DeadlineExceeded, model.ErrTransport},
		{"dial failure", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), model.ErrTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPostgres(tc.err)
			require.Error(t, got)
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestClassifyPostgres_KeepsClassifiedErrors(t *testing.T) {
	assert.NoError(t, classifyPostgres(nil))

	already := fmt.Errorf("%w: products", model.ErrUnknownTable)
	assert.Same(t, already, classifyPostgres(already))

	got := classifyPostgres(fmt.Errorf("%w: %w", model.ErrTransport, context.Canceled))
	assert.ErrorIs(t, got, model.ErrTransport)
	assert.NotErrorIs(t, got, model.ErrConstraintViolation)
}

func TestNormalizePostgresValue(t *testing.T) {
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}

	var price pgtype.Numeric
	require.NoError(t, price.Scan("14.99"))

	local := time.Date(2026, 5, 1, 10, 0, 0, 0, time.FixedZone("CLT", -4*3600))

	assert.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", normalizePostgresValue(id))
	assert.InDelta(t, 14.99, normalizePostgresValue(price), 1e-9)
	assert.Nil(t, normalizePostgresValue(pgtype.Numeric{}))
	assert.Equal(t, int64(4), normalizePostgresValue(int32(4)))
	assert.Equal(t, time.UTC, normalizePostgresValue(local).(time.Time).Location())
	assert.True(t, local.Equal(normalizePostgresValue(local).(time.Time)))
	assert.Equal(t, []any{int64(1), int64(3)}, normalizePostgresValue([]any{int32(1), int32(3)}))
	assert.Equal(t, "Netflix", normalizePostgresValue("Netflix"))
}

func TestNormalizePostgresRow(t *testing.T) {
	row := normalizePostgresRow(map[string]any{
		"max_profiles": int32(4),
		"name":         "Netflix Premium",
		"deleted_at":   nil,
	})
	assert.Equal(t, Row{"max_profiles": int64(4), "name": "Netflix Premium", "deleted_at": nil}, row)
}
