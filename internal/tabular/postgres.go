package tabular

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-resell-backoffice/internal/model"
)

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	quote:       func(ident string) string { return `"` + ident + `"` },
}

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
	q    pgQuerier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

func (s *PostgresStore) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args, err := postgresDialect.selectSQL(table, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPostgres(err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPostgres(err)
	}

	result := make([]Row, 0, len(maps))
	for _, m := range maps {
		result = append(result, normalizePostgresRow(m))
	}
	return result, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	query, args, err := postgresDialect.insertSQL(table, row)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPostgres(err)
	}

	inserted, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPostgres(err)
	}
	return normalizePostgresRow(inserted), nil
}

func (s *PostgresStore) Delete(ctx context.Context, table string, f Filter) (int64, error) {
	query, args, err := postgresDialect.deleteSQL(table, f)
	if err != nil {
		return 0, err
	}

	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPostgres(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Count(ctx context.Context, table string, f Filter) (int64, error) {
	query, args, err := postgresDialect.countSQL(table, f)
	if err != nil {
		return 0, err
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return 0, classifyPostgres(err)
	}

	n, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, classifyPostgres(err)
	}
	return n, nil
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&PostgresStore{q: tx})
	})
	if err != nil && !isClassified(err) {
		return classifyPostgres(err)
	}
	return err
}

func classifyPostgres(err error) error {
	if err == nil || isClassified(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"), pgErr.Code == "42703", strings.HasPrefix(pgErr.Code, "22"):
			return fmt.Errorf("%w: %s", model.ErrConstraintViolation, pgErr.Message)
		case pgErr.Code == "42P01":
			return fmt.Errorf("%w: %s", model.ErrUnknownTable, pgErr.Message)
		}
		// Connection loss, resource limits, shutdowns and the like: the
		// server could not answer the request.
		return fmt.Errorf("%w: postgres %s: %s", model.ErrTransport, pgErr.Code, pgErr.Message)
	}

	// Anything else out of pgx is connection, pool or context trouble.
	return fmt.Errorf("%w: %w", model.ErrTransport, err)
}

func isClassified(err error) bool {
	return errors.Is(err, model.ErrConstraintViolation) ||
		errors.Is(err, model.ErrTransport) ||
		errors.Is(err, model.ErrUnknownTable) ||
		errors.Is(err, model.ErrInvalidInput) ||
		errors.Is(err, model.ErrRowNotFound) ||
		errors.Is(err, model.ErrTrashItemNotFound)
}

func normalizePostgresRow(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = normalizePostgresValue(v)
	}
	return row
}

func normalizePostgresValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return val.UTC()
	case int32:
		return int64(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizePostgresValue(item)
		}
		return out
	}
	return v
}
