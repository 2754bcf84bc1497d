package tabular

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"go-resell-backoffice/internal/model"
)

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	quote:       func(ident string) string { return `"` + ident + `"` },
}

type sqlExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteStore stores slices and maps as JSON text and timestamps as
// TimeLayout strings.
type SQLiteStore struct {
	db *sql.DB
	q  sqlExecutor
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, q: db}
}

func (s *SQLiteStore) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args, err := sqliteDialect.selectSQL(table, q)
	if err != nil {
		return nil, err
	}

	bound, err := sqliteArgs(args)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, query, bound...)
	if err != nil {
		return nil, classifySQLite(err)
	}
	defer rows.Close()

	return scanSQLiteRows(rows)
}

func (s *SQLiteStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	query, args, err := sqliteDialect.insertSQL(table, row)
	if err != nil {
		return nil, err
	}

	bound, err := sqliteArgs(args)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, query, bound...)
	if err != nil {
		return nil, classifySQLite(err)
	}
	defer rows.Close()

	inserted, err := scanSQLiteRows(rows)
	if err != nil {
		return nil, err
	}
	if len(inserted) != 1 {
		return nil, fmt.Errorf("insert into %s returned %d rows", table, len(inserted))
	}
	return inserted[0], nil
}

func (s *SQLiteStore) Delete(ctx context.Context, table string, f Filter) (int64, error) {
	query, args, err := sqliteDialect.deleteSQL(table, f)
	if err != nil {
		return 0, err
	}

	bound, err := sqliteArgs(args)
	if err != nil {
		return 0, err
	}

	res, err := s.q.ExecContext(ctx, query, bound...)
	if err != nil {
		return 0, classifySQLite(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifySQLite(err)
	}
	return n, nil
}

func (s *SQLiteStore) Count(ctx context.Context, table string, f Filter) (int64, error) {
	query, args, err := sqliteDialect.countSQL(table, f)
	if err != nil {
		return 0, err
	}

	bound, err := sqliteArgs(args)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.q.QueryRowContext(ctx, query, bound...).Scan(&n); err != nil {
		return 0, classifySQLite(err)
	}
	return n, nil
}

func (s *SQLiteStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifySQLite(err)
	}

	if err := fn(&SQLiteStore{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifySQLite(err)
	}
	return nil
}

func scanSQLiteRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, classifySQLite(err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classifySQLite(err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLite(err)
	}
	return result, nil
}

func sqliteArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil, string, bool, int, int32, int64, float32, float64, []byte:
			out[i] = v
		case time.Time:
			out[i] = FormatTime(v)
		case fmt.Stringer:
			out[i] = v.String()
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("%w: encode %T: %w", model.ErrInvalidInput, v, err)
			}
			out[i] = string(encoded)
		}
	}
	return out, nil
}

func classifySQLite(err error) error {
	if err == nil || isClassified(err) {
		return err
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code() & 0xff
		msg := err.Error()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT, strings.Contains(msg, "constraint failed"):
			return fmt.Errorf("%w: %s", model.ErrConstraintViolation, msg)
		case strings.Contains(msg, "has no column named"), strings.Contains(msg, "no such column"):
			return fmt.Errorf("%w: %s", model.ErrConstraintViolation, msg)
		case strings.Contains(msg, "no such table"):
			return fmt.Errorf("%w: %s", model.ErrUnknownTable, msg)
		case code == sqlite3.SQLITE_BUSY, code == sqlite3.SQLITE_LOCKED, code == sqlite3.SQLITE_IOERR, code == sqlite3.SQLITE_CANTOPEN:
			return fmt.Errorf("%w: %s", model.ErrTransport, msg)
		}
		return fmt.Errorf("sqlite: %w", err)
	}

	return fmt.Errorf("%w: %w", model.ErrTransport, err)
}
