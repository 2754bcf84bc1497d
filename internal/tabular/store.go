// Package tabular is the generic table access the back office is built on:
// select, insert and delete rows of a named table, optionally inside a
// transaction. Table and column names are validated identifiers; values are
// always bound parameters.
package tabular

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go-resell-backoffice/internal/model"
)

// Row is one table row keyed by column name.
type Row map[string]any

type Op string

const (
	OpEq Op = "="
	OpLt Op = "<"
)

type Cond struct {
	Column string
	Op     Op
	Value  any
}

// Filter is a conjunction of conditions. A nil or empty Filter matches
// every row.
type Filter []Cond

func Eq(column string, value any) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

func Lt(column string, value any) Cond {
	return Cond{Column: column, Op: OpLt, Value: value}
}

func Where(conds ...Cond) Filter {
	return Filter(conds)
}

type Order struct {
	Column string
	Desc   bool
}

type Query struct {
	Filter Filter
	Order  []Order
	Limit  int
	Offset int
}

type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Delete(ctx context.Context, table string, f Filter) (int64, error)
	Count(ctx context.Context, table string, f Filter) (int64, error)
	// InTx runs fn against a Store bound to one transaction. fn's error
	// rolls the transaction back.
	InTx(ctx context.Context, fn func(Store) error) error
}

// TimeLayout is fixed width so text-stored timestamps sort chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a timestamp column value as returned by either backend.
func ParseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("parse time %q", v)
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("parse time: unsupported %T", value)
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: identifier %q", model.ErrInvalidInput, name)
	}
	return nil
}
