package tabular

import (
	"fmt"
	"sort"
	"strings"

	"go-resell-backoffice/internal/model"
)

type dialect struct {
	placeholder func(n int) string
	quote       func(ident string) string
}

func (d dialect) selectSQL(table string, q Query) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}

	where, args, err := d.where(q.Filter, 1)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(d.quote(table))
	sb.WriteString(where)

	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			if err := checkIdent(o.Column); err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, d.quote(o.Column)+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT " + d.placeholder(len(args)))
		if q.Offset > 0 {
			args = append(args, q.Offset)
			sb.WriteString(" OFFSET " + d.placeholder(len(args)))
		}
	}

	return sb.String(), args, nil
}

func (d dialect) insertSQL(table string, row Row) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	if len(row) == 0 {
		return "", nil, fmt.Errorf("%w: empty row for %s", model.ErrInvalidInput, table)
	}

	columns := make([]string, 0, len(row))
	for col := range row {
		if err := checkIdent(col); err != nil {
			return "", nil, err
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, 0, len(columns))
	marks := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		quoted = append(quoted, d.quote(col))
		marks = append(marks, d.placeholder(i+1))
		args = append(args, row[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		d.quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	return query, args, nil
}

func (d dialect) deleteSQL(table string, f Filter) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}

	where, args, err := d.where(f, 1)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + d.quote(table) + where, args, nil
}

func (d dialect) countSQL(table string, f Filter) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}

	where, args, err := d.where(f, 1)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM " + d.quote(table) + where, args, nil
}

// where renders f; an empty filter renders no clause at all.
func (d dialect) where(f Filter, start int) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for _, c := range f {
		if err := checkIdent(c.Column); err != nil {
			return "", nil, err
		}

		switch c.Op {
		case OpEq, "":
			if c.Value == nil {
				parts = append(parts, d.quote(c.Column)+" IS NULL")
				continue
			}
			args = append(args, c.Value)
			parts = append(parts, d.quote(c.Column)+" = "+d.placeholder(start+len(args)-1))
		case OpLt:
			args = append(args, c.Value)
			parts = append(parts, d.quote(c.Column)+" < "+d.placeholder(start+len(args)-1))
		default:
			return "", nil, fmt.Errorf("%w: operator %q", model.ErrInvalidInput, c.Op)
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}
