package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go-resell-backoffice/internal/model"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ValidationError lists every payload field that would be rejected by the
// origin table. It matches model.ErrConstraintViolation.
type ValidationError struct {
	Origin string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("invalid %s row: %s", e.Origin, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return model.ErrConstraintViolation
}

// Prepare coerces a JSON-decoded row to the origin's column kinds and checks
// it the way the table would. The returned row is safe to insert.
func (r *Registry) Prepare(name string, row map[string]any) (map[string]any, error) {
	origin, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownTable, name)
	}

	fields := map[string]string{}
	out := make(map[string]any, len(row))

	for key, value := range row {
		col, known := origin.Column(key)
		if !known {
			fields[key] = "unknown column"
			continue
		}
		if value == nil {
			out[key] = nil
			continue
		}

		coerced, err := coerce(col.Kind, value)
		if err != nil {
			fields[key] = err.Error()
			continue
		}
		if col.Rules != "" {
			if err := r.validate.Var(coerced, col.Rules); err != nil {
				fields[key] = "failed rule " + col.Rules
				continue
			}
		}
		out[key] = coerced
	}

	for _, col := range origin.Columns {
		if !col.Required {
			continue
		}
		if value, present := row[col.Name]; !present || value == nil {
			fields[col.Name] = "required"
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Origin: origin.Table(), Fields: fields}
	}
	return out, nil
}

func coerce(kind Kind, value any) (any, error) {
	switch kind {
	case KindText:
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return nil, fmt.Errorf("expected text, got %T", value)

	case KindDecimal:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case json.Number:
			return v.Float64()
		}
		return nil, fmt.Errorf("expected number, got %T", value)

	case KindInteger:
		return toInt64(value)

	case KindIntArray:
		return toIntSlice(value)

	case KindTimestamp:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			for _, layout := range timestampLayouts {
				if _, err := time.Parse(layout, v); err == nil {
					return v, nil
				}
			}
			return nil, fmt.Errorf("invalid timestamp %q", v)
		}
		return nil, fmt.Errorf("expected timestamp, got %T", value)
	}

	return value, nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}

func toIntSlice(value any) ([]int64, error) {
	switch v := value.(type) {
	case []int64:
		return v, nil
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("expected integer list: %w", err)
		}
		return toIntSlice(decoded)
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			n, err := toInt64(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case []int32:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			out = append(out, int64(item))
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected integer list, got %T", value)
}

// Validate reports whether row could be inserted into name after coercion.
func (r *Registry) Validate(name string, row map[string]any) error {
	_, err := r.Prepare(name, row)
	return err
}
