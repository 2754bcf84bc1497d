package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"go-resell-backoffice/internal/tabular"
)

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	}
	return fmt.Sprint(v)
}

func asTime(v any) time.Time {
	t, err := tabular.ParseTime(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// decodeJSON fills dst from a JSON column: a decoded value on postgres,
// text on sqlite.
func decodeJSON(v any, dst any) error {
	var raw []byte
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		raw = []byte(val)
	case []byte:
		if len(val) == 0 {
			return nil
		}
		raw = val
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		raw = encoded
	}
	return json.Unmarshal(raw, dst)
}
