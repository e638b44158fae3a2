// Package valueobject holds small value types shared by entities and
// persistence.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
	"strconv"
)

// ErrScanValueNotBytes is returned when a column cannot be decoded as JSON.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a free form JSON object, stored as jsonb.
// @swaggertype object
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = v
	default:
		return ErrScanValueNotBytes
	}

	out := JSONMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*j = out
	return nil
}

func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString returns a string value. Numbers are formatted, other types yield "".
func (j JSONMap) GetString(key string) string {
	switch v := j[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// GetInt64 accepts numbers and numeric strings.
func (j JSONMap) GetInt64(key string) int64 {
	switch v := j[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func (j JSONMap) GetBool(key string) bool {
	return j.GetBoolOr(key, false)
}

// GetBoolOr returns def when key is missing or not a bool.
func (j JSONMap) GetBoolOr(key string, def bool) bool {
	if v, ok := j[key].(bool); ok {
		return v
	}
	return def
}

// Clone returns a shallow copy; nil stays nil.
func (j JSONMap) Clone() JSONMap {
	if j == nil {
		return nil
	}
	return maps.Clone(j)
}
