package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one entity as returned by the backend. Persisted records carry an "id".
type Record map[string]any

// ID returns the record id as text. ok is false for transient records.
func (r Record) ID() (string, bool) {
	raw, exists := r["id"]
	if !exists || raw == nil {
		return "", false
	}
	id := Display(raw)
	return id, id != ""
}

// Collection is the ordered list of records of one entity
type Collection []Record

// Find returns the record with the given id
func (c Collection) Find(id string) (Record, bool) {
	for _, r := range c {
		if rid, ok := r.ID(); ok && rid == id {
			return r, true
		}
	}
	return nil, false
}

// Display coerces a raw value to the text shown in a table cell or input
func Display(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Display(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		// Nested objects such as {"id":1,"name":"Iron"} show their name
		if name, ok := val["name"]; ok {
			return Display(name)
		}
		if id, ok := val["id"]; ok {
			return Display(id)
		}
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// Strings flattens a raw multi-valued attribute to its element texts
func Strings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				if id, ok := m["id"]; ok {
					out = append(out, Display(id))
					continue
				}
			}
			out = append(out, Display(item))
		}
		return out
	default:
		s := Display(val)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

// Scalar returns the text form of a single-valued attribute. Related objects yield their id.
func Scalar(v any) string {
	if m, ok := v.(map[string]any); ok {
		if id, ok := m["id"]; ok {
			return Display(id)
		}
	}
	return Display(v)
}
