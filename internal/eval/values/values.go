// Package values holds the conversions shared by the template engine and its filters:
// how a variable is printed, whether it is truthy, and how dotted paths walk into it.
package values

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aymerick/raymond"
)

// ListSeparator joins array elements when an array is printed into a document.
const ListSeparator = ", "

// Stringify renders a value the way it appears in an expanded document.
// nil renders as the empty string, arrays are joined with ListSeparator and maps as JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ListSeparator)
	case reflect.Map, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return raymond.Str(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Ptr:
		if rv.IsNil() {
			return ""
		}
		return Stringify(rv.Elem().Interface())
	}

	return fmt.Sprint(v)
}

// Truthy reports whether a value counts as true in a condition.
// Empty strings, empty collections, zero numbers, false and nil are false.
func Truthy(v any) bool {
	return raymond.IsTrue(v)
}

// ToFloat converts numbers and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// IsNumber reports whether v holds a Go numeric type (numeric strings excluded).
func IsNumber(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ToSlice converts arrays and slices of any element type to []any.
// Strings and maps are not slices.
func ToSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ToMap converts maps with string keys to map[string]any.
func ToMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// Field looks up one path segment on v: a map key, an array index, or the
// length pseudo-property of strings, arrays and maps.
func Field(v any, key string) (any, bool) {
	if m, ok := ToMap(v); ok {
		if val, found := m[key]; found {
			return val, true
		}
		if key == "length" {
			return len(m), true
		}
		return nil, false
	}

	if items, ok := ToSlice(v); ok {
		if key == "length" {
			return len(items), true
		}
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, false
		}
		if idx < 0 {
			idx += len(items)
		}
		if idx < 0 || idx >= len(items) {
			return nil, false
		}
		return items[idx], true
	}

	if s, ok := v.(string); ok && key == "length" {
		return len([]rune(s)), true
	}

	return nil, false
}

// Merge returns a new map holding base overlaid by overlay; neither input is modified.
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// TypeName names a value's kind with the vocabulary templates use.
func TypeName(v any) string {
	if v == nil {
		return "null"
	}
	if _, ok := v.(string); ok {
		return "string"
	}
	if _, ok := v.(bool); ok {
		return "boolean"
	}
	if IsNumber(v) {
		return "number"
	}
	if _, ok := ToSlice(v); ok {
		return "array"
	}
	if _, ok := AsTime(v); ok {
		return "date"
	}
	if _, ok := ToMap(v); ok {
		return "object"
	}
	return "unknown"
}

// AsTime extracts a time from time.Time values and from date adapters exposing Time().
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case interface{ Time() time.Time }:
		return t.Time(), true
	}
	return time.Time{}, false
}
