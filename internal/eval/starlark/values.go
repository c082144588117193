package starlark

import (
	"math"
	"sort"

	"go.starlark.net/starlark"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// ConvertToStarlark converts a template value to a Starlark value
func ConvertToStarlark(val any) starlark.Value {
	switch v := val.(type) {
	case nil:
		return starlark.None
	case starlark.Value:
		return v
	case string:
		return starlark.String(v)
	case bool:
		return starlark.Bool(v)
	case int:
		return starlark.MakeInt(v)
	case int64:
		return starlark.MakeInt64(v)
	case int32:
		return starlark.MakeInt64(int64(v))
	case uint:
		return starlark.MakeUint(v)
	case uint64:
		return starlark.MakeUint64(v)
	case float32:
		return convertFloat(float64(v))
	case float64:
		return convertFloat(v)
	}

	if items, ok := values.ToSlice(val); ok {
		list := make([]starlark.Value, len(items))
		for i, item := range items {
			list[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(list)
	}

	if m, ok := values.ToMap(val); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dict := starlark.NewDict(len(m))
		for _, k := range keys {
			_ = dict.SetKey(starlark.String(k), ConvertToStarlark(m[k]))
		}
		return dict
	}

	// Dates and other rich values are seen by scripts in their text form
	return starlark.String(values.Stringify(val))
}

// convertFloat keeps integral JSON numbers usable as Starlark ints (range, indexing)
func convertFloat(f float64) starlark.Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return starlark.MakeInt64(int64(f))
	}
	return starlark.Float(f)
}

// ConvertFromStarlark converts a Starlark value to a plain Go value
func ConvertFromStarlark(val starlark.Value) any {
	if val == nil || val == starlark.None {
		return nil
	}

	switch v := val.(type) {
	case starlark.String:
		return string(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		// For very large integers, convert to string
		return v.String()
	case starlark.Float:
		return float64(v)
	case starlark.Bool:
		return bool(v)
	case *starlark.List:
		items := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = ConvertFromStarlark(item)
		}
		return items
	case *starlark.Dict:
		dict := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key := item[0]
			if keyStr, ok := key.(starlark.String); ok {
				dict[string(keyStr)] = ConvertFromStarlark(item[1])
			} else {
				dict[key.String()] = ConvertFromStarlark(item[1])
			}
		}
		return dict
	default:
		return val.String()
	}
}
