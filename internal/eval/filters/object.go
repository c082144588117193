package filters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

func objectFilters() []Filter {
	obj := func(name, desc string, fn Func) Filter {
		return Filter{Name: name, Category: CategoryObject, Description: desc, Fn: fn}
	}

	return []Filter{
		obj("keys", "Sorted keys of an object", func(value any, _ Args) (any, error) {
			m, ok := values.ToMap(value)
			if !ok {
				return []any{}, nil
			}
			out := make([]any, 0, len(m))
			for _, k := range sortedKeys(m) {
				out = append(out, k)
			}
			return out, nil
		}),
		obj("values", "Values of an object in key order", func(value any, _ Args) (any, error) {
			m, ok := values.ToMap(value)
			if !ok {
				return []any{}, nil
			}
			out := make([]any, 0, len(m))
			for _, k := range sortedKeys(m) {
				out = append(out, m[k])
			}
			return out, nil
		}),
		obj("entries", "Key/value pairs of an object", func(value any, _ Args) (any, error) {
			m, ok := values.ToMap(value)
			if !ok {
				return []any{}, nil
			}
			out := make([]any, 0, len(m))
			for _, k := range sortedKeys(m) {
				out = append(out, map[string]any{"key": k, "value": m[k]})
			}
			return out, nil
		}),
		obj("get", "Read a dotted path: get('author.name')", func(value any, args Args) (any, error) {
			cur := value
			for _, seg := range strings.Split(args.String(0, ""), ".") {
				if seg == "" {
					continue
				}
				next, ok := values.Field(cur, seg)
				if !ok {
					return nil, nil
				}
				cur = next
			}
			return cur, nil
		}),
		obj("has", "Report whether an object has a key", func(value any, args Args) (any, error) {
			_, ok := values.Field(value, args.String(0, ""))
			return ok, nil
		}),
		obj("json", "Encode as JSON: json(2) indents", func(value any, args Args) (any, error) {
			indent := args.Int(0, 0)
			var data []byte
			var err error
			if indent > 0 {
				data, err = json.MarshalIndent(value, "", strings.Repeat(" ", min(indent, 8)))
			} else {
				data, err = json.Marshal(value)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to encode json: %w", err)
			}
			return string(data), nil
		}),
		obj("fromJson", "Decode a JSON string", func(value any, _ Args) (any, error) {
			var out any
			if err := json.Unmarshal([]byte(values.Stringify(value)), &out); err != nil {
				return nil, fmt.Errorf("failed to decode json: %w", err)
			}
			return out, nil
		}),
		obj("toYaml", "Encode as YAML", func(value any, _ Args) (any, error) {
			data, err := yaml.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode yaml: %w", err)
			}
			return strings.TrimRight(string(data), "\n"), nil
		}),
		obj("fromYaml", "Decode a YAML string", func(value any, _ Args) (any, error) {
			var out any
			if err := yaml.Unmarshal([]byte(values.Stringify(value)), &out); err != nil {
				return nil, fmt.Errorf("failed to decode yaml: %w", err)
			}
			return out, nil
		}),
		obj("jsonpath", "Query with JSONPath: jsonpath('$.items[*].title')", func(value any, args Args) (any, error) {
			expr := args.String(0, "")
			if expr == "" {
				return nil, fmt.Errorf("jsonpath requires an expression")
			}
			path, err := jp.ParseString(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid jsonpath %q: %w", expr, err)
			}
			results := path.Get(value)
			switch len(results) {
			case 0:
				return nil, nil
			case 1:
				return results[0], nil
			}
			return results, nil
		}),
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
