package filters

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

func arrayFilters() []Filter {
	arr := func(name, desc string, fn Func) Filter {
		return Filter{Name: name, Category: CategoryArray, Description: desc, Fn: fn}
	}

	return []Filter{
		arr("join", "Join elements with a separator: join(', ')", func(value any, args Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				return values.Stringify(value), nil
			}
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = values.Stringify(it)
			}
			return strings.Join(parts, args.String(0, values.ListSeparator)), nil
		}),
		arr("first", "First element or character", func(value any, _ Args) (any, error) {
			if items, ok := values.ToSlice(value); ok {
				if len(items) == 0 {
					return nil, nil
				}
				return items[0], nil
			}
			s := values.Stringify(value)
			if s == "" {
				return "", nil
			}
			r, _ := utf8.DecodeRuneInString(s)
			return string(r), nil
		}),
		arr("last", "Last element or character", func(value any, _ Args) (any, error) {
			if items, ok := values.ToSlice(value); ok {
				if len(items) == 0 {
					return nil, nil
				}
				return items[len(items)-1], nil
			}
			s := values.Stringify(value)
			if s == "" {
				return "", nil
			}
			r, _ := utf8.DecodeLastRuneInString(s)
			return string(r), nil
		}),
		arr("reverse", "Reverse an array or a string", func(value any, _ Args) (any, error) {
			if items, ok := values.ToSlice(value); ok {
				out := make([]any, len(items))
				for i, it := range items {
					out[len(items)-1-i] = it
				}
				return out, nil
			}
			runes := []rune(values.Stringify(value))
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return string(runes), nil
		}),
		arr("sort", "Sort ascending, optionally by a field: sort('title')", func(value any, args Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				return value, nil
			}
			key := args.String(0, "")
			out := append([]any(nil), items...)
			sort.SliceStable(out, func(i, j int) bool {
				a, b := out[i], out[j]
				if key != "" {
					a, _ = values.Field(a, key)
					b, _ = values.Field(b, key)
				}
				return less(a, b)
			})
			return out, nil
		}),
		arr("unique", "Drop repeated elements", func(value any, _ Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				return value, nil
			}
			seen := make(map[string]bool, len(items))
			out := make([]any, 0, len(items))
			for _, it := range items {
				k := values.Stringify(it)
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, it)
			}
			return out, nil
		}),
		arr("compact", "Drop null and empty elements", func(value any, _ Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				return value, nil
			}
			out := make([]any, 0, len(items))
			for _, it := range items {
				if it == nil || it == "" {
					continue
				}
				out = append(out, it)
			}
			return out, nil
		}),
		arr("slice", "Elements from start to end: slice(1, 3)", func(value any, args Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				runes := []rune(values.Stringify(value))
				start := clampIndex(args.Int(0, 0), len(runes))
				end := clampIndex(args.Int(1, len(runes)), len(runes))
				if end < start {
					return "", nil
				}
				return string(runes[start:end]), nil
			}
			start := clampIndex(args.Int(0, 0), len(items))
			end := clampIndex(args.Int(1, len(items)), len(items))
			if end < start {
				return []any{}, nil
			}
			return append([]any(nil), items[start:end]...), nil
		}),
		arr("pluck", "Collect one field from every element: pluck('name')", pluck),
		arr("map", "Alias of pluck", pluck),
		arr("where", "Keep elements whose field equals a value: where('status', 'done')", func(value any, args Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				return []any{}, nil
			}
			key := args.String(0, "")
			if key == "" {
				return nil, fmt.Errorf("where requires a field name")
			}
			want, hasWant := args.At(1)
			out := make([]any, 0, len(items))
			for _, it := range items {
				got, _ := values.Field(it, key)
				if hasWant && values.Stringify(got) == values.Stringify(want) || !hasWant && values.Truthy(got) {
					out = append(out, it)
				}
			}
			return out, nil
		}),
		arr("length", "Number of elements, characters or keys", length),
		arr("count", "Alias of length", length),
		arr("sum", "Sum of numeric elements", func(value any, _ Args) (any, error) {
			total := 0.0
			for _, f := range numbers(value) {
				total += f
			}
			return total, nil
		}),
		arr("min", "Smallest numeric element", func(value any, _ Args) (any, error) {
			nums := numbers(value)
			if len(nums) == 0 {
				return nil, nil
			}
			m := nums[0]
			for _, f := range nums[1:] {
				if f < m {
					m = f
				}
			}
			return m, nil
		}),
		arr("max", "Largest numeric element", func(value any, _ Args) (any, error) {
			nums := numbers(value)
			if len(nums) == 0 {
				return nil, nil
			}
			m := nums[0]
			for _, f := range nums[1:] {
				if f > m {
					m = f
				}
			}
			return m, nil
		}),
		arr("avg", "Mean of numeric elements", func(value any, _ Args) (any, error) {
			nums := numbers(value)
			if len(nums) == 0 {
				return 0.0, nil
			}
			total := 0.0
			for _, f := range nums {
				total += f
			}
			return total / float64(len(nums)), nil
		}),
		arr("flatten", "Flatten nested arrays", func(value any, _ Args) (any, error) {
			items, ok := values.ToSlice(value)
			if !ok {
				return value, nil
			}
			return flatten(items, nil), nil
		}),
		arr("includes", "Report whether an array or string contains a value", func(value any, args Args) (any, error) {
			want, _ := args.At(0)
			if items, ok := values.ToSlice(value); ok {
				for _, it := range items {
					if values.Stringify(it) == values.Stringify(want) {
						return true, nil
					}
				}
				return false, nil
			}
			return strings.Contains(values.Stringify(value), values.Stringify(want)), nil
		}),
	}
}

func pluck(value any, args Args) (any, error) {
	items, ok := values.ToSlice(value)
	if !ok {
		return []any{}, nil
	}
	key := args.String(0, "")
	out := make([]any, 0, len(items))
	for _, it := range items {
		if v, found := values.Field(it, key); found {
			out = append(out, v)
		}
	}
	return out, nil
}

func length(value any, _ Args) (any, error) {
	if items, ok := values.ToSlice(value); ok {
		return len(items), nil
	}
	if m, ok := values.ToMap(value); ok {
		return len(m), nil
	}
	if value == nil {
		return 0, nil
	}
	return utf8.RuneCountInString(values.Stringify(value)), nil
}

func numbers(value any) []float64 {
	items, ok := values.ToSlice(value)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		if f, ok := values.ToFloat(it); ok {
			out = append(out, f)
		}
	}
	return out
}

func flatten(items []any, out []any) []any {
	for _, it := range items {
		if nested, ok := values.ToSlice(it); ok {
			out = flatten(nested, out)
			continue
		}
		out = append(out, it)
	}
	return out
}

// less orders numbers numerically and everything else by its printed form
func less(a, b any) bool {
	fa, okA := values.ToFloat(a)
	fb, okB := values.ToFloat(b)
	if okA && okB {
		return fa < fb
	}
	return values.Stringify(a) < values.Stringify(b)
}
