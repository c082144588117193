package filters

import (
	"github.com/aescanero/dago-node-template/internal/eval/values"
)

func utilityFilters() []Filter {
	util := func(name, desc string, fn Func) Filter {
		return Filter{Name: name, Category: CategoryUtility, Description: desc, Fn: fn}
	}

	return []Filter{
		util("default", "Fallback for null or empty values: default('n/a')", func(value any, args Args) (any, error) {
			if value == nil || value == "" {
				fallback, _ := args.At(0)
				return fallback, nil
			}
			return value, nil
		}),
		util("ifEmpty", "Fallback for any falsy value", func(value any, args Args) (any, error) {
			if !values.Truthy(value) {
				fallback, _ := args.At(0)
				return fallback, nil
			}
			return value, nil
		}),
		util("string", "Convert to text", func(value any, _ Args) (any, error) {
			return values.Stringify(value), nil
		}),
		util("number", "Convert to a number, 0 when not numeric", func(value any, _ Args) (any, error) {
			f, ok := values.ToFloat(value)
			if !ok {
				return 0.0, nil
			}
			return f, nil
		}),
		util("boolean", "Convert to true or false", func(value any, _ Args) (any, error) {
			return values.Truthy(value), nil
		}),
		util("typeof", "Name the value's type", func(value any, _ Args) (any, error) {
			return values.TypeName(value), nil
		}),
	}
}
