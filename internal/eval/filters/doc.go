// Package filters provides the filter catalog applied by template placeholders.
//
// A filter is a pure function of a value and an argument bag. Filters are chained
// left to right with the pipe operator:
//
//	{{title | trim | truncate(20, '...') | upper}}
//	{{price | multiply(1.2) | toFixed(2)}}
//	{{tasks | where('status', 'done') | pluck('title') | join(', ')}}
//
// Registries are constructed values, not globals, so independent engines can carry
// different filter sets:
//
//	registry := filters.NewDefaultRegistry()
//	registry.MustRegister(filters.Filter{
//	    Name:     "shout",
//	    Category: filters.CategoryString,
//	    Fn: func(v any, _ filters.Args) (any, error) {
//	        return strings.ToUpper(values.Stringify(v)) + "!", nil
//	    },
//	})
//
// Built-in categories:
//   - string - upper, lower, capitalize, title, trim, truncate, padStart, replace, slugify, ...
//   - array - join, first, last, sort, unique, pluck, where, sum, avg, flatten, ...
//   - number - add, subtract, multiply, divide, round, clamp, toFixed, formatNumber, ...
//   - date - date, dateAdd, dateSubtract, startOf, endOf, timeAgo
//   - object - keys, values, get, has, json, toYaml, jsonpath, ...
//   - utility - default, ifEmpty, string, number, boolean, typeof
//
// Filters fall back to a sane result where one exists (indexes are clamped, empty
// values coerce to zero) and return an error only when they cannot proceed.
package filters
