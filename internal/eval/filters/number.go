package filters

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

func numberFilters() []Filter {
	num := func(name, desc string, fn func(f float64, args Args) (any, error)) Filter {
		return Filter{
			Name:        name,
			Category:    CategoryNumber,
			Description: desc,
			Fn: func(value any, args Args) (any, error) {
				f, err := toNumber(value)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				return fn(f, args)
			},
		}
	}

	return []Filter{
		num("add", "Add a number", func(f float64, args Args) (any, error) {
			return f + args.Float(0, 0), nil
		}),
		num("subtract", "Subtract a number", func(f float64, args Args) (any, error) {
			return f - args.Float(0, 0), nil
		}),
		num("multiply", "Multiply by a number", func(f float64, args Args) (any, error) {
			return f * args.Float(0, 1), nil
		}),
		num("divide", "Divide by a non-zero number", func(f float64, args Args) (any, error) {
			d := args.Float(0, 1)
			if d == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return f / d, nil
		}),
		num("modulo", "Remainder of division by a non-zero number", func(f float64, args Args) (any, error) {
			d := args.Float(0, 1)
			if d == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return math.Mod(f, d), nil
		}),
		num("round", "Round to n decimals: round(2)", func(f float64, args Args) (any, error) {
			return roundTo(f, clampDecimals(args.Int(0, 0))), nil
		}),
		num("floor", "Round down", func(f float64, _ Args) (any, error) {
			return math.Floor(f), nil
		}),
		num("ceil", "Round up", func(f float64, _ Args) (any, error) {
			return math.Ceil(f), nil
		}),
		num("abs", "Absolute value", func(f float64, _ Args) (any, error) {
			return math.Abs(f), nil
		}),
		num("clamp", "Limit to a range: clamp(0, 100)", func(f float64, args Args) (any, error) {
			lo := args.Float(0, math.Inf(-1))
			hi := args.Float(1, math.Inf(1))
			if lo > hi {
				lo, hi = hi, lo
			}
			return math.Max(lo, math.Min(hi, f)), nil
		}),
		num("toFixed", "Format with exactly n decimals: toFixed(2)", func(f float64, args Args) (any, error) {
			return strconv.FormatFloat(f, 'f', clampDecimals(args.Int(0, 2)), 64), nil
		}),
		num("percent", "Format a ratio as a percentage: percent(1)", func(f float64, args Args) (any, error) {
			return strconv.FormatFloat(f*100, 'f', clampDecimals(args.Int(0, 0)), 64) + "%", nil
		}),
		num("formatNumber", "Group digits for a locale: formatNumber(2, 'de')", func(f float64, args Args) (any, error) {
			tag, err := language.Parse(args.String(1, "en"))
			if err != nil {
				tag = language.English
			}
			p := message.NewPrinter(tag)
			return p.Sprintf("%.*f", clampDecimals(args.Int(0, 0)), f), nil
		}),
	}
}

// toNumber coerces empty values to zero and rejects non-numeric text
func toNumber(value any) (float64, error) {
	if value == nil || value == "" {
		return 0, nil
	}
	if b, ok := value.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	f, ok := values.ToFloat(value)
	if !ok {
		return 0, fmt.Errorf("%q is not a number", values.Stringify(value))
	}
	return f, nil
}

func clampDecimals(d int) int {
	if d < 0 {
		return 0
	}
	if d > 10 {
		return 10
	}
	return d
}

func roundTo(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}
