package filters

import (
	"fmt"
	"math"
	"time"

	"github.com/aescanero/dago-node-template/internal/eval/dates"
)

// now is the reference time for timeAgo
var now = time.Now

func dateFilters() []Filter {
	date := func(name, desc string, fn func(d dates.Date, args Args) (any, error)) Filter {
		return Filter{
			Name:        name,
			Category:    CategoryDate,
			Description: desc,
			Fn: func(value any, args Args) (any, error) {
				d, err := dates.From(value)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				return fn(d, args)
			},
		}
	}

	return []Filter{
		date("date", "Format a date: date('MMMM do, yyyy')", func(d dates.Date, args Args) (any, error) {
			return d.Format(args.String(0, dates.DateLayout)), nil
		}),
		date("dateAdd", "Move a date forward: dateAdd(3, 'days')", func(d dates.Date, args Args) (any, error) {
			return d.Add(args.Int(0, 0), args.String(1, "days"))
		}),
		date("dateSubtract", "Move a date back: dateSubtract(1, 'week')", func(d dates.Date, args Args) (any, error) {
			return d.Subtract(args.Int(0, 0), args.String(1, "days"))
		}),
		date("startOf", "Beginning of a unit: startOf('month')", func(d dates.Date, args Args) (any, error) {
			return d.StartOf(args.String(0, "day"))
		}),
		date("endOf", "End of a unit: endOf('month')", func(d dates.Date, args Args) (any, error) {
			return d.EndOf(args.String(0, "day"))
		}),
		date("timeAgo", "Describe a date relative to now", func(d dates.Date, _ Args) (any, error) {
			return relative(now().Sub(d.Time())), nil
		}),
	}
}

func relative(diff time.Duration) string {
	future := diff < 0
	diff = time.Duration(math.Abs(float64(diff)))

	var amount int
	var unit string
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		amount, unit = int(diff/time.Minute), "minute"
	case diff < 24*time.Hour:
		amount, unit = int(diff/time.Hour), "hour"
	case diff < 30*24*time.Hour:
		amount, unit = int(diff/(24*time.Hour)), "day"
	case diff < 365*24*time.Hour:
		amount, unit = int(diff/(30*24*time.Hour)), "month"
	default:
		amount, unit = int(diff/(365*24*time.Hour)), "year"
	}
	if amount != 1 {
		unit += "s"
	}
	if future {
		return fmt.Sprintf("in %d %s", amount, unit)
	}
	return fmt.Sprintf("%d %s ago", amount, unit)
}
