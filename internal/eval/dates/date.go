package dates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

const (
	// DateLayout is the pattern a date-only value prints with.
	DateLayout = "yyyy-MM-dd"
	// DateTimeLayout is the pattern a date-and-time value prints with.
	DateTimeLayout = "yyyy-MM-dd HH:mm"
)

// WeekStart is the first day of a week for StartOf("week").
const WeekStart = time.Sunday

// Date is an immutable date value. Every operation returns a new Date.
type Date struct {
	t      time.Time
	layout string
}

// New wraps t as a date-only value.
func New(t time.Time) Date {
	return Date{t: t, layout: DateLayout}
}

// NewDateTime wraps t as a value that prints with its time of day.
func NewDateTime(t time.Time) Date {
	return Date{t: t, layout: DateTimeLayout}
}

var parseLayouts = []struct {
	layout   string
	withTime bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
	{"2006/01/02", false},
}

// Parse reads ISO-like date strings.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, l := range parseLayouts {
		t, err := time.ParseInLocation(l.layout, s, time.Local)
		if err != nil {
			continue
		}
		if l.withTime {
			return NewDateTime(t), nil
		}
		return New(t), nil
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// From converts dates, times, ISO strings and unix timestamps (seconds) to a Date.
func From(v any) (Date, error) {
	switch t := v.(type) {
	case Date:
		return t, nil
	case time.Time:
		return NewDateTime(t), nil
	case string:
		return Parse(t)
	}
	if f, ok := values.ToFloat(v); ok {
		return NewDateTime(time.Unix(int64(f), 0)), nil
	}
	return Date{}, fmt.Errorf("cannot use %T as a date", v)
}

// Time returns the underlying time.
func (d Date) Time() time.Time {
	return d.t
}

// String formats the date with its default layout.
func (d Date) String() string {
	return Format(d.t, d.layout)
}

// MarshalJSON encodes the date as its printed form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Format renders the date with a yyyy/MM/dd style pattern.
func (d Date) Format(pattern string) string {
	return Format(d.t, pattern)
}

// Add moves the date forward by n units.
func (d Date) Add(n int, unit string) (Date, error) {
	u, err := normalizeUnit(unit)
	if err != nil {
		return d, err
	}
	var t time.Time
	switch u {
	case unitYear:
		t = d.t.AddDate(n, 0, 0)
	case unitQuarter:
		t = d.t.AddDate(0, 3*n, 0)
	case unitMonth:
		t = d.t.AddDate(0, n, 0)
	case unitWeek:
		t = d.t.AddDate(0, 0, 7*n)
	case unitDay:
		t = d.t.AddDate(0, 0, n)
	case unitHour:
		t = d.t.Add(time.Duration(n) * time.Hour)
	case unitMinute:
		t = d.t.Add(time.Duration(n) * time.Minute)
	case unitSecond:
		t = d.t.Add(time.Duration(n) * time.Second)
	}
	return Date{t: t, layout: d.layout}, nil
}

// Subtract moves the date back by n units.
func (d Date) Subtract(n int, unit string) (Date, error) {
	return d.Add(-n, unit)
}

// StartOf truncates the date to the beginning of the unit.
func (d Date) StartOf(unit string) (Date, error) {
	u, err := normalizeUnit(unit)
	if err != nil {
		return d, err
	}
	t := d.t
	loc := t.Location()
	switch u {
	case unitYear:
		t = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case unitQuarter:
		m := time.Month((int(t.Month())-1)/3*3 + 1)
		t = time.Date(t.Year(), m, 1, 0, 0, 0, 0, loc)
	case unitMonth:
		t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case unitWeek:
		back := (int(t.Weekday()) - int(WeekStart) + 7) % 7
		t = time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, loc)
	case unitDay:
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case unitHour:
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case unitMinute:
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	case unitSecond:
		t = t.Truncate(time.Second)
	}
	return Date{t: t, layout: d.layout}, nil
}

// EndOf moves the date to the last instant of the unit.
func (d Date) EndOf(unit string) (Date, error) {
	start, err := d.StartOf(unit)
	if err != nil {
		return d, err
	}
	next, err := start.Add(1, unit)
	if err != nil {
		return d, err
	}
	return Date{t: next.t.Add(-time.Nanosecond), layout: d.layout}, nil
}

// Field exposes read-only properties for dotted access such as date.year.
func (d Date) Field(name string) (any, bool) {
	switch name {
	case "year":
		return d.t.Year(), true
	case "month":
		return int(d.t.Month()), true
	case "day":
		return d.t.Day(), true
	case "hour":
		return d.t.Hour(), true
	case "minute":
		return d.t.Minute(), true
	case "weekday":
		return d.t.Weekday().String(), true
	case "iso":
		return d.t.Format(time.RFC3339), true
	case "timestamp":
		return d.t.Unix(), true
	}
	return nil, false
}

var methods = map[string]bool{
	"format":   true,
	"add":      true,
	"subtract": true,
	"startOf":  true,
	"endOf":    true,
}

// HasMethod reports whether name is one of the chainable operations.
func (d Date) HasMethod(name string) bool {
	return methods[name]
}

// CallMethod invokes a chainable operation with positional template arguments.
func (d Date) CallMethod(name string, args []any) (any, error) {
	switch name {
	case "format":
		pattern := d.layout
		if len(args) > 0 {
			pattern = values.Stringify(args[0])
		}
		return d.Format(pattern), nil
	case "add", "subtract":
		if len(args) < 2 {
			return nil, fmt.Errorf("%s requires an amount and a unit", name)
		}
		n, ok := values.ToFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("%s: amount %v is not a number", name, args[0])
		}
		if name == "subtract" {
			return d.Subtract(int(n), values.Stringify(args[1]))
		}
		return d.Add(int(n), values.Stringify(args[1]))
	case "startOf", "endOf":
		if len(args) < 1 {
			return nil, fmt.Errorf("%s requires a unit", name)
		}
		if name == "endOf" {
			return d.EndOf(values.Stringify(args[0]))
		}
		return d.StartOf(values.Stringify(args[0]))
	}
	return nil, fmt.Errorf("date has no method %q", name)
}

type unit int

const (
	unitYear unit = iota
	unitQuarter
	unitMonth
	unitWeek
	unitDay
	unitHour
	unitMinute
	unitSecond
)

func normalizeUnit(s string) (unit, error) {
	switch strings.TrimSpace(s) {
	case "M", "month", "months", "Month", "Months":
		return unitMonth, nil
	case "m", "minute", "minutes", "Minute", "Minutes":
		return unitMinute, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "year", "years":
		return unitYear, nil
	case "q", "quarter", "quarters":
		return unitQuarter, nil
	case "w", "week", "weeks", "isoweek":
		return unitWeek, nil
	case "d", "day", "days", "date":
		return unitDay, nil
	case "h", "hour", "hours":
		return unitHour, nil
	case "s", "second", "seconds":
		return unitSecond, nil
	}
	return 0, fmt.Errorf("unknown date unit %q", s)
}
