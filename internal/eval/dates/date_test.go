package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func TestFormat(t *testing.T) {
	tests := []struct {
		pattern  string
		expected string
	}{
		{"yyyy-MM-dd", "2024-03-05"},
		{"YYYY-MM-DD", "2024-03-05"},
		{"yy/M/d", "24/3/5"},
		{"MMMM do, yyyy", "March 5th, 2024"},
		{"EEE MMM d", "Tue Mar 5"},
		{"EEEE", "Tuesday"},
		{"HH:mm:ss", "14:07:09"},
		{"h:mm a", "2:07 PM"},
		{"'Q'Q yyyy", "Q1 2024"},
		{"d 'de' MMMM", "5 de March"},
		{"'it''s' d", "it's 5"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(fixed, tt.pattern))
		})
	}
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "1st", ordinal(1))
	assert.Equal(t, "2nd", ordinal(2))
	assert.Equal(t, "3rd", ordinal(3))
	assert.Equal(t, "11th", ordinal(11))
	assert.Equal(t, "12th", ordinal(12))
	assert.Equal(t, "22nd", ordinal(22))
}

func TestArithmeticIsImmutable(t *testing.T) {
	d := New(fixed)

	next, err := d.Add(1, "days")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", next.String())
	assert.Equal(t, "2024-03-05", d.String())

	prev, err := d.Subtract(1, "M")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-05", prev.String())

	_, err = d.Add(1, "fortnight")
	assert.Error(t, err)
}

func TestStartAndEndOf(t *testing.T) {
	d := NewDateTime(fixed)

	week, err := d.StartOf("week")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03 00:00", week.String())

	month, err := d.EndOf("month")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31 23:59", month.String())

	year, err := d.StartOf("year")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 00:00", year.String())
}

func TestCallMethod(t *testing.T) {
	d := New(fixed)

	assert.True(t, d.HasMethod("format"))
	assert.False(t, d.HasMethod("Time"))

	out, err := d.CallMethod("add", []any{float64(2), "weeks"})
	require.NoError(t, err)
	next, ok := out.(Date)
	require.True(t, ok)
	assert.Equal(t, "2024-03-19", next.String())

	formatted, err := next.CallMethod("format", []any{"dd.MM.yyyy"})
	require.NoError(t, err)
	assert.Equal(t, "19.03.2024", formatted)

	_, err = d.CallMethod("add", []any{"x", "days"})
	assert.Error(t, err)
}

func TestFrom(t *testing.T) {
	d, err := From("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Time().Day())

	d, err = From(fixed)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 14:07", d.String())

	_, err = From("next tuesday")
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	d := New(fixed)
	year, ok := d.Field("year")
	require.True(t, ok)
	assert.Equal(t, 2024, year)

	weekday, ok := d.Field("weekday")
	require.True(t, ok)
	assert.Equal(t, "Tuesday", weekday)

	_, ok = d.Field("nope")
	assert.False(t, ok)
}
