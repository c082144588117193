// Package dates provides the date adapter used by templates.
//
// A Date is immutable and exposes a fixed set of chainable operations that the
// template resolver may call from a dotted path:
//
//	{{today.add(1, 'week').startOf('week').format('EEEE, MMMM do')}}
//
// Supported operations:
//   - format(pattern) - Render with a yyyy/MM/dd/HH/mm token pattern
//   - add(n, unit) - Move forward by n units
//   - subtract(n, unit) - Move back by n units
//   - startOf(unit) - Truncate to the beginning of a unit
//   - endOf(unit) - Move to the last instant of a unit
//
// Units: year, quarter, month (M), week, day, hour, minute (m), second.
package dates
