package dates

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Format renders t with a date pattern. Runs of the same letter form a token:
//
//	yyyy yy       year
//	MMMM MMM MM M month name, short name, padded, number
//	dd d do       day of month, padded, plain, ordinal (1st)
//	EEEE EEE      weekday name, short name
//	HH H hh h     24h and 12h hours
//	mm m ss s     minutes and seconds
//	SSS           milliseconds
//	a             AM/PM
//	Q             quarter
//
// Y and D are accepted as y and d. Text inside single quotes is copied verbatim,
// and any other character passes through unchanged.
func Format(t time.Time, pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		ch := runes[i]

		if ch == '\'' {
			j := i + 1
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						b.WriteRune('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			if j == i+1 && j < len(runes) {
				// '' outside a literal is an escaped quote
				b.WriteRune('\'')
			}
			i = j + 1
			continue
		}

		if !unicode.IsLetter(ch) {
			b.WriteRune(ch)
			i++
			continue
		}

		j := i
		for j < len(runes) && runes[j] == ch {
			j++
		}
		count := j - i

		if (ch == 'd' || ch == 'D') && count == 1 && j < len(runes) && runes[j] == 'o' {
			b.WriteString(ordinal(t.Day()))
			i = j + 1
			continue
		}

		b.WriteString(token(t, ch, count))
		i = j
	}

	return b.String()
}

func token(t time.Time, ch rune, count int) string {
	switch ch {
	case 'y', 'Y':
		if count == 2 {
			return pad(t.Year()%100, 2)
		}
		return strconv.Itoa(t.Year())
	case 'M':
		switch {
		case count >= 4:
			return t.Month().String()
		case count == 3:
			return t.Month().String()[:3]
		case count == 2:
			return pad(int(t.Month()), 2)
		}
		return strconv.Itoa(int(t.Month()))
	case 'd', 'D':
		if count >= 2 {
			return pad(t.Day(), 2)
		}
		return strconv.Itoa(t.Day())
	case 'E':
		if count >= 4 {
			return t.Weekday().String()
		}
		return t.Weekday().String()[:3]
	case 'H':
		return pad(t.Hour(), count)
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, count)
	case 'm':
		return pad(t.Minute(), count)
	case 's':
		return pad(t.Second(), count)
	case 'S':
		ms := t.Nanosecond() / int(time.Millisecond)
		return pad(ms, 3)[:min(count, 3)]
	case 'a', 'A':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'Q':
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	}
	return strings.Repeat(string(ch), count)
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
