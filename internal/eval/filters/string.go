package filters

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aymerick/raymond"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// Caps on generated text so a template cannot allocate unbounded output
const (
	maxRepeat   = 10000
	maxPadWidth = 10000
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

func stringFilters() []Filter {
	str := func(name, desc string, fn func(s string, args Args) (any, error)) Filter {
		return Filter{
			Name:        name,
			Category:    CategoryString,
			Description: desc,
			Fn: func(value any, args Args) (any, error) {
				return fn(values.Stringify(value), args)
			},
		}
	}

	return []Filter{
		str("upper", "Convert to uppercase", func(s string, _ Args) (any, error) {
			return strings.ToUpper(s), nil
		}),
		str("lower", "Convert to lowercase", func(s string, _ Args) (any, error) {
			return strings.ToLower(s), nil
		}),
		str("capitalize", "Uppercase the first letter and lowercase the rest", func(s string, _ Args) (any, error) {
			return capitalize(s), nil
		}),
		str("title", "Uppercase the first letter of every word", func(s string, _ Args) (any, error) {
			return cases.Title(language.Und).String(s), nil
		}),
		str("trim", "Trim surrounding whitespace", func(s string, _ Args) (any, error) {
			return strings.TrimSpace(s), nil
		}),
		str("trimStart", "Trim leading whitespace", func(s string, _ Args) (any, error) {
			return strings.TrimLeftFunc(s, unicode.IsSpace), nil
		}),
		str("trimEnd", "Trim trailing whitespace", func(s string, _ Args) (any, error) {
			return strings.TrimRightFunc(s, unicode.IsSpace), nil
		}),
		str("truncate", "Cut to n characters and append an optional suffix: truncate(20, '...')", func(s string, args Args) (any, error) {
			n := args.Int(0, 50)
			if n < 0 {
				n = 0
			}
			runes := []rune(s)
			if len(runes) <= n {
				return s, nil
			}
			return string(runes[:n]) + args.String(1, ""), nil
		}),
		str("padStart", "Left-pad to n characters: padStart(5, '0')", func(s string, args Args) (any, error) {
			return pad(s, args.Int(0, 0), args.String(1, " "), true), nil
		}),
		str("padEnd", "Right-pad to n characters: padEnd(5, '.')", func(s string, args Args) (any, error) {
			return pad(s, args.Int(0, 0), args.String(1, " "), false), nil
		}),
		str("replace", "Replace every occurrence: replace('a', 'b')", func(s string, args Args) (any, error) {
			if args.Len() < 1 {
				return nil, fmt.Errorf("replace requires a search string")
			}
			return strings.ReplaceAll(s, args.String(0, ""), args.String(1, "")), nil
		}),
		str("slugify", "Lowercase and join words with dashes", func(s string, _ Args) (any, error) {
			return strings.Trim(nonSlugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-"), nil
		}),
		str("camelCase", "Join words as camelCase", func(s string, _ Args) (any, error) {
			words := splitWords(s)
			for i, w := range words {
				if i == 0 {
					words[i] = strings.ToLower(w)
					continue
				}
				words[i] = capitalize(w)
			}
			return strings.Join(words, ""), nil
		}),
		str("snakeCase", "Join words as snake_case", func(s string, _ Args) (any, error) {
			return strings.ToLower(strings.Join(splitWords(s), "_")), nil
		}),
		str("kebabCase", "Join words as kebab-case", func(s string, _ Args) (any, error) {
			return strings.ToLower(strings.Join(splitWords(s), "-")), nil
		}),
		str("split", "Split into an array: split(',')", func(s string, args Args) (any, error) {
			sep := args.String(0, ",")
			if s == "" {
				return []any{}, nil
			}
			parts := strings.Split(s, sep)
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		}),
		str("repeat", "Repeat n times", func(s string, args Args) (any, error) {
			n := args.Int(0, 1)
			if n < 0 {
				n = 0
			}
			if n > maxRepeat {
				n = maxRepeat
			}
			return strings.Repeat(s, n), nil
		}),
		str("prepend", "Add text before the value", func(s string, args Args) (any, error) {
			return args.String(0, "") + s, nil
		}),
		str("append", "Add text after the value", func(s string, args Args) (any, error) {
			return s + args.String(0, ""), nil
		}),
		str("stripHtml", "Remove HTML tags", func(s string, _ Args) (any, error) {
			return htmlTagPattern.ReplaceAllString(s, ""), nil
		}),
		str("escapeHtml", "Escape HTML special characters", func(s string, _ Args) (any, error) {
			return raymond.Escape(s), nil
		}),
		str("substring", "Characters from start to end: substring(0, 5)", func(s string, args Args) (any, error) {
			runes := []rune(s)
			start := clampIndex(args.Int(0, 0), len(runes))
			end := clampIndex(args.Int(1, len(runes)), len(runes))
			if end < start {
				return "", nil
			}
			return string(runes[start:end]), nil
		}),
		str("wordCount", "Count whitespace separated words", func(s string, _ Args) (any, error) {
			return len(strings.Fields(s)), nil
		}),
		str("startsWith", "Report whether the value starts with a prefix", func(s string, args Args) (any, error) {
			return strings.HasPrefix(s, args.String(0, "")), nil
		}),
		str("endsWith", "Report whether the value ends with a suffix", func(s string, args Args) (any, error) {
			return strings.HasSuffix(s, args.String(0, "")), nil
		}),
		str("urlEncode", "Percent-encode for a URL query", func(s string, _ Args) (any, error) {
			return url.QueryEscape(s), nil
		}),
		str("urlDecode", "Decode a percent-encoded string", func(s string, _ Args) (any, error) {
			out, err := url.QueryUnescape(s)
			if err != nil {
				return nil, fmt.Errorf("invalid url encoding: %w", err)
			}
			return out, nil
		}),
		str("base64Encode", "Encode as standard base64", func(s string, _ Args) (any, error) {
			return base64.StdEncoding.EncodeToString([]byte(s)), nil
		}),
		str("base64Decode", "Decode standard base64", func(s string, _ Args) (any, error) {
			out, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid base64: %w", err)
			}
			return string(out), nil
		}),
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// pad fills s to width runes, at most maxPadWidth
func pad(s string, width int, fill string, left bool) string {
	width = min(width, maxPadWidth)
	length := utf8.RuneCountInString(s)
	if fill == "" || length >= width {
		return s
	}
	var b strings.Builder
	fillRunes := []rune(fill)
	for i := 0; i < width-length; i++ {
		b.WriteRune(fillRunes[i%len(fillRunes)])
	}
	if left {
		return b.String() + s
	}
	return s + b.String()
}

// splitWords breaks on non-alphanumerics and on lower-to-upper case changes
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}
