package filters

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, r *Registry, name string, value any, args ...any) any {
	t.Helper()
	out, err := r.Apply(name, value, NewArgs(args...))
	require.NoError(t, err, "filter %s", name)
	return out
}

func TestStringFilters(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name     string
		filter   string
		value    any
		args     []any
		expected any
	}{
		{"upper", "upper", "hello", nil, "HELLO"},
		{"lower", "lower", "HeLLo", nil, "hello"},
		{"capitalize lowers the rest", "capitalize", "hELLO world", nil, "Hello world"},
		{"title", "title", "hello big world", nil, "Hello Big World"},
		{"trim", "trim", "  x  ", nil, "x"},
		{"truncate without suffix", "truncate", "hello", []any{3.0}, "hel"},
		{"truncate with suffix", "truncate", "hello", []any{3.0, "..."}, "hel..."},
		{"truncate short input", "truncate", "hi", []any{3.0}, "hi"},
		{"truncate negative clamps", "truncate", "hi", []any{-4.0}, ""},
		{"padStart", "padStart", "7", []any{3.0, "0"}, "007"},
		{"padEnd", "padEnd", "ab", []any{4.0, "."}, "ab.."},
		{"replace all", "replace", "a-b-c", []any{"-", "+"}, "a+b+c"},
		{"slugify", "slugify", "Hello, World! 2024", nil, "hello-world-2024"},
		{"camelCase", "camelCase", "meeting notes draft", nil, "meetingNotesDraft"},
		{"snakeCase", "snakeCase", "meetingNotes draft", nil, "meeting_notes_draft"},
		{"kebabCase", "kebabCase", "Meeting Notes", nil, "meeting-notes"},
		{"repeat", "repeat", "ab", []any{3.0}, "ababab"},
		{"stripHtml", "stripHtml", "<b>bold</b> text", nil, "bold text"},
		{"escapeHtml", "escapeHtml", `<a href="x">`, nil, "&lt;a href=&quot;x&quot;&gt;"},
		{"substring", "substring", "template", []any{0.0, 4.0}, "temp"},
		{"substring clamps", "substring", "abc", []any{1.0, 99.0}, "bc"},
		{"wordCount", "wordCount", "one two  three", nil, 3},
		{"urlEncode", "urlEncode", "a b&c", nil, "a+b%26c"},
		{"base64Encode", "base64Encode", "hi", nil, "aGk="},
		{"base64Decode", "base64Decode", "aGk=", nil, "hi"},
		{"prepend", "prepend", "world", []any{"hello "}, "hello world"},
		{"append", "append", "note", []any{".md"}, "note.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apply(t, r, tt.filter, tt.value, tt.args...))
		})
	}
}

func TestGeneratedTextIsCapped(t *testing.T) {
	r := NewDefaultRegistry()

	padded := apply(t, r, "padStart", "x", 2e9, "0").(string)
	assert.Len(t, padded, maxPadWidth)
	assert.Equal(t, "x", padded[len(padded)-1:])

	padded = apply(t, r, "padEnd", "x", 2e9, "ab").(string)
	assert.Len(t, padded, maxPadWidth)
	assert.Equal(t, "xab", padded[:3])

	assert.Len(t, apply(t, r, "repeat", "a", 1e9), maxRepeat)
}

func TestArrayFilters(t *testing.T) {
	r := NewDefaultRegistry()
	tasks := []any{
		map[string]any{"title": "b", "status": "done", "points": 3.0},
		map[string]any{"title": "a", "status": "open", "points": 5.0},
		map[string]any{"title": "c", "status": "done", "points": 1.0},
	}

	assert.Equal(t, "a; b", apply(t, r, "join", []any{"a", "b"}, "; "))
	assert.Equal(t, "a, b", apply(t, r, "join", []any{"a", "b"}))
	assert.Equal(t, "x", apply(t, r, "first", []any{"x", "y"}))
	assert.Equal(t, "y", apply(t, r, "last", []any{"x", "y"}))
	assert.Nil(t, apply(t, r, "first", []any{}))
	assert.Equal(t, []any{"c", "b", "a"}, apply(t, r, "reverse", []any{"a", "b", "c"}))
	assert.Equal(t, "cba", apply(t, r, "reverse", "abc"))
	assert.Equal(t, []any{1.0, 2.0, 10.0}, apply(t, r, "sort", []any{10.0, 2.0, 1.0}))
	assert.Equal(t, []any{"a", "b"}, apply(t, r, "unique", []any{"a", "b", "a"}))
	assert.Equal(t, []any{"a"}, apply(t, r, "compact", []any{"a", nil, ""}))
	assert.Equal(t, []any{"b", "c"}, apply(t, r, "slice", []any{"a", "b", "c"}, 1.0))
	assert.Equal(t, []any{"b", "a", "c"}, apply(t, r, "pluck", tasks, "title"))
	assert.Equal(t, 3, apply(t, r, "length", tasks))
	assert.Equal(t, 9.0, apply(t, r, "sum", apply(t, r, "pluck", tasks, "points")))
	assert.Equal(t, 1.0, apply(t, r, "min", []any{3.0, 1.0, "x"}))
	assert.Equal(t, 3.0, apply(t, r, "max", []any{3.0, 1.0}))
	assert.Equal(t, 2.0, apply(t, r, "avg", []any{1.0, 3.0}))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, apply(t, r, "flatten", []any{1.0, []any{2.0, []any{3.0}}}))
	assert.Equal(t, true, apply(t, r, "includes", []any{"a", "b"}, "b"))
	assert.Equal(t, false, apply(t, r, "includes", "abc", "z"))

	done := apply(t, r, "where", tasks, "status", "done")
	assert.Equal(t, []any{"b", "c"}, apply(t, r, "pluck", done, "title"))

	sorted := apply(t, r, "sort", tasks, "title")
	assert.Equal(t, []any{"a", "b", "c"}, apply(t, r, "pluck", sorted, "title"))
}

func TestNumberFilters(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, 8.0, apply(t, r, "add", 3.0, 5.0))
	assert.Equal(t, 8.0, apply(t, r, "add", "3", 5.0))
	assert.Equal(t, -2.0, apply(t, r, "subtract", 3.0, 5.0))
	assert.Equal(t, 6.0, apply(t, r, "multiply", 3, 2.0))
	assert.Equal(t, 1.5, apply(t, r, "divide", 3.0, 2.0))
	assert.Equal(t, 1.0, apply(t, r, "modulo", 7.0, 3.0))
	assert.Equal(t, 3.14, apply(t, r, "round", 3.14159, 2.0))
	assert.Equal(t, 3.0, apply(t, r, "floor", 3.9))
	assert.Equal(t, 4.0, apply(t, r, "ceil", 3.1))
	assert.Equal(t, 2.0, apply(t, r, "abs", -2.0))
	assert.Equal(t, 10.0, apply(t, r, "clamp", 42.0, 0.0, 10.0))
	assert.Equal(t, "2.50", apply(t, r, "toFixed", 2.5))
	assert.Equal(t, "45%", apply(t, r, "percent", 0.45))
	assert.Equal(t, "1,234,567", apply(t, r, "formatNumber", 1234567.0))
	assert.Equal(t, 5.0, apply(t, r, "add", nil, 5.0))

	_, err := r.Apply("divide", 1.0, NewArgs(0.0))
	assert.Error(t, err)

	_, err = r.Apply("add", "abc", NewArgs(1.0))
	assert.Error(t, err)
}

func TestFilterOrderMatters(t *testing.T) {
	r := NewDefaultRegistry()

	a := apply(t, r, "multiply", apply(t, r, "add", 3.0, 5.0), 2.0)
	b := apply(t, r, "add", apply(t, r, "multiply", 3.0, 2.0), 5.0)

	assert.Equal(t, 16.0, a)
	assert.Equal(t, 11.0, b)
}

func TestDateFilters(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, "March 5th, 2024", apply(t, r, "date", "2024-03-05", "MMMM do, yyyy"))
	assert.Equal(t, "2024-03-08", apply(t, r, "date", apply(t, r, "dateAdd", "2024-03-05", 3.0, "days")))
	assert.Equal(t, "2024-03-01", apply(t, r, "date", apply(t, r, "startOf", "2024-03-05", "month")))
	assert.Equal(t, "2024-03-31", apply(t, r, "date", apply(t, r, "endOf", "2024-03-05", "month")))

	_, err := r.Apply("date", "someday", NewArgs())
	assert.Error(t, err)
}

func TestTimeAgo(t *testing.T) {
	ref := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	original := now
	now = func() time.Time { return ref }
	defer func() { now = original }()

	r := NewDefaultRegistry()
	assert.Equal(t, "3 days ago", apply(t, r, "timeAgo", ref.Add(-72*time.Hour)))
	assert.Equal(t, "in 2 hours", apply(t, r, "timeAgo", ref.Add(2*time.Hour)))
	assert.Equal(t, "just now", apply(t, r, "timeAgo", ref))
}

func TestObjectFilters(t *testing.T) {
	r := NewDefaultRegistry()
	note := map[string]any{
		"title":  "Plan",
		"author": map[string]any{"name": "Sam"},
		"tags":   []any{"a", "b"},
	}

	assert.Equal(t, []any{"author", "tags", "title"}, apply(t, r, "keys", note))
	assert.Equal(t, "Sam", apply(t, r, "get", note, "author.name"))
	assert.Equal(t, true, apply(t, r, "has", note, "tags"))
	assert.Equal(t, `{"a":1}`, apply(t, r, "json", map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"a": 1.0}, apply(t, r, "fromJson", `{"a":1}`))
	assert.Equal(t, "a: 1", apply(t, r, "toYaml", map[string]any{"a": 1}))
	assert.Equal(t, "Sam", apply(t, r, "jsonpath", note, "$.author.name"))
	assert.Equal(t, []any{"a", "b"}, apply(t, r, "jsonpath", note, "$.tags[*]"))

	_, err := r.Apply("fromJson", "{", NewArgs())
	assert.Error(t, err)
}

func TestUtilityFilters(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, "n/a", apply(t, r, "default", "", "n/a"))
	assert.Equal(t, "x", apply(t, r, "default", "x", "n/a"))
	assert.Equal(t, "none", apply(t, r, "ifEmpty", []any{}, "none"))
	assert.Equal(t, 0.0, apply(t, r, "number", "abc"))
	assert.Equal(t, true, apply(t, r, "boolean", "yes"))
	assert.Equal(t, "array", apply(t, r, "typeof", []any{}))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Apply("upper", "x", NewArgs())
	assert.True(t, errors.Is(err, ErrUnknownFilter))

	assert.Error(t, r.Register(Filter{Name: ""}))
	assert.Error(t, r.Register(Filter{Name: "nofn"}))

	require.NoError(t, r.Register(Filter{
		Name:     "twice",
		Category: CategoryUtility,
		Fn: func(v any, _ Args) (any, error) {
			return v.(string) + v.(string), nil
		},
	}))
	assert.Equal(t, "abab", apply(t, r, "twice", "ab"))

	clone := r.Clone()
	clone.MustRegister(Filter{Name: "only-in-clone", Fn: func(v any, _ Args) (any, error) { return v, nil }})
	_, ok := r.Lookup("only-in-clone")
	assert.False(t, ok)

	cats := NewDefaultRegistry().Categories()
	assert.Contains(t, cats[CategoryString], "upper")
	assert.Contains(t, cats[CategoryNumber], "add")
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(`3, 'a,b', true, null, sep="-", bare`)
	require.NoError(t, err)

	assert.Equal(t, []any{3.0, "a,b", true, nil, "bare"}, args.Positional)
	assert.Equal(t, map[string]any{"sep": "-"}, args.Named)

	args, err = ParseArgs(`"it\"s", 'x == y'`)
	require.NoError(t, err)
	assert.Equal(t, []any{`it"s`, "x == y"}, args.Positional)

	_, err = ParseArgs(`'open`)
	assert.Error(t, err)

	args, err = ParseArgs("  ")
	require.NoError(t, err)
	assert.Equal(t, 0, args.Len())
}

func TestSplitTopLevel(t *testing.T) {
	parts, err := SplitTopLevel(`a(1, 2), "x,y", b`, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"a(1, 2)", ` "x,y"`, " b"}, parts)

	_, err = SplitTopLevel("a(1", ',')
	assert.Error(t, err)
}
