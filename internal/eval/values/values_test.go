package values

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"integral float", float64(3), "3"},
		{"fraction", 3.25, "3.25"},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"array", []any{"a", 1.0, true}, "a, 1, true"},
		{"string slice", []string{"x", "y"}, "x, y"},
		{"map", map[string]any{"a": 1.0}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stringify(tt.input))
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy([]any{}))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy([]any{1}))
	assert.True(t, Truthy(map[string]any{"a": 1}))
	assert.True(t, Truthy(time.Now()))
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat("  12.5 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	f, ok = ToFloat(int32(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, ok = ToFloat("abc")
	assert.False(t, ok)

	_, ok = ToFloat(true)
	assert.False(t, ok)
}

func TestField(t *testing.T) {
	obj := map[string]any{
		"items": []any{"a", "b", "c"},
		"name":  "note",
	}

	v, ok := Field(obj, "name")
	assert.True(t, ok)
	assert.Equal(t, "note", v)

	items, _ := Field(obj, "items")
	v, ok = Field(items, "1")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = Field(items, "-1")
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	v, ok = Field(items, "length")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = Field(items, "9")
	assert.False(t, ok)

	_, ok = Field(obj, "missing")
	assert.False(t, ok)
}

func TestMergeDoesNotMutate(t *testing.T) {
	base := map[string]any{"a": 1, "b": 2}
	merged := Merge(base, map[string]any{"b": 3, "c": 4})

	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, base)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "null", TypeName(nil))
	assert.Equal(t, "string", TypeName("x"))
	assert.Equal(t, "number", TypeName(1.5))
	assert.Equal(t, "boolean", TypeName(false))
	assert.Equal(t, "array", TypeName([]any{}))
	assert.Equal(t, "object", TypeName(map[string]any{}))
	assert.Equal(t, "date", TypeName(time.Now()))
}
