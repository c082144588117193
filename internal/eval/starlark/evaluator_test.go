package starlark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	e := NewEvaluator(0)
	ctx := context.Background()
	vars := map[string]any{
		"name":  "ada",
		"count": 3.0,
		"price": 2.5,
		"tags":  []any{"a", "b"},
		"task":  map[string]any{"title": "Ship"},
	}

	tests := []struct {
		name     string
		expr     string
		expected any
	}{
		{"string method", "name.upper()", "ADA"},
		{"integral float becomes int", "count + 1", int64(4)},
		{"float", "price * 2", 5.0},
		{"list", "len(tags)", int64(2)},
		{"dict", `task["title"]`, "Ship"},
		{"comprehension", "[t + '!' for t in tags]", []any{"a!", "b!"}},
		{"none", "None", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Eval(ctx, tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExec(t *testing.T) {
	e := NewEvaluator(0)
	ctx := context.Background()

	got, err := e.Exec(ctx, `
		total = 0
		for t in tasks:
		    total += t["estimate"]
		return total
	`, map[string]any{"tasks": []any{
		map[string]any{"estimate": 2.0},
		map[string]any{"estimate": 3.0},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = e.Exec(ctx, "x = 1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExecErrors(t *testing.T) {
	e := NewEvaluator(0)
	ctx := context.Background()

	_, err := e.Eval(ctx, "undefined_name", nil)
	assert.Error(t, err)

	_, err = e.Exec(ctx, "return 1 +", nil)
	assert.Error(t, err)
}

func TestStepBudget(t *testing.T) {
	e := NewEvaluator(1000)

	_, err := e.Exec(context.Background(), `
n = 0
for i in range(1000000):
    n += i
return n
`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many steps")
}

func TestCancellation(t *testing.T) {
	e := NewEvaluator(1 << 40)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Exec(ctx, `
n = 0
for i in range(100000000):
    n += i
return n
`, nil)
	assert.Error(t, err)
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "a = 1\nif a:\n    b = 2", dedent("  a = 1\n  if a:\n      b = 2"))
	assert.Equal(t, "if x:\n    y", dedent("if x:\n\ty"))
}
