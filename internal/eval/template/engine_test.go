package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/builtins"
	"github.com/aescanero/dago-node-template/internal/eval/script"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
}

func newTestEngine(templates map[string]string, opts ...Option) *Engine {
	base := []Option{
		WithCatalog(catalog.NewMemoryFromMap(templates)),
		WithBuiltins(builtins.NewDefaultRegistry(fixedClock)),
	}
	return New(append(base, opts...)...)
}

func render(t *testing.T, e *Engine, content string, vars map[string]any) string {
	t.Helper()
	res, err := e.Process(context.Background(), content, vars)
	require.NoError(t, err)
	return res.Content
}

func TestProcess(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		name     string
		content  string
		vars     map[string]any
		expected string
	}{
		{"no directives", "Just some text.\n", nil, "Just some text.\n"},
		{"simple placeholder", "Hello {{name}}!", map[string]any{"name": "Ada"}, "Hello Ada!"},
		{"whitespace inside braces", "{{  name  }}", map[string]any{"name": "Ada"}, "Ada"},
		{"dotted path", "{{user.profile.city}}", map[string]any{
			"user": map[string]any{"profile": map[string]any{"city": "Paris"}},
		}, "Paris"},
		{"array index", "{{tags[1]}} {{tags.0}}", map[string]any{"tags": []any{"a", "b"}}, "b a"},
		{"array printed", "{{tags}}", map[string]any{"tags": []any{"a", "b"}}, "a, b"},
		{"map printed", "{{meta}}", map[string]any{"meta": map[string]any{"k": "v"}}, `{"k":"v"}`},
		{"number printed", "{{n}}", map[string]any{"n": 3.0}, "3"},
		{"default for missing", `{{missing || "N/A"}}`, nil, "N/A"},
		{"default ignored when present", `{{present || "N/A"}}`, map[string]any{"present": "X"}, "X"},
		{"default for null", `{{v || 'none'}}`, map[string]any{"v": nil}, "none"},
		{"default keeps empty string", `{{v || 'none'}}`, map[string]any{"v": ""}, ""},
		{"unquoted numeric default", `{{count || 0}}`, nil, "0"},
		{"filter on default", `{{missing || "n/a" | upper}}`, nil, "N/A"},
		{"filter before default", `{{missing | upper || "n/a"}}`, nil, "N/A"},
		{"default filter handles missing", `{{missing | default("n/a")}}`, nil, "n/a"},
		{"literal head", `{{"hello" | upper}}`, nil, "HELLO"},
		{"filter chain", "{{name | upper | truncate(3)}}", map[string]any{"name": "hello"}, "HEL"},
		{"add then multiply", "{{n | add(5) | multiply(2)}}", map[string]any{"n": 3}, "16"},
		{"multiply then add", "{{n | multiply(2) | add(5)}}", map[string]any{"n": 3}, "11"},
		{"pipe inside quoted argument", `{{items | join(" | ")}}`, map[string]any{"items": []any{"a", "b"}}, "a | b"},
		{"nested resolution", "{{greeting}}", map[string]any{"greeting": "Hello {{name}}", "name": "Ada"}, "Hello Ada"},
		{"comment stripped", "a<%# hidden {{missing}} %>b", nil, "ab"},
		{"blank placeholder kept", "{{ }} and {{}}", nil, "{{ }} and {{}}"},
		{"builtin", "{{today}}", nil, "2024-03-05"},
		{"caller shadows builtin", "{{today}}", map[string]any{"today": "someday"}, "someday"},
		{"builtin field", "{{today.year}}", nil, "2024"},
		{"method call", "{{today.format('dd/MM/yyyy')}}", nil, "05/03/2024"},
		{"chained method calls", "{{today.add(1, 'd').format('EEEE')}}", nil, "Wednesday"},
		{"method with dots in argument", "{{now.format('HH.mm')}}", nil, "09.30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, e, tt.content, tt.vars))
		})
	}
}

func TestProcessIsIdempotentOnceResolved(t *testing.T) {
	e := newTestEngine(nil)
	vars := map[string]any{"title": "Plan", "owner": map[string]any{"name": "Ada"}}

	first := render(t, e, "# {{title | upper}} by {{owner.name}}", vars)
	second := render(t, e, first, vars)
	assert.Equal(t, first, second)
	assert.NotContains(t, second, "{{")
}

func TestProcessDoesNotModifyVariables(t *testing.T) {
	e := newTestEngine(map[string]string{"child": "{{kind}}"})
	vars := map[string]any{"kind": "outer", "items": []any{"x"}}

	out := render(t, e, `{{include:child:kind="inner"}} {{#each items as kind}}{{kind}}{{/each}} {{kind}}`, vars)
	assert.Equal(t, "inner x outer", out)
	assert.Equal(t, map[string]any{"kind": "outer", "items": []any{"x"}}, vars)
}

func TestConditionals(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		name     string
		content  string
		vars     map[string]any
		expected string
	}{
		{"equality true", `{{#if x == "Done"}}Y{{else}}N{{/if}}`, map[string]any{"x": "Done"}, "Y"},
		{"equality false", `{{#if x == "Done"}}Y{{else}}N{{/if}}`, map[string]any{"x": "Pending"}, "N"},
		{"no else emits nothing", `[{{#if x}}Y{{/if}}]`, nil, "[]"},
		{"truthy variable", `{{#if tags}}has tags{{/if}}`, map[string]any{"tags": []any{"a"}}, "has tags"},
		{"empty array is falsy", `{{#if tags}}has tags{{else}}none{{/if}}`, map[string]any{"tags": []any{}}, "none"},
		{"numeric coercion", `{{#if count > 5}}many{{/if}}`, map[string]any{"count": "10"}, "many"},
		{"loose number equality", `{{#if n == "3"}}eq{{/if}}`, map[string]any{"n": 3}, "eq"},
		{"strict equality checks type", `{{#if n === "3"}}eq{{else}}ne{{/if}}`, map[string]any{"n": 3}, "ne"},
		{"else if chain", `{{#if n > 10}}big{{else if n > 5}}mid{{else}}small{{/if}}`, map[string]any{"n": 7}, "mid"},
		{"logical operators", `{{#if a && (b || !c)}}ok{{/if}}`, map[string]any{"a": true, "b": false, "c": false}, "ok"},
		{"word operators", `{{#if a and not b}}ok{{/if}}`, map[string]any{"a": true, "b": false}, "ok"},
		{"missing variable is false", `{{#if missing}}Y{{else}}N{{/if}}`, nil, "N"},
		{"missing compared to null", `{{#if missing == null}}Y{{/if}}`, nil, "Y"},
		{"nested blocks", `{{#if a}}A{{#if b}}B{{else}}b{{/if}}{{else}}none{{/if}}`, map[string]any{"a": true, "b": false}, "Ab"},
		{"path with method call", `{{#if today.format('yyyy') == "2024"}}this year{{/if}}`, nil, "this year"},
		{"branch placeholders resolve", `{{#if user}}Hi {{user.name}}{{/if}}`, map[string]any{"user": map[string]any{"name": "Ada"}}, "Hi Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, e, tt.content, tt.vars))
		})
	}
}

func TestLoops(t *testing.T) {
	e := newTestEngine(nil)

	tasks := []any{
		map[string]any{"name": "Ship", "done": true, "estimate": 2.0},
		map[string]any{"name": "Plan", "done": false, "estimate": 1.5},
	}

	tests := []struct {
		name     string
		content  string
		vars     map[string]any
		expected string
	}{
		{"this", "{{#each items}}{{this}} {{/each}}", map[string]any{"items": []any{"a", "b", "c"}}, "a b c "},
		{"index", "{{#each items}}{{@index}}:{{this}} {{/each}}", map[string]any{"items": []any{"a", "b"}}, "0:a 1:b "},
		{"index arithmetic", "{{#each items}}{{@index + 1}}. {{this}}\n{{/each}}", map[string]any{"items": []any{"a", "b"}}, "1. a\n2. b\n"},
		{"first and last", "{{#each items}}{{#if @first}}[{{/if}}{{this}}{{#if @last}}]{{else}},{{/if}}{{/each}}",
			map[string]any{"items": []any{"a", "b", "c"}}, "[a,b,c]"},
		{"property access", "{{#each tasks}}{{this.name}};{{/each}}", map[string]any{"tasks": tasks}, "Ship;Plan;"},
		{"alias", "{{#each tasks as task}}{{task.name}}={{task.estimate * 2}} {{/each}}", map[string]any{"tasks": tasks}, "Ship=4 Plan=3 "},
		{"conditional per iteration", "{{#each tasks as t}}{{#if t.done}}[x]{{else}}[ ]{{/if}} {{t.name}}\n{{/each}}",
			map[string]any{"tasks": tasks}, "[x] Ship\n[ ] Plan\n"},
		{"outer variables", "{{#each items}}{{prefix}}{{this}} {{/each}}", map[string]any{"items": []any{"a"}, "prefix": "-"}, "-a "},
		{"filters on bindings", "{{#each items}}{{this | upper}}{{/each}}", map[string]any{"items": []any{"a", "b"}}, "AB"},
		{"filtered source", "{{#each items | sort}}{{this}}{{/each}}", map[string]any{"items": []any{"b", "a"}}, "ab"},
		{"non array yields nothing", "[{{#each name}}x{{/each}}]", map[string]any{"name": "Ada"}, "[]"},
		{"missing yields nothing", "[{{#each missing}}x{{/each}}]", nil, "[]"},
		{"hyphenated property", "{{#each people as p}}{{p.first-name}}{{/each}}",
			map[string]any{"people": []any{map[string]any{"first-name": "Ada"}}}, "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, e, tt.content, tt.vars))
		})
	}
}

func TestNestedLoops(t *testing.T) {
	e := newTestEngine(nil)
	vars := map[string]any{
		"groups": []any{
			map[string]any{"name": "x", "items": []any{"1", "2"}},
			map[string]any{"name": "y", "items": []any{"3"}},
		},
	}

	out := render(t, e, "{{#each groups as g}}{{g.name}}:{{#each g.items}} {{this}}{{/each}};{{/each}}", vars)
	assert.Equal(t, "x: 1 2;y: 3;", out)
}

func TestIncludes(t *testing.T) {
	e := newTestEngine(map[string]string{
		"header":  "# {{title}} ({{kind}})",
		"badge":   "[{{count}}|{{flag}}|{{label}}]",
		"wrapper": "<{{include:header}}>",
		"comment": "<%# only a comment %>x",
	})

	tests := []struct {
		name     string
		content  string
		vars     map[string]any
		expected string
	}{
		{"local variables", `{{include:header:kind="review"}}`, map[string]any{"title": "T"}, "# T (review)"},
		{"typed and quoted values", `{{include:badge:count=3,flag=true,label="a,b"}}`, nil, "[3|true|a,b]"},
		{"nested includes", `{{include:wrapper}}`, map[string]any{"title": "T", "kind": "k"}, "<# T (k)>"},
		{"included comments stripped", `{{include:comment}}`, nil, "x"},
		{"same template twice", `{{include:comment}}{{include:comment}}`, nil, "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, e, tt.content, tt.vars))
		})
	}
}

func TestIncludeFromVariable(t *testing.T) {
	e := newTestEngine(map[string]string{
		"outer": "{{inner}}",
		"leaf":  "leaf",
	})

	res, err := e.Process(context.Background(), "{{include:outer}}", map[string]any{"inner": "{{include:leaf}}"})
	require.NoError(t, err)
	assert.Equal(t, "leaf", res.Content)
	assert.Equal(t, 2, res.Inclusions)
}

func TestIncludeCycle(t *testing.T) {
	e := newTestEngine(map[string]string{
		"a": "A{{include:b}}",
		"b": "B{{include:a}}",
	})

	for _, eng := range []*Engine{e, e.Lenient()} {
		_, err := eng.ProcessTemplate(context.Background(), "a", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCycleDetected)
		assert.True(t, IsFatal(err))
		assert.Contains(t, err.Error(), "a -> b -> a")

		var terr *Error
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, []string{"a", "b"}, terr.Chain)
	}
}

func TestSelfInclude(t *testing.T) {
	e := newTestEngine(map[string]string{"loop": "{{include:loop}}"})

	_, err := e.Process(context.Background(), "{{include:loop}}", nil)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

// chain builds t1 -> t2 -> ... -> tn -> "leaf"
func chain(n int) map[string]string {
	templates := make(map[string]string, n)
	for i := 1; i < n; i++ {
		templates[fmt.Sprintf("t%d", i)] = fmt.Sprintf("{{include:t%d}}", i+1)
	}
	templates[fmt.Sprintf("t%d", n)] = "leaf"
	return templates
}

func TestIncludeDepth(t *testing.T) {
	const maxDepth = 4

	e := newTestEngine(chain(maxDepth), WithMaxDepth(maxDepth))
	res, err := e.Process(context.Background(), "{{include:t1}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "leaf", res.Content)
	assert.Equal(t, maxDepth, res.Inclusions)

	e = newTestEngine(chain(maxDepth+1), WithMaxDepth(maxDepth))
	_, err = e.Lenient().Process(context.Background(), "{{include:t1}}", nil)
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestInclusionBudget(t *testing.T) {
	e := newTestEngine(map[string]string{"x": "x"}, WithMaxInclusions(2))

	res, err := e.Process(context.Background(), "{{include:x}}{{include:x}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "xx", res.Content)

	_, err = e.Lenient().Process(context.Background(), "{{include:x}}{{include:x}}{{include:x}}", nil)
	assert.ErrorIs(t, err, ErrInclusionBudgetExceeded)
	assert.True(t, IsFatal(err))
}

func TestIterationBudget(t *testing.T) {
	e := newTestEngine(nil, WithMaxIterations(5))

	tests := []struct {
		name    string
		content string
		vars    map[string]any
	}{
		{"self reference", "{{x}}", map[string]any{"x": "{{x}}"}},
		{"growing self reference", "{{x}}", map[string]any{"x": "a{{x}}"}},
		{"mutual reference", "{{a}}", map[string]any{"a": "{{b}}", "b": "{{a}}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, eng := range []*Engine{e, e.Lenient()} {
				_, err := eng.Process(context.Background(), tt.content, tt.vars)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrIterationBudgetExceeded)
			}
		})
	}
}

func TestIterationsReported(t *testing.T) {
	e := newTestEngine(nil)

	res, err := e.Process(context.Background(), "plain", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)

	res, err = e.Process(context.Background(), "{{a}}", map[string]any{"a": "{{b}}", "b": "done"})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Content)
	assert.Equal(t, 3, res.Iterations)
}

func TestStrictFailures(t *testing.T) {
	e := newTestEngine(map[string]string{"page": "{{missing}}"})
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		kind    error
	}{
		{"unresolved variable", "{{missing}}", ErrUnresolvedVariable},
		{"unresolved path", "{{user.name}}", ErrUnresolvedVariable},
		{"unknown filter", "{{name | nope}}", ErrUnknownFilter},
		{"failing filter", "{{name | add(1)}}", ErrFilterExecutionFailed},
		{"missing template", "{{include:nope}}", ErrTemplateNotFound},
		{"script without evaluator", "<% 1 + 1 %>", ErrScriptExecutionFailed},
		{"unclosed if", "{{#if name}}open", ErrMalformedInput},
		{"unclosed each", "{{#each items}}open", ErrMalformedInput},
		{"invalid condition", "{{#if name ==}}x{{/if}}", ErrMalformedInput},
		{"invalid placeholder", "{{name | }}", ErrMalformedInput},
		{"empty template", "", ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Process(ctx, tt.content, map[string]any{"name": "abc", "user": map[string]any{}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.False(t, IsFatal(err))
		})
	}

	_, err := e.ProcessTemplate(ctx, "page", nil)
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "page", terr.TemplateID)
	assert.Equal(t, "{{missing}}", terr.Directive)
	assert.Equal(t, "missing", terr.Detail)

	_, err = e.ProcessTemplate(ctx, "absent", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestLenientPassThrough(t *testing.T) {
	e := newTestEngine(nil).Lenient()
	vars := map[string]any{"name": "abc"}

	tests := []struct {
		name    string
		content string
	}{
		{"unresolved variable", "Hi {{missing}}!"},
		{"unknown filter", "{{name | nope}}"},
		{"failing filter", "{{name | add(1)}}"},
		{"missing template", "{{include:nope}}"},
		{"script without evaluator", "<% 1 + 1 %>"},
		{"unclosed if", "{{#if name}}open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Process(context.Background(), tt.content, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.content, res.Content)
			assert.True(t, res.HasUnresolved)
		})
	}

	res, err := e.Process(context.Background(), "{{name}} {{missing}}", vars)
	require.NoError(t, err)
	assert.Equal(t, "abc {{missing}}", res.Content)
}

func TestModeCopies(t *testing.T) {
	e := newTestEngine(nil)
	lenient := e.Lenient()

	assert.True(t, e.Options().StrictMode)
	assert.False(t, lenient.Options().StrictMode)
	assert.True(t, lenient.Strict().Options().StrictMode)
	assert.Same(t, e.Filters(), lenient.Filters())
}

type echoEvaluator struct{}

func (echoEvaluator) Execute(_ context.Context, code string, vars map[string]any) (any, error) {
	code = strings.TrimSpace(code)
	if code == "fail" {
		return nil, errors.New("boom")
	}
	return fmt.Sprintf("%s/%d", code, len(vars)), nil
}

func TestScripts(t *testing.T) {
	e := newTestEngine(nil, WithScriptEvaluator(echoEvaluator{}))

	out := render(t, e, "[<% hello %>]", map[string]any{"a": 1})
	assert.Equal(t, "[hello/1]", out)

	_, err := e.Process(context.Background(), "<% fail %>", nil)
	assert.ErrorIs(t, err, ErrScriptExecutionFailed)

	res, err := e.Lenient().Process(context.Background(), "<% fail %>", nil)
	require.NoError(t, err)
	assert.Equal(t, "<% fail %>", res.Content)
}

func TestScriptsWithSandbox(t *testing.T) {
	sandbox, err := script.New(script.Options{})
	require.NoError(t, err)
	e := newTestEngine(nil, WithScriptEvaluator(sandbox))

	vars := map[string]any{
		"name":  "ada",
		"tasks": []any{map[string]any{"estimate": 2.0}, map[string]any{"estimate": 3.0}},
	}
	out := render(t, e, "<% return name.upper() %>: <%\ntotal = 0\nfor t in tasks:\n    total += t[\"estimate\"]\nreturn total\n%>h", vars)
	assert.Equal(t, "ADA: 5h", out)

	// script output is resolved like any other text
	out = render(t, e, `<% "{{" + "name}}" %>`, vars)
	assert.Equal(t, "ada", out)
}

func TestCancelledContext(t *testing.T) {
	e := newTestEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Process(ctx, "{{x}}", map[string]any{"x": 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentProcessing(t *testing.T) {
	e := newTestEngine(map[string]string{"row": "{{n}}"})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := e.Process(context.Background(), "{{include:row}}", map[string]any{"n": n})
			if err != nil {
				errs <- err
				return
			}
			if res.Content != fmt.Sprint(n) || res.Inclusions != 1 {
				errs <- fmt.Errorf("call %d got %q with %d inclusions", n, res.Content, res.Inclusions)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestIncludeSpacing(t *testing.T) {
	e := newTestEngine(map[string]string{"header": "# {{title}}"})
	vars := map[string]any{"title": "Notes", "x": 1}

	for _, content := range []string{
		"{{include:header}}",
		"{{ include: header }}",
		"{{include: header:title=Notes}}",
		"{{ include:header : x=2 }}",
	} {
		t.Run(content, func(t *testing.T) {
			res, err := e.Process(context.Background(), content, vars)
			require.NoError(t, err)
			assert.Equal(t, "# Notes", res.Content)
			assert.Equal(t, 1, res.Inclusions)
		})
	}
}

func TestMalformedStructuralDirectives(t *testing.T) {
	e := newTestEngine(map[string]string{"header": "H"})

	tests := []struct {
		name    string
		content string
	}{
		{"empty include id", "{{include:}}"},
		{"include id with spaces", "{{include: my header}}"},
		{"unknown block", "{{#unless x}}y{{/unless}}"},
		{"unknown closing tag", "a {{/unless}}"},
		{"stray closing if", "a {{/if}} b"},
		{"stray else", "a {{else}} b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Process(context.Background(), tt.content, map[string]any{"x": true})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)

			res, err := e.Lenient().Process(context.Background(), tt.content, map[string]any{"x": true})
			require.NoError(t, err)
			assert.Equal(t, tt.content, res.Content)
			assert.True(t, res.HasUnresolved)

			assert.False(t, e.Validate(tt.content).Valid)
		})
	}
}

func TestSubstitutedDirectives(t *testing.T) {
	templates := map[string]string{
		"leaf":  "leaf",
		"outer": "{{inner}}",
	}
	e := newTestEngine(templates)
	ctx := context.Background()

	tests := []struct {
		name       string
		content    string
		vars       map[string]any
		expected   string
		inclusions int
	}{
		{"include at top level", "[{{inner}}]", map[string]any{"inner": "{{include:leaf}}"}, "[leaf]", 1},
		{"include inside include", "[{{include:outer}}]", map[string]any{"inner": "{{include:leaf}}"}, "[leaf]", 2},
		{"block from a value", "{{block}}", map[string]any{
			"block": "{{#each items}}{{this}}{{/each}}",
			"items": []any{"a", "b"},
		}, "ab", 0},
		{"conditional from a value", "{{block}}!", map[string]any{
			"block": "{{#if on}}{{name}}{{/if}}",
			"on":    true,
			"name":  "Ada",
		}, "Ada!", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Process(ctx, tt.content, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Content)
			assert.Equal(t, tt.inclusions, res.Inclusions)
			assert.False(t, res.HasUnresolved)
		})
	}

	_, err := e.Process(ctx, "{{inner}}", map[string]any{"inner": "{{include:missing}}"})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	res, err := e.Lenient().Process(ctx, "{{inner}}", map[string]any{"inner": "{{include:missing}}"})
	require.NoError(t, err)
	assert.Equal(t, "{{include:missing}}", res.Content)
	assert.True(t, res.HasUnresolved)

	_, err = e.ProcessTemplate(ctx, "outer", map[string]any{"inner": "{{include:outer}}"})
	assert.ErrorIs(t, err, ErrCycleDetected)
}

// brokenCatalog fails every read the way an unreachable backend would
type brokenCatalog struct{}

func (brokenCatalog) Read(context.Context, string) (*catalog.Template, error) {
	return nil, errors.New("connection refused")
}

func TestCatalogFailuresAreNotMissingTemplates(t *testing.T) {
	e := New(WithCatalog(brokenCatalog{}))
	ctx := context.Background()

	for _, eng := range []*Engine{e, e.Lenient()} {
		_, err := eng.Process(ctx, "a {{include:header}}", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrTemplateNotFound)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Contains(t, err.Error(), `"header"`)
	}

	_, err := e.ProcessTemplate(ctx, "page", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	// without a catalog every include is missing
	res, err := New().Lenient().Process(ctx, "{{include:header}}", nil)
	require.NoError(t, err)
	assert.True(t, res.HasUnresolved)
	_, err = New().Process(ctx, "{{include:header}}", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
