package starlark

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.starlark.net/starlark"
)

// DefaultMaxSteps bounds the number of Starlark execution steps per script
const DefaultMaxSteps uint64 = 1_000_000

const (
	scriptFunc   = "__script__"
	scriptResult = "__result__"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Evaluator runs template scripts in a fresh Starlark thread per call. Scripts
// see the template variables as predeclared names and have no access to the
// filesystem, network or clock.
type Evaluator struct {
	maxSteps uint64
}

// NewEvaluator creates a new Starlark evaluator. A zero maxSteps uses DefaultMaxSteps.
func NewEvaluator(maxSteps uint64) *Evaluator {
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Evaluator{maxSteps: maxSteps}
}

// Eval evaluates a Starlark expression and returns its value
func (e *Evaluator) Eval(ctx context.Context, expression string, vars map[string]any) (any, error) {
	thread, release, err := e.newThread(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	val, err := starlark.Eval(thread, "<script>", expression, predeclared(vars))
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}

	return ConvertFromStarlark(val), nil
}

// Exec runs a statement script as the body of a function; the value of its
// return statement is the result, or nil when it returns nothing.
func (e *Evaluator) Exec(ctx context.Context, statement string, vars map[string]any) (any, error) {
	thread, release, err := e.newThread(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	src := wrapStatements(statement)
	globals, err := starlark.ExecFile(thread, "<script>", src, predeclared(vars))
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}

	return ConvertFromStarlark(globals[scriptResult]), nil
}

func (e *Evaluator) newThread(ctx context.Context) (*starlark.Thread, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	thread := &starlark.Thread{
		Name:  "template-script",
		Print: func(*starlark.Thread, string) {},
	}
	thread.SetMaxExecutionSteps(e.maxSteps)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	return thread, func() { close(done) }, nil
}

func predeclared(vars map[string]any) starlark.StringDict {
	dict := make(starlark.StringDict, len(vars))
	for name, v := range vars {
		if !identPattern.MatchString(name) {
			continue
		}
		dict[name] = ConvertToStarlark(v)
	}
	return dict
}

// wrapStatements indents the script under a function definition and stores
// its return value in a global.
func wrapStatements(statement string) string {
	var b strings.Builder
	b.WriteString("def " + scriptFunc + "():\n")

	body := dedent(statement)
	if strings.TrimSpace(body) == "" {
		body = "pass"
	}
	for _, line := range strings.Split(body, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(scriptResult + " = " + scriptFunc + "()\n")
	return b.String()
}

func dedent(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	indent := -1
	for i, line := range lines {
		line = expandTabs(line)
		lines[i] = line
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			lines[i] = ""
		case indent > 0:
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}

// expandTabs replaces leading tabs with four spaces
func expandTabs(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	lead := line[:len(line)-len(trimmed)]
	return strings.ReplaceAll(lead, "\t", "    ") + trimmed
}
