package template

import (
	"fmt"
	"sort"
	"strings"
)

// Advisory thresholds for Validate
const (
	maxPlaceholdersAdvisory = 500
	maxScriptsAdvisory      = 20
	maxNestingAdvisory      = 10
)

var dangerousScriptPatterns = []string{
	"eval(",
	"Function(",
	"require(",
	"import ",
	"__import__",
	"exec(",
	"process.",
	"fetch(",
	"XMLHttpRequest",
	"document.",
	"window.",
	"globalThis",
	"os.system",
	"subprocess",
}

// Issue is a validation finding at a byte offset
type Issue struct {
	Position int    `json:"position"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%d: %s", i.Position, i.Message)
}

// ValidationResult reports blocking errors and advisory warnings
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

type validator struct {
	result ValidationResult
}

func (v *validator) errorf(pos int, format string, args ...any) {
	v.result.Errors = append(v.result.Errors, Issue{Position: pos, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(pos int, format string, args ...any) {
	v.result.Warnings = append(v.result.Warnings, Issue{Position: pos, Message: fmt.Sprintf(format, args...)})
}

// Validate checks content without expanding it. Unclosed delimiters, unbalanced
// blocks, misplaced else tags and unparsable expressions are errors; empty
// placeholders, unknown filters, large directive counts and dangerous script
// payloads are warnings.
func (e *Engine) Validate(content string) ValidationResult {
	v := &validator{}

	if strings.TrimSpace(content) == "" {
		v.errorf(0, "template is empty")
		return v.result
	}

	checkDelimiters(v, content, "<%", "%>", "script block")
	masked := maskComments(content)
	checkDelimiters(v, masked, "{{", "}}", "placeholder")
	e.checkBlocks(v, masked)
	e.checkPlaceholders(v, masked)
	e.checkScripts(v, content)

	v.result.Valid = len(v.result.Errors) == 0
	sort.SliceStable(v.result.Errors, func(i, j int) bool { return v.result.Errors[i].Position < v.result.Errors[j].Position })
	sort.SliceStable(v.result.Warnings, func(i, j int) bool { return v.result.Warnings[i].Position < v.result.Warnings[j].Position })
	return v.result
}

// maskComments blanks comment blocks, keeping offsets
func maskComments(content string) string {
	return commentPattern.ReplaceAllStringFunc(content, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}

func checkDelimiters(v *validator, content, open, close, what string) {
	pos := 0
	for {
		start := strings.Index(content[pos:], open)
		if start < 0 {
			return
		}
		start += pos
		end := strings.Index(content[start+len(open):], close)
		if end < 0 {
			v.errorf(start, "unclosed %s", what)
			return
		}
		pos = start + len(open) + end + len(close)
	}
}

func (e *Engine) checkBlocks(v *validator, content string) {
	var stack []blockTag
	maxDepth := 0

	for _, tag := range scanTags(content) {
		switch tag.kind {
		case tagIf, tagEach:
			stack = append(stack, tag)
			if len(stack) > maxDepth {
				maxDepth = len(stack)
			}
			if tag.kind == tagIf {
				e.checkCondition(v, tag)
			} else if source, _ := splitEachExpr(tag.expr); source == "" {
				v.errorf(tag.start, "missing array expression in %s", tag.raw)
			} else if _, err := parsePlaceholder(source); err != nil {
				v.errorf(tag.start, "invalid array expression in %s: %v", tag.raw, err)
			}
		case tagElse, tagElseIf:
			if len(stack) == 0 || stack[len(stack)-1].kind != tagIf {
				v.errorf(tag.start, "%s outside {{#if}}", tag.raw)
				continue
			}
			if tag.kind == tagElseIf {
				e.checkCondition(v, tag)
			}
		case tagEndIf, tagEndEach:
			want := tagIf
			if tag.kind == tagEndEach {
				want = tagEach
			}
			if len(stack) == 0 || stack[len(stack)-1].kind != want {
				v.errorf(tag.start, "unexpected %s", tag.raw)
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	for _, open := range stack {
		v.errorf(open.start, "unclosed %s block", open.raw)
	}
	if maxDepth > maxNestingAdvisory {
		v.warnf(0, "blocks nested %d deep", maxDepth)
	}
}

func (e *Engine) checkCondition(v *validator, tag blockTag) {
	if strings.TrimSpace(tag.expr) == "" {
		v.errorf(tag.start, "missing condition in %s", tag.raw)
		return
	}
	if _, err := parseCondition(tag.expr); err != nil {
		v.errorf(tag.start, "invalid condition in %s: %v", tag.raw, err)
	}
}

func (e *Engine) checkPlaceholders(v *validator, content string) {
	placeholders, includes := 0, 0

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(content, -1) {
		payload := strings.TrimSpace(content[loc[2]:loc[3]])
		switch {
		case payload == "":
			v.warnf(loc[0], "empty placeholder")
			continue
		case isIncludePayload(payload):
			includes++
			_, args, ok := parseIncludePayload(payload)
			if !ok {
				v.errorf(loc[0], "malformed include %s", content[loc[0]:loc[1]])
			} else if _, err := parseIncludeArgs(args); err != nil {
				v.errorf(loc[0], "invalid include arguments: %v", err)
			}
			continue
		case isUnknownTag(payload):
			v.errorf(loc[0], "unknown block tag %s", content[loc[0]:loc[1]])
			continue
		case isStructural(payload):
			continue
		}

		placeholders++
		expr, err := parsePlaceholder(payload)
		if err != nil {
			v.errorf(loc[0], "invalid placeholder: %v", err)
			continue
		}
		for _, f := range expr.filters {
			if _, ok := e.filters.Lookup(f.name); !ok {
				v.warnf(loc[0], "unknown filter %q", f.name)
			}
		}
	}

	if placeholders > maxPlaceholdersAdvisory {
		v.warnf(0, "%d placeholders exceed the advisory limit of %d", placeholders, maxPlaceholdersAdvisory)
	}
	if includes > e.opts.MaxInclusions {
		v.warnf(0, "%d includes exceed the inclusion budget of %d", includes, e.opts.MaxInclusions)
	}
}

func (e *Engine) checkScripts(v *validator, content string) {
	scripts := 0
	for _, d := range Parse(content) {
		if d.Kind != KindScript {
			continue
		}
		scripts++
		for _, pattern := range dangerousScriptPatterns {
			if strings.Contains(d.Payload, pattern) {
				v.warnf(d.Position, "script uses %q", strings.TrimSpace(pattern))
			}
		}
	}
	if scripts > maxScriptsAdvisory {
		v.warnf(0, "%d script blocks exceed the advisory limit of %d", scripts, maxScriptsAdvisory)
	}
}
