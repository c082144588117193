package template

import (
	"regexp"
	"sort"
	"strings"
)

var (
	commentPattern     = regexp.MustCompile(`<%#[\s\S]*?%>`)
	scriptPattern      = regexp.MustCompile(`<%([\s\S]*?)%>`)
	placeholderPattern = regexp.MustCompile(`\{\{([\s\S]*?)\}\}`)
	includePattern     = regexp.MustCompile(`\{\{\s*include:\s*([^\s:}]+)\s*(?::([\s\S]*?))?\s*\}\}`)
	includeBody        = regexp.MustCompile(`^include:\s*([^\s:}]+)\s*(?::([\s\S]*))?$`)
)

// Kind is the type of a directive
type Kind string

// Directive kinds
const (
	KindVariable Kind = "variable"
	KindInclude  Kind = "include"
	KindIf       Kind = "if"
	KindEach     Kind = "each"
	KindComment  Kind = "comment"
	KindScript   Kind = "script"
)

// Directive is one delimited unit of template source
type Directive struct {
	Kind      Kind   `json:"kind"`
	Position  int    `json:"position"`
	FullMatch string `json:"full_match"`
	// Payload is the trimmed text between the delimiters, without the
	// include:, #if or #each keyword
	Payload string `json:"payload"`
}

// Parse lists the directives of content in source order without evaluating
// them. Whitespace-only placeholders and the else and closing tags of blocks are
// not directives.
func Parse(content string) []Directive {
	var out []Directive

	comments := commentPattern.FindAllStringIndex(content, -1)
	for _, loc := range comments {
		full := content[loc[0]:loc[1]]
		out = append(out, Directive{
			Kind:      KindComment,
			Position:  loc[0],
			FullMatch: full,
			Payload:   strings.TrimSpace(full[3 : len(full)-2]),
		})
	}

	var scripts [][]int
	for _, loc := range scriptPattern.FindAllStringSubmatchIndex(content, -1) {
		if within(comments, loc[0]) || strings.HasPrefix(content[loc[0]:], "<%#") {
			continue
		}
		scripts = append(scripts, loc)
		out = append(out, Directive{
			Kind:      KindScript,
			Position:  loc[0],
			FullMatch: content[loc[0]:loc[1]],
			Payload:   strings.TrimSpace(content[loc[2]:loc[3]]),
		})
	}

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(content, -1) {
		if within(comments, loc[0]) || within(scripts, loc[0]) {
			continue
		}
		payload := strings.TrimSpace(content[loc[2]:loc[3]])
		if payload == "" {
			continue
		}

		d := Directive{Position: loc[0], FullMatch: content[loc[0]:loc[1]]}
		tag, expr := classifyTag(payload)
		switch tag {
		case tagIf:
			d.Kind, d.Payload = KindIf, expr
		case tagEach:
			d.Kind, d.Payload = KindEach, expr
		case tagNone:
			if isIncludePayload(payload) {
				d.Kind, d.Payload = KindInclude, includeTarget(payload)
			} else {
				d.Kind, d.Payload = KindVariable, payload
			}
		default:
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// isIncludePayload reports payloads using the include keyword, well formed or not
func isIncludePayload(payload string) bool {
	return strings.HasPrefix(payload, "include:")
}

// parseIncludePayload splits a trimmed `include:id:args` payload. It fails for
// an empty id or an id containing whitespace.
func parseIncludePayload(payload string) (id, args string, ok bool) {
	m := includeBody.FindStringSubmatch(payload)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// includeTarget is the Directive payload of an include: `id` or `id:args`, or
// the raw text after the keyword when the include is malformed
func includeTarget(payload string) string {
	id, args, ok := parseIncludePayload(payload)
	if !ok {
		return strings.TrimSpace(strings.TrimPrefix(payload, "include:"))
	}
	if args == "" {
		return id
	}
	return id + ":" + args
}

// isUnknownTag reports `#name` and `/name` payloads that are not if or each tags
func isUnknownTag(payload string) bool {
	if kind, _ := classifyTag(payload); kind != tagNone {
		return false
	}
	return strings.HasPrefix(payload, "#") || strings.HasPrefix(payload, "/")
}

func within(ranges [][]int, pos int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// stripComments removes every comment block
func stripComments(content string) string {
	if !strings.Contains(content, "<%#") {
		return content
	}
	return commentPattern.ReplaceAllString(content, "")
}

// isBlankPlaceholder reports {{}} and whitespace-only placeholders, which are
// left as literal text
func isBlankPlaceholder(payload string) bool {
	return strings.TrimSpace(payload) == ""
}
