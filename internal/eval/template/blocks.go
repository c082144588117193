package template

import "strings"

type tagKind int

const (
	tagNone tagKind = iota
	tagIf
	tagElseIf
	tagElse
	tagEndIf
	tagEach
	tagEndEach
)

// blockTag is an opening, separating or closing tag of an if or each block
type blockTag struct {
	kind  tagKind
	start int
	end   int
	expr  string
	raw   string
}

// classifyTag recognizes block tags by their trimmed placeholder payload
func classifyTag(payload string) (tagKind, string) {
	switch payload {
	case "/if":
		return tagEndIf, ""
	case "/each":
		return tagEndEach, ""
	case "else":
		return tagElse, ""
	}

	if expr, ok := keyword(payload, "#if"); ok {
		return tagIf, expr
	}
	if expr, ok := keyword(payload, "#each"); ok {
		return tagEach, expr
	}
	if rest, ok := keyword(payload, "else"); ok {
		if expr, ok := keyword(rest, "if"); ok {
			return tagElseIf, expr
		}
	}
	return tagNone, ""
}

// keyword cuts word from the start of s when followed by a space or parenthesis
func keyword(s, word string) (string, bool) {
	if !strings.HasPrefix(s, word) {
		return "", false
	}
	rest := s[len(word):]
	if rest == "" {
		return "", true
	}
	switch rest[0] {
	case ' ', '\t', '\n', '\r', '(':
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// scanTags lists the block tags of content in source order
func scanTags(content string) []blockTag {
	if !strings.Contains(content, "{{") {
		return nil
	}

	var tags []blockTag
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(content, -1) {
		kind, expr := classifyTag(strings.TrimSpace(content[loc[2]:loc[3]]))
		if kind == tagNone {
			continue
		}
		tags = append(tags, blockTag{
			kind:  kind,
			start: loc[0],
			end:   loc[1],
			expr:  expr,
			raw:   content[loc[0]:loc[1]],
		})
	}
	return tags
}

// matchClose returns the index of the tag closing tags[open], or -1 when the
// block is unclosed. Blocks of the same kind nest.
func matchClose(tags []blockTag, open int) int {
	openKind := tags[open].kind
	closeKind := tagEndIf
	if openKind == tagEach {
		closeKind = tagEndEach
	}

	depth := 0
	for j := open; j < len(tags); j++ {
		switch tags[j].kind {
		case openKind:
			depth++
		case closeKind:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// branch is one arm of an if block
type branch struct {
	expr   string
	isElse bool
	raw    string
	body   string
}

// splitBranches cuts the if block tags[open]..tags[close] at its own else tags
func splitBranches(content string, tags []blockTag, open, close int) []branch {
	branches := []branch{{expr: tags[open].expr, raw: tags[open].raw}}
	bodyStart := tags[open].end
	depth := 0

	for j := open + 1; j < close; j++ {
		t := tags[j]
		switch t.kind {
		case tagIf:
			depth++
		case tagEndIf:
			depth--
		case tagElse, tagElseIf:
			if depth != 0 {
				continue
			}
			branches[len(branches)-1].body = content[bodyStart:t.start]
			branches = append(branches, branch{expr: t.expr, isElse: t.kind == tagElse, raw: t.raw})
			bodyStart = t.end
		}
	}

	branches[len(branches)-1].body = content[bodyStart:tags[close].start]
	return branches
}
