package template

import (
	"sort"
	"strings"
)

// Stats summarizes the directives of a template
type Stats struct {
	Placeholders int      `json:"placeholders"`
	Includes     []string `json:"includes,omitempty"`
	Conditionals int      `json:"conditionals"`
	Loops        int      `json:"loops"`
	Scripts      int      `json:"scripts"`
	Comments     int      `json:"comments"`
	// Variables are the distinct root names read by placeholders, conditions
	// and loops, excluding iteration bindings
	Variables []string `json:"variables,omitempty"`
	Filters   []string `json:"filters,omitempty"`
}

// Analyze counts the directives of content without expanding it
func (e *Engine) Analyze(content string) Stats {
	var s Stats
	vars := make(map[string]bool)
	filterNames := make(map[string]bool)
	includes := make(map[string]bool)
	aliases := map[string]bool{bindThis: true}

	for _, d := range Parse(content) {
		switch d.Kind {
		case KindComment:
			s.Comments++
		case KindScript:
			s.Scripts++
		case KindInclude:
			if id, _, ok := parseIncludePayload("include:" + d.Payload); ok {
				includes[id] = true
			}
		case KindIf:
			s.Conditionals++
			if tokens, err := lexCondition(d.Payload); err == nil {
				for _, tok := range tokens {
					if tok.kind == condPath {
						vars[rootName(tok.text)] = true
					}
				}
			}
		case KindEach:
			s.Loops++
			source, alias := splitEachExpr(d.Payload)
			if alias != "" {
				aliases[alias] = true
			}
			if expr, err := parsePlaceholder(source); err == nil {
				collect(expr, vars, filterNames)
			}
		case KindVariable:
			s.Placeholders++
			if expr, err := parsePlaceholder(d.Payload); err == nil {
				collect(expr, vars, filterNames)
			}
		}
	}

	for name := range vars {
		if name == "" || strings.HasPrefix(name, "@") || aliases[name] {
			delete(vars, name)
		}
	}

	s.Variables = sortedKeys(vars)
	s.Filters = sortedKeys(filterNames)
	s.Includes = sortedKeys(includes)
	return s
}

func collect(expr *placeholderExpr, vars, filterNames map[string]bool) {
	vars[expr.root()] = true
	for _, f := range expr.filters {
		filterNames[f.name] = true
	}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
