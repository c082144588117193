package template

import (
	"fmt"
	"strings"

	"github.com/aescanero/dago-node-template/internal/eval/filters"
	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// Callable is implemented by values that expose a fixed set of chainable
// operations to path segments such as `today.add(1, 'd').format('EEEE')`
type Callable interface {
	HasMethod(name string) bool
	CallMethod(name string, args []any) (any, error)
}

// FieldProvider is implemented by values with read-only named fields
type FieldProvider interface {
	Field(name string) (any, bool)
}

// pathSegment is a property name, index or method call of a dotted path
type pathSegment struct {
	name string
	call bool
	args string
}

// splitPath cuts `a.b[0].c('x.y')` into segments
func splitPath(path string) ([]pathSegment, error) {
	var segs []pathSegment
	i := 0

	for i < len(path) {
		j := i
		for j < len(path) && path[j] != '.' && path[j] != '(' && path[j] != '[' {
			j++
		}
		name := strings.TrimSpace(path[i:j])

		switch {
		case j < len(path) && path[j] == '(':
			end, err := scanBalanced(path, j)
			if err != nil {
				return nil, err
			}
			if name == "" {
				return nil, fmt.Errorf("missing method name in %q", path)
			}
			segs = append(segs, pathSegment{name: name, call: true, args: path[j+1 : end-1]})
			j = end
		case name != "":
			segs = append(segs, pathSegment{name: name})
		case j >= len(path) || path[j] != '[':
			return nil, fmt.Errorf("empty segment in %q", path)
		}

		for j < len(path) && path[j] == '[' {
			end, err := scanBalanced(path, j)
			if err != nil {
				return nil, err
			}
			key := strings.TrimSpace(path[j+1 : end-1])
			if unquoted, ok := filters.Unquote(key); ok {
				key = unquoted
			}
			segs = append(segs, pathSegment{name: key})
			j = end
		}

		if j < len(path) {
			if path[j] != '.' {
				return nil, fmt.Errorf("unexpected %q in %q", path[j], path)
			}
			j++
			if j == len(path) {
				return nil, fmt.Errorf("empty segment in %q", path)
			}
		}
		i = j
	}

	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	return segs, nil
}

// rootName returns the first segment of a path
func rootName(path string) string {
	end := strings.IndexAny(path, ".([")
	if end < 0 {
		return strings.TrimSpace(path)
	}
	return strings.TrimSpace(path[:end])
}

// resolvePath walks path through scope, falling back to built-ins for the root.
// A missing segment yields (nil, false, nil); only a failing method call is an error.
func (e *Engine) resolvePath(path string, scope map[string]any) (any, bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, false, err
	}

	root := segs[0]
	if root.call {
		return nil, false, fmt.Errorf("%s is not a variable", root.name)
	}

	cur, ok := scope[root.name]
	if !ok && e.builtins != nil {
		cur, ok = e.builtins.Lookup(root.name)
	}
	if !ok {
		return nil, false, nil
	}

	for _, seg := range segs[1:] {
		if cur == nil {
			return nil, false, nil
		}

		if seg.call {
			c, ok := cur.(Callable)
			if !ok || !c.HasMethod(seg.name) {
				return nil, false, nil
			}
			args, err := filters.ParseArgs(seg.args)
			if err != nil {
				return nil, false, fmt.Errorf("invalid arguments to %s: %w", seg.name, err)
			}
			cur, err = c.CallMethod(seg.name, args.Positional)
			if err != nil {
				return nil, false, fmt.Errorf("failed to call %s: %w", seg.name, err)
			}
			continue
		}

		if fp, ok := cur.(FieldProvider); ok {
			v, found := fp.Field(seg.name)
			if !found {
				return nil, false, nil
			}
			cur = v
			continue
		}

		v, found := values.Field(cur, seg.name)
		if !found {
			return nil, false, nil
		}
		cur = v
	}

	return cur, true, nil
}

// lookup adapts resolvePath to conditions, where a missing variable is nil
func (e *Engine) lookup(scope map[string]any) pathLookup {
	return func(path string) (any, error) {
		v, _, err := e.resolvePath(path, scope)
		return v, err
	}
}
