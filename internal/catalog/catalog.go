package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNotFound is returned when a template id is absent from the catalog
	ErrNotFound = errors.New("template not found")
	// ErrReadOnly is returned by catalogs that cannot be written
	ErrReadOnly = errors.New("catalog is read-only")
)

// Template is stored template source keyed by ID
type Template struct {
	ID          string         `json:"id" yaml:"id,omitempty"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Content     string         `json:"content" yaml:"-"`
	CreatedAt   time.Time      `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty" yaml:"-"`
}

// Reader is the read side the template engine depends on
type Reader interface {
	Read(ctx context.Context, id string) (*Template, error)
}

// Catalog stores and finds templates
type Catalog interface {
	Reader
	Save(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Template, error)
	Search(ctx context.Context, query string) ([]*Template, error)
}

// Matches reports whether t matches a search query. Queries containing glob
// metacharacters are matched against the ID (`notes/**`); anything else is a
// case-insensitive substring of the ID, name, description, tags or content.
func Matches(t *Template, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}

	if strings.ContainsAny(query, "*?[{") {
		ok, err := doublestar.Match(query, t.ID)
		return err == nil && ok
	}

	q := strings.ToLower(query)
	fields := append([]string{t.ID, t.Name, t.Description, t.Content}, t.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func filter(templates []*Template, query string) []*Template {
	out := make([]*Template, 0, len(templates))
	for _, t := range templates {
		if Matches(t, query) {
			out = append(out, t)
		}
	}
	return out
}

func sortByID(templates []*Template) {
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
}

func clone(t *Template) *Template {
	c := *t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
