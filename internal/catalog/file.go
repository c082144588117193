package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Extensions recognized as template files, in lookup order
var Extensions = []string{".md", ".tmpl", ".txt"}

const frontMatterDelim = "---"

// File is a read-only catalog over a directory tree. A template's ID is its
// slash separated path without extension; files may start with YAML front matter.
type File struct {
	fsys fs.FS
}

// NewFile creates a catalog rooted at dir
func NewFile(dir string) *File {
	return NewFileFS(os.DirFS(dir))
}

// NewFileFS creates a catalog over fsys
func NewFileFS(fsys fs.FS) *File {
	return &File{fsys: fsys}
}

// Read loads the first file matching id with a known extension
func (f *File) Read(_ context.Context, id string) (*Template, error) {
	id = strings.Trim(path.Clean("/"+id), "/")
	if id == "" || id == "." {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	for _, ext := range Extensions {
		data, err := fs.ReadFile(f.fsys, id+ext)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read template %s: %w", id, err)
		}
		return parseFile(id, data)
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save is not supported
func (f *File) Save(context.Context, *Template) error {
	return ErrReadOnly
}

// Delete is not supported
func (f *File) Delete(context.Context, string) error {
	return ErrReadOnly
}

// List returns every template file ordered by id
func (f *File) List(ctx context.Context) ([]*Template, error) {
	matches, err := doublestar.Glob(f.fsys, "**/*.{md,tmpl,txt}")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	seen := make(map[string]bool)
	out := make([]*Template, 0, len(matches))
	for _, match := range matches {
		id := strings.TrimSuffix(match, path.Ext(match))
		if seen[id] {
			continue
		}
		seen[id] = true

		t, err := f.Read(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	sortByID(out)
	return out, nil
}

// Search returns templates matching query
func (f *File) Search(ctx context.Context, query string) ([]*Template, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, query), nil
}

// parseFile splits optional front matter from the template body
func parseFile(id string, data []byte) (*Template, error) {
	t := &Template{ID: id}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.HasPrefix(content, frontMatterDelim+"\n") {
		t.Content = content
		return t, nil
	}

	rest := content[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		// no closing delimiter: the whole file is content
		t.Content = content
		return t, nil
	}

	header := rest[:end]
	body := rest[end+len(frontMatterDelim)+1:]
	body = strings.TrimPrefix(body, "\n")

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return nil, fmt.Errorf("invalid front matter in %s: %w", id, err)
	}
	if err := yaml.Unmarshal([]byte(header), t); err != nil {
		return nil, fmt.Errorf("invalid front matter in %s: %w", id, err)
	}
	t.ID = id
	t.Content = body

	for _, known := range []string{"id", "name", "description", "tags", "metadata"} {
		delete(meta, known)
	}
	if len(meta) > 0 {
		if t.Metadata == nil {
			t.Metadata = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			t.Metadata[k] = v
		}
	}

	return t, nil
}
