package catalog

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tpl := &Template{
		ID:          "notes/daily",
		Name:        "Daily Note",
		Description: "Morning journal",
		Tags:        []string{"journal"},
		Content:     "# {{date}}",
	}

	tests := []struct {
		query    string
		expected bool
	}{
		{"", true},
		{"daily", true},
		{"JOURNAL", true},
		{"morning", true},
		{"notes/*", true},
		{"notes/**", true},
		{"meetings/*", false},
		{"weekly", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tpl, tt.query))
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryFromMap(map[string]string{"header": "# Title"})

	tpl, err := m.Read(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "# Title", tpl.Content)

	// returned templates are copies
	tpl.Content = "changed"
	again, err := m.Read(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "# Title", again.Content)

	_, err = m.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, &Template{ID: "footer", Content: "bye", Tags: []string{"end"}}))
	saved, err := m.Read(ctx, "footer")
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "footer", list[0].ID)

	found, err := m.Search(ctx, "end")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "footer", found[0].ID)

	require.NoError(t, m.Delete(ctx, "footer"))
	assert.ErrorIs(t, m.Delete(ctx, "footer"), ErrNotFound)
	assert.Error(t, m.Save(ctx, &Template{}))
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"header.md": {Data: []byte("# {{title}}\n")},
		"notes/daily.tmpl": {Data: []byte("---\nname: Daily\ntags: [journal]\nauthor: ada\n---\n" +
			"Today is {{today}}\n")},
		"notes/broken.txt": {Data: []byte("---\nno closing delimiter\n")},
		"ignored.json":     {Data: []byte("{}")},
	}
	c := NewFileFS(fsys)

	tpl, err := c.Read(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "# {{title}}\n", tpl.Content)

	daily, err := c.Read(ctx, "notes/daily")
	require.NoError(t, err)
	assert.Equal(t, "Daily", daily.Name)
	assert.Equal(t, []string{"journal"}, daily.Tags)
	assert.Equal(t, "ada", daily.Metadata["author"])
	assert.Equal(t, "Today is {{today}}\n", daily.Content)

	broken, err := c.Read(ctx, "notes/broken")
	require.NoError(t, err)
	assert.Equal(t, "---\nno closing delimiter\n", broken.Content)

	_, err = c.Read(ctx, "ignored")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Read(ctx, "../header")
	assert.NoError(t, err)

	list, err := c.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, tpl := range list {
		ids = append(ids, tpl.ID)
	}
	assert.Equal(t, []string{"header", "notes/broken", "notes/daily"}, ids)

	found, err := c.Search(ctx, "notes/**")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	assert.ErrorIs(t, c.Save(ctx, &Template{ID: "x"}), ErrReadOnly)
	assert.ErrorIs(t, c.Delete(ctx, "x"), ErrReadOnly)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	c := NewRedis(client, "test:template:", nil)
	t.Cleanup(func() {
		_ = c.Delete(ctx, "greeting")
	})

	require.NoError(t, c.Save(ctx, &Template{ID: "greeting", Content: "Hello {{name}}"}))

	tpl, err := c.Read(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}", tpl.Content)

	found, err := c.Search(ctx, "hello")
	require.NoError(t, err)
	require.NotEmpty(t, found)

	require.NoError(t, c.Delete(ctx, "greeting"))
	_, err = c.Read(ctx, "greeting")
	assert.ErrorIs(t, err, ErrNotFound)
}
