package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/gopool/internal/shared/config"
)

func TestRouteTable_Lookup(t *testing.T) {
	table, err := NewRouteTable([]config.Route{
		{Path: "/", File: "index.html"},
		{Path: "/about", File: "about.html"},
		{Path: "/docs/**", File: "docs.html"},
		{Path: "/docs/intro", File: "intro.html"},
		{Path: "/blog/*.html", File: "blog.html"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())

	tests := []struct {
		path     string
		wantFile string
		wantOK   bool
	}{
		{"/", "index.html", true},
		{"/about", "about.html", true},
		{"/about/", "", false},
		{"/docs/intro", "intro.html", true},
		{"/docs/guide/setup", "docs.html", true},
		{"/blog/post.html", "blog.html", true},
		{"/blog/nested/post.html", "", false},
		{"/contact", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			file, ok := table.Lookup(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFile, file)
		})
	}
}

func TestRouteTable_PatternOrder(t *testing.T) {
	table, err := NewRouteTable([]config.Route{
		{Path: "/a/**", File: "first.html"},
		{Path: "/a/b/*", File: "second.html"},
	})
	require.NoError(t, err)

	file, ok := table.Lookup("/a/b/c")
	require.True(t, ok)
	assert.Equal(t, "first.html", file)
}

func TestNewRouteTable_Errors(t *testing.T) {
	_, err := NewRouteTable([]config.Route{
		{Path: "/", File: "a.html"},
		{Path: "/", File: "b.html"},
	})
	assert.ErrorContains(t, err, "duplicate route")

	_, err = NewRouteTable([]config.Route{{Path: "/docs/[", File: "docs.html"}})
	assert.ErrorContains(t, err, "invalid route pattern")
}
