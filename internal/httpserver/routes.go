package httpserver

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nemanja-m/gopool/internal/shared/config"
)

// RouteTable maps request paths to page files. It is read-only after
// construction and safe to share between tasks.
type RouteTable struct {
	exact    map[string]string
	patterns []config.Route
}

// NewRouteTable builds a table from routes. Paths containing glob syntax are
// matched with doublestar; everything else must match exactly.
func NewRouteTable(routes []config.Route) (*RouteTable, error) {
	t := &RouteTable{exact: make(map[string]string, len(routes))}
	for _, r := range routes {
		if !isPattern(r.Path) {
			if _, exists := t.exact[r.Path]; exists {
				return nil, fmt.Errorf("duplicate route: %s", r.Path)
			}
			t.exact[r.Path] = r.File
			continue
		}
		if !doublestar.ValidatePattern(r.Path) {
			return nil, fmt.Errorf("invalid route pattern: %s", r.Path)
		}
		t.patterns = append(t.patterns, r)
	}
	return t, nil
}

// Lookup returns the file for path. Exact routes win over patterns, and
// patterns are tried in configuration order.
func (t *RouteTable) Lookup(path string) (string, bool) {
	if file, ok := t.exact[path]; ok {
		return file, true
	}
	for _, r := range t.patterns {
		if ok, _ := doublestar.Match(r.Path, path); ok {
			return r.File, true
		}
	}
	return "", false
}

func (t *RouteTable) Len() int {
	return len(t.exact) + len(t.patterns)
}

func isPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
