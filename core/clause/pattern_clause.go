package clause

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// Path is a chain of patterns rendered back to back, e.g. (a)-[:KNOWS]->(b).
type Path []Pattern

// renderPaths renders each path and separates them with ", ". All patterns
// register through the same scope, so their placeholders never collide.
func renderPaths(s *params.Scope, paths []Path) (string, error) {
	rendered := make([]string, 0, len(paths))
	for i, path := range paths {
		if len(path) == 0 {
			return "", fmt.Errorf("%w: path %d is empty", ErrInvalidPattern, i)
		}
		var sb strings.Builder
		for _, p := range path {
			if p == nil {
				return "", fmt.Errorf("%w: path %d contains a nil pattern", ErrInvalidPattern, i)
			}
			text, err := p.render(s)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		}
		rendered = append(rendered, sb.String())
	}
	if len(rendered) == 0 {
		return "", fmt.Errorf("%w: at least one pattern is required", ErrInvalidPattern)
	}
	return strings.Join(rendered, ", "), nil
}

// MatchOptions configures a MATCH clause.
type MatchOptions struct {
	Optional bool // Render OPTIONAL MATCH.
}

// Match renders MATCH (or OPTIONAL MATCH) over one or more paths.
type Match struct {
	base
	paths   []Path
	options MatchOptions
}

// NewMatch creates a MATCH clause.
func NewMatch(paths []Path, options MatchOptions) *Match {
	m := &Match{paths: paths, options: options}
	m.init(m.compile)
	return m
}

func (m *Match) compile(s *params.Scope) (string, error) {
	patterns, err := renderPaths(s, m.paths)
	if err != nil {
		return "", err
	}
	if m.options.Optional {
		return "OPTIONAL MATCH " + patterns, nil
	}
	return "MATCH " + patterns, nil
}

// CreateOptions configures a CREATE clause.
type CreateOptions struct {
	Unique bool // Render CREATE UNIQUE.
}

// Create renders CREATE over one or more paths.
type Create struct {
	base
	paths   []Path
	options CreateOptions
}

// NewCreate creates a CREATE clause.
func NewCreate(paths []Path, options CreateOptions) *Create {
	c := &Create{paths: paths, options: options}
	c.init(c.compile)
	return c
}

func (c *Create) compile(s *params.Scope) (string, error) {
	patterns, err := renderPaths(s, c.paths)
	if err != nil {
		return "", err
	}
	if c.options.Unique {
		return "CREATE UNIQUE " + patterns, nil
	}
	return "CREATE " + patterns, nil
}

// Merge renders MERGE over a single path.
type Merge struct {
	base
	path Path
}

// NewMerge creates a MERGE clause.
func NewMerge(path Path) *Merge {
	m := &Merge{path: path}
	m.init(m.compile)
	return m
}

func (m *Merge) compile(s *params.Scope) (string, error) {
	pattern, err := renderPaths(s, []Path{m.path})
	if err != nil {
		return "", err
	}
	return "MERGE " + pattern, nil
}
