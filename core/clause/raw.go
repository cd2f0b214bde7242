package clause

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// Raw renders caller supplied Cypher. Named parameters are registered in the
// bag; when a name is already taken the text is rewritten to the placeholder
// the bag assigned.
type Raw struct {
	base
	text   string
	values map[string]any
}

// NewRaw creates a raw clause. values maps placeholder names used in text
// (without the leading $) to their values.
func NewRaw(text string, values map[string]any) *Raw {
	r := &Raw{text: text, values: values}
	r.init(r.compile)
	return r
}

func (r *Raw) compile(s *params.Scope) (string, error) {
	if strings.TrimSpace(r.text) == "" {
		return "", fmt.Errorf("%w: raw clause text is empty", ErrInvalidClause)
	}
	if len(r.values) == 0 {
		return r.text, nil
	}

	renamed := make(map[string]string, len(r.values))
	for _, name := range sortedKeys(r.values) {
		p := s.Register(name, r.values[name])
		if p.Name != name {
			renamed[name] = p.Name
		}
	}
	if len(renamed) == 0 {
		return r.text, nil
	}

	// One pass, so a rename never feeds into another.
	return placeholderPattern.ReplaceAllStringFunc(r.text, func(m string) string {
		if to, ok := renamed[m[1:]]; ok {
			return "$" + to
		}
		return m
	}), nil
}
