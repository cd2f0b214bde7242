package clause

import (
	"github.com/asaidimu/go-cypher/core/params"
)

// Direction is the direction of a relationship pattern relative to the
// pattern on its left.
type Direction string

// Supported relationship directions.
const (
	In     Direction = "in"     // <-[...]-
	Out    Direction = "out"    // -[...]->
	Either Direction = "either" // -[...]-
)

// RelationPattern describes a relationship: -[name:TYPE*min..max { key: $value }]->.
type RelationPattern struct {
	base
	direction Direction
	spec      patternSpec
}

var _ Pattern = (*RelationPattern)(nil)

// Relation creates a relationship pattern in the given direction.
func Relation(direction Direction, opts ...PatternOption) *RelationPattern {
	r := &RelationPattern{direction: direction, spec: newPatternSpec(opts)}
	switch direction {
	case In, Out, Either:
	default:
		r.spec.fail("unknown relationship direction %q", direction)
	}
	r.init(r.render)
	return r
}

func (r *RelationPattern) render(s *params.Scope) (string, error) {
	if r.spec.err != nil {
		return "", r.spec.err
	}

	head := r.spec.variable()
	if r.spec.length != nil {
		head += r.spec.length.String()
	}
	body := "[" + joinParts(head, renderConditions(s, r.spec.conditions)) + "]"

	switch r.direction {
	case In:
		return "<-" + body + "-", nil
	case Out:
		return "-" + body + "->", nil
	default:
		return "-" + body + "-", nil
	}
}
