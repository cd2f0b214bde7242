package clause

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
	"github.com/asaidimu/go-cypher/utils"
)

// Expr is a raw Cypher expression. Wherever a literal value is accepted, an
// Expr is spliced into the statement verbatim instead of being bound as a
// parameter.
type Expr string

// Pattern is a node or relationship pattern. Patterns are clauses in their own
// right and can also be chained into paths inside MATCH, CREATE and MERGE.
type Pattern interface {
	Clause
	render(s *params.Scope) (string, error)
}

// PatternOption configures a node or relationship pattern.
type PatternOption func(*patternSpec)

type lengthKind int

const (
	lengthAny lengthKind = iota
	lengthExact
	lengthMin
	lengthRange
)

type pathLength struct {
	kind     lengthKind
	min, max int
}

func (l *pathLength) String() string {
	switch l.kind {
	case lengthExact:
		return "*" + strconv.Itoa(l.min)
	case lengthMin:
		return "*" + strconv.Itoa(l.min) + ".."
	case lengthRange:
		return "*" + strconv.Itoa(l.min) + ".." + strconv.Itoa(l.max)
	default:
		return "*"
	}
}

type patternSpec struct {
	name       string
	labels     []string
	conditions map[string]any
	length     *pathLength
	err        error
}

func newPatternSpec(opts []PatternOption) patternSpec {
	var spec patternSpec
	for _, opt := range opts {
		if opt != nil {
			opt(&spec)
		}
	}
	return spec
}

func (p *patternSpec) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s", ErrInvalidPattern, fmt.Sprintf(format, args...))
	}
}

// Name sets the variable the pattern binds. An empty name leaves the pattern
// anonymous.
func Name(name string) PatternOption {
	return func(p *patternSpec) {
		p.name = name
	}
}

// Labels appends labels (node labels or relationship types). Empty strings
// are ignored.
func Labels(labels ...string) PatternOption {
	return func(p *patternSpec) {
		for _, l := range labels {
			if l != "" {
				p.labels = append(p.labels, l)
			}
		}
	}
}

// Conditions adds inline property conditions. Each value is bound as its own
// parameter unless it is an Expr.
func Conditions(conditions map[string]any) PatternOption {
	return func(p *patternSpec) {
		if len(conditions) == 0 {
			return
		}
		if p.conditions == nil {
			p.conditions = make(map[string]any, len(conditions))
		}
		maps.Copy(p.conditions, conditions)
	}
}

// ConditionsOf adds inline property conditions taken from the JSON fields of
// a struct.
func ConditionsOf(v any) PatternOption {
	return func(p *patternSpec) {
		m, err := utils.StructToMap(v)
		if err != nil {
			p.fail("conditions: %v", err)
			return
		}
		Conditions(m)(p)
	}
}

// AnyLength makes a relationship variable length with no bounds: [*].
func AnyLength() PatternOption {
	return func(p *patternSpec) {
		p.length = &pathLength{kind: lengthAny}
	}
}

// Exactly fixes the number of hops of a relationship: [*n].
func Exactly(n int) PatternOption {
	return func(p *patternSpec) {
		if n < 0 {
			p.fail("negative path length %d", n)
			return
		}
		p.length = &pathLength{kind: lengthExact, min: n}
	}
}

// AtLeast sets a lower bound on the hops of a relationship: [*min..].
func AtLeast(min int) PatternOption {
	return func(p *patternSpec) {
		if min < 0 {
			p.fail("negative lower bound %d", min)
			return
		}
		p.length = &pathLength{kind: lengthMin, min: min}
	}
}

// Between bounds the hops of a relationship on both sides: [*min..max].
func Between(min, max int) PatternOption {
	return func(p *patternSpec) {
		if min < 0 || max < 0 {
			p.fail("negative bounds %d..%d", min, max)
			return
		}
		if min > max {
			p.fail("lower bound %d exceeds upper bound %d", min, max)
			return
		}
		p.length = &pathLength{kind: lengthRange, min: min, max: max}
	}
}

// variable renders "name:Label1:Label2" with either part optional.
func (p *patternSpec) variable() string {
	if len(p.labels) == 0 {
		return p.name
	}
	return p.name + ":" + strings.Join(p.labels, ":")
}

// renderConditions renders "{ key: $param, key2: $param2 }" with keys in sorted
// order, or an empty string when there are no conditions.
func renderConditions(s *params.Scope, conditions map[string]any) string {
	if len(conditions) == 0 {
		return ""
	}
	keys := sortedKeys(conditions)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + bindValue(s, k, conditions[k])
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// bindValue registers value under hint and returns its placeholder, or the
// expression itself for Expr and Var values.
func bindValue(s *params.Scope, hint string, value any) string {
	switch v := value.(type) {
	case Expr:
		return string(v)
	case Var:
		return string(v)
	}
	return s.Register(hint, value).String()
}

func joinParts(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
