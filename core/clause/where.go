package clause

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// Var names another variable or property. Comparing against a Var renders the
// name instead of binding a parameter: {"a.age": GreaterThan(Var("b.age"))}
// renders a.age > b.age.
type Var string

// Comparator renders a single comparison against field, registering any
// value it needs in s.
type Comparator func(s *params.Scope, field string) string

type operatorKind int

const (
	opAnd operatorKind = iota
	opOr
	opXor
	opNot
)

// Operator combines conditions with AND, OR, XOR or NOT.
type Operator struct {
	kind       operatorKind
	conditions []any
}

// And requires every condition to hold.
func And(conditions ...any) Operator { return Operator{kind: opAnd, conditions: conditions} }

// Or requires at least one condition to hold.
func Or(conditions ...any) Operator { return Operator{kind: opOr, conditions: conditions} }

// Xor requires exactly one of two conditions to hold.
func Xor(conditions ...any) Operator { return Operator{kind: opXor, conditions: conditions} }

// Not negates a condition.
func Not(condition any) Operator { return Operator{kind: opNot, conditions: []any{condition}} }

// Binding strength of rendered conditions; a child weaker than its parent is
// parenthesized.
const (
	precRaw = iota
	precOr
	precXor
	precAnd
	precNot
	precAtom
)

var joiners = map[operatorKind]struct {
	sep  string
	prec int
}{
	opAnd: {" AND ", precAnd},
	opOr:  {" OR ", precOr},
	opXor: {" XOR ", precXor},
}

// Where renders WHERE over a condition tree.
//
// Maps are AND-ed, keys become fields and nested maps prefix them with the
// outer key. Slices are OR-ed. A plain value compares for equality, nil checks
// IS NULL, and a Comparator or Operator applies to the field it sits under.
// Strings and Expr at the top level are used verbatim.
type Where struct {
	base
	conditions any
}

// NewWhere creates a WHERE clause.
func NewWhere(conditions any) *Where {
	w := &Where{conditions: conditions}
	w.init(w.compile)
	return w
}

func (w *Where) compile(s *params.Scope) (string, error) {
	text, _, err := renderCondition(s, "", w.conditions)
	if err != nil {
		return "", err
	}
	return "WHERE " + text, nil
}

// renderCondition renders one node of the condition tree and reports the
// precedence of the text it produced, so the caller can decide whether the
// result needs parentheses when it is joined under an operator.
//
// field is the property path accumulated from enclosing maps ("n.age"). It
// is empty at the top level, where only composite conditions and raw text
// are accepted: a bare value or comparator has nothing to compare against.
//
// Example:
//
//	renderCondition(s, "", map[string]any{"n": map[string]any{"age": GreaterThan(18)}})
//	// "n.age > $age", precAtom
func renderCondition(s *params.Scope, field string, cond any) (string, int, error) {
	// 1. Composite and callable conditions, valid at any depth.
	switch c := cond.(type) {
	case Operator:
		return renderOperator(s, field, c)
	case Comparator:
		if field == "" {
			return "", 0, fmt.Errorf("%w: comparator without a field", ErrInvalidCondition)
		}
		return c(s, field), precAtom, nil
	case map[string]any:
		return renderMap(s, field, c)
	case []any:
		return renderList(s, field, c)
	case []map[string]any:
		items := make([]any, len(c))
		for i, m := range c {
			items[i] = m
		}
		return renderList(s, field, items)
	}

	// 2. At the top level only raw statement text remains valid.
	if field == "" {
		switch c := cond.(type) {
		case string:
			if strings.TrimSpace(c) == "" {
				return "", 0, fmt.Errorf("%w: empty condition", ErrInvalidCondition)
			}
			return c, precRaw, nil
		case Expr:
			return string(c), precRaw, nil
		}
		return "", 0, fmt.Errorf("%w: unsupported top-level condition of type %T", ErrInvalidCondition, cond)
	}

	// 3. Under a field: nil checks for absence, any other slice is an OR of
	// its items, and everything else is an equality against a bound value.
	if cond == nil {
		return field + " IS NULL", precAtom, nil
	}
	if items, ok := sliceItems(cond); ok {
		return renderList(s, field, items)
	}
	return Equals(cond)(s, field), precAtom, nil
}

// renderOperator applies And, Or, Xor or Not. The operator inherits the
// field it sits under, so {"n.age": Or(LessThan(18), GreaterThan(65))}
// compares n.age on both sides.
func renderOperator(s *params.Scope, field string, op Operator) (string, int, error) {
	if op.kind == opNot {
		text, prec, err := renderCondition(s, field, op.conditions[0])
		if err != nil {
			return "", 0, err
		}
		return "NOT " + wrap(text, prec, precNot), precNot, nil
	}
	j := joiners[op.kind]
	return renderJoined(s, field, op.conditions, j.sep, j.prec)
}

// renderMap AND-s the entries of m. Keys are visited in sorted order so that
// both the text and the placeholder names are stable between builds.
func renderMap(s *params.Scope, prefix string, m map[string]any) (string, int, error) {
	keys := sortedKeys(m)
	if len(keys) == 0 {
		return "", 0, fmt.Errorf("%w: empty condition map", ErrInvalidCondition)
	}
	parts := make([]string, len(keys))
	for i, key := range keys {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		text, prec, err := renderCondition(s, field, m[key])
		if err != nil {
			return "", 0, err
		}
		// A single entry keeps its own precedence; no AND is introduced.
		if len(keys) == 1 {
			return text, prec, nil
		}
		parts[i] = wrap(text, prec, precAnd)
	}
	return strings.Join(parts, " AND "), precAnd, nil
}

func renderList(s *params.Scope, field string, items []any) (string, int, error) {
	return renderJoined(s, field, items, " OR ", precOr)
}

func renderJoined(s *params.Scope, field string, conds []any, sep string, prec int) (string, int, error) {
	if len(conds) == 0 {
		return "", 0, fmt.Errorf("%w: empty condition list", ErrInvalidCondition)
	}
	if len(conds) == 1 {
		return renderCondition(s, field, conds[0])
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		text, p, err := renderCondition(s, field, c)
		if err != nil {
			return "", 0, err
		}
		parts[i] = wrap(text, p, prec)
	}
	return strings.Join(parts, sep), prec, nil
}

// wrap parenthesizes text when it binds more loosely than its parent.
func wrap(text string, prec, parent int) string {
	if prec < parent {
		return "(" + text + ")"
	}
	return text
}

// sliceItems spreads any slice other than []byte into a list of conditions.
func sliceItems(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
