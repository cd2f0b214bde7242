package clause

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// SetProperties lists the updates a SET clause performs.
type SetProperties struct {
	// Labels adds labels to variables: {"n": {"Admin"}} renders n:Admin.
	Labels map[string][]string
	// Values assigns bound values: {"n.name": "Alice"} renders n.name = $name.
	// A map value assigned to a whole variable renders n += $n unless the
	// clause overrides.
	Values map[string]any
	// Variables assigns other variables or expressions without binding
	// parameters. A string value renders n = m (or n += m); a map value renders
	// one assignment per property: {"n": {"name": "m.name"}} renders
	// n.name = m.name.
	Variables map[string]any
}

// SetOptions configures a SET clause.
type SetOptions struct {
	// Override replaces every property of a variable (=) instead of merging
	// into it (+=).
	Override bool
}

// Set renders SET.
type Set struct {
	base
	props   SetProperties
	options SetOptions
}

// NewSet creates a SET clause.
func NewSet(props SetProperties, options SetOptions) *Set {
	c := &Set{props: props, options: options}
	c.init(c.compile)
	return c
}

func (c *Set) compile(s *params.Scope) (string, error) {
	items, err := c.items(s)
	if err != nil {
		return "", err
	}
	return "SET " + items, nil
}

func (c *Set) items(s *params.Scope) (string, error) {
	var parts []string

	for _, key := range sortedKeys(c.props.Labels) {
		labels := nonEmpty(c.props.Labels[key])
		if len(labels) == 0 {
			continue
		}
		parts = append(parts, key+":"+strings.Join(labels, ":"))
	}

	for _, key := range sortedKeys(c.props.Values) {
		value := c.props.Values[key]
		op := c.operator(key, isMapValue(value))
		parts = append(parts, key+op+bindValue(s, lastSegment(key), value))
	}

	for _, key := range sortedKeys(c.props.Variables) {
		switch v := c.props.Variables[key].(type) {
		case string:
			parts = append(parts, key+c.operator(key, true)+v)
		case Expr:
			parts = append(parts, key+c.operator(key, true)+string(v))
		case Var:
			parts = append(parts, key+c.operator(key, true)+string(v))
		case map[string]string:
			for _, prop := range sortedKeys(v) {
				parts = append(parts, key+"."+prop+" = "+v[prop])
			}
		case map[string]any:
			for _, prop := range sortedKeys(v) {
				parts = append(parts, fmt.Sprintf("%s.%s = %v", key, prop, v[prop]))
			}
		default:
			return "", fmt.Errorf("%w: SET variable %q must be a string or a map of strings, got %T", ErrInvalidClause, key, v)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: SET requires at least one label, value or variable", ErrInvalidClause)
	}
	return strings.Join(parts, ", "), nil
}

// operator picks between replacing (=) and merging (+=). Property assignments
// always replace.
func (c *Set) operator(key string, mergeable bool) string {
	if c.options.Override || !mergeable || strings.Contains(key, ".") {
		return " = "
	}
	return " += "
}

func isMapValue(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Map
}

func lastSegment(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

func nonEmpty(items []string) []string {
	out := items[:0:0]
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// OnCreate renders ON CREATE SET; it follows a MERGE clause.
type OnCreate struct {
	base
	set *Set
}

// NewOnCreate creates an ON CREATE SET clause.
func NewOnCreate(props SetProperties, options SetOptions) *OnCreate {
	c := &OnCreate{set: &Set{props: props, options: options}}
	c.init(c.compile)
	return c
}

func (c *OnCreate) compile(s *params.Scope) (string, error) {
	text, err := c.set.compile(s)
	if err != nil {
		return "", err
	}
	return "ON CREATE " + text, nil
}

// OnMatch renders ON MATCH SET; it follows a MERGE clause.
type OnMatch struct {
	base
	set *Set
}

// NewOnMatch creates an ON MATCH SET clause.
func NewOnMatch(props SetProperties, options SetOptions) *OnMatch {
	c := &OnMatch{set: &Set{props: props, options: options}}
	c.init(c.compile)
	return c
}

func (c *OnMatch) compile(s *params.Scope) (string, error) {
	text, err := c.set.compile(s)
	if err != nil {
		return "", err
	}
	return "ON MATCH " + text, nil
}
