package clause

import (
	"fmt"
	"maps"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// Collection is an ordered, append-only list of clauses sharing one parameter
// bag. It is itself a Clause, so collections nest.
type Collection struct {
	bag     *params.Bag
	clauses []Clause
}

var _ Clause = (*Collection)(nil)

// NewCollection creates an empty collection over bag. A nil bag gets a fresh
// one.
func NewCollection(bag *params.Bag) *Collection {
	if bag == nil {
		bag = params.NewBag()
	}
	return &Collection{bag: bag}
}

// Bag returns the shared parameter bag.
func (c *Collection) Bag() *params.Bag {
	return c.bag
}

// Add binds clause to the collection's bag and appends it.
func (c *Collection) Add(clause Clause) error {
	if clause == nil {
		return fmt.Errorf("%w: nil clause", ErrInvalidClause)
	}
	if err := clause.UseParameterBag(c.bag); err != nil {
		return err
	}
	c.clauses = append(c.clauses, clause)
	return nil
}

// Clauses returns the clauses in statement order.
func (c *Collection) Clauses() []Clause {
	out := make([]Clause, len(c.clauses))
	copy(out, c.clauses)
	return out
}

// Len returns the number of clauses.
func (c *Collection) Len() int {
	return len(c.clauses)
}

// UseParameterBag rebinds every member to bag. It only succeeds for bags the
// members can still move to.
func (c *Collection) UseParameterBag(bag *params.Bag) error {
	if bag == nil {
		return ErrNilBag
	}
	if bag == c.bag {
		return nil
	}
	if len(c.clauses) > 0 {
		return ErrBagAttached
	}
	c.bag = bag
	return nil
}

// Build joins every member's text with newlines and merges their parameters.
func (c *Collection) Build() (QueryObject, error) {
	lines := make([]string, 0, len(c.clauses))
	merged := make(map[string]any)
	for i, clause := range c.clauses {
		obj, err := clause.Build()
		if err != nil {
			return QueryObject{}, fmt.Errorf("clause %d: %w", i, err)
		}
		lines = append(lines, obj.Query)
		maps.Copy(merged, obj.Params)
	}
	return QueryObject{Query: strings.Join(lines, "\n"), Params: merged}, nil
}

// Interpolate builds the collection and inlines every parameter value. The
// result is for diagnostics only.
func (c *Collection) Interpolate() (string, error) {
	obj, err := c.Build()
	if err != nil {
		return "", err
	}
	return obj.Interpolate(), nil
}
