// Package clause defines the building blocks of a Cypher statement: node and
// relationship patterns, the individual clause kinds and the collection that
// joins them into one statement sharing a single parameter namespace.
package clause

import (
	"errors"
	"maps"

	"github.com/asaidimu/go-cypher/core/params"
)

var (
	// ErrInvalidPattern reports a node or relationship pattern built from
	// inconsistent options.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInvalidClause reports a clause built from arguments it cannot render.
	ErrInvalidClause = errors.New("invalid clause")
	// ErrInvalidCondition reports a where condition of an unsupported shape.
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrBagAttached is returned when a clause already bound to a shared
	// parameter bag is offered a different one.
	ErrBagAttached = errors.New("clause is already attached to another parameter bag")
	// ErrNilBag is returned when a nil parameter bag is attached.
	ErrNilBag = errors.New("parameter bag cannot be nil")
)

// QueryObject is the rendered form of a clause or statement: the statement
// text and the values bound to each placeholder it contains.
type QueryObject struct {
	Query  string
	Params map[string]any
}

// Interpolate returns the statement text with every known placeholder
// replaced by its literal value. The result is meant for logs and
// diagnostics, never for execution.
func (o QueryObject) Interpolate() string {
	return Interpolate(o.Query, o.Params)
}

// Clause is any buildable statement fragment.
type Clause interface {
	// UseParameterBag binds the clause to the bag shared by the statement it
	// belongs to. Every literal the clause holds is registered exactly once,
	// at bind time.
	UseParameterBag(bag *params.Bag) error

	// Build returns the clause text and the parameters it registered.
	Build() (QueryObject, error)
}

type compileFunc func(s *params.Scope) (string, error)

// base holds the binding state shared by every clause kind. Concrete clauses
// embed it and hand it their compile function.
type base struct {
	compile compileFunc
	bag     *params.Bag
	private bool
	text    string
	params  map[string]any
	err     error
}

func (b *base) init(fn compileFunc) {
	b.compile = fn
}

// UseParameterBag binds the clause to bag. Binding the bag already in use is a
// no-op. A clause that was only built standalone (against its own private bag)
// can move to a shared bag once; after that any other bag is rejected.
func (b *base) UseParameterBag(bag *params.Bag) error {
	if bag == nil {
		return ErrNilBag
	}
	if b.bag == bag {
		return nil
	}
	if b.bag != nil && !b.private {
		return ErrBagAttached
	}
	b.bind(bag)
	b.private = false
	return nil
}

// bind compiles the clause against bag and caches the result. Literals are
// registered here and nowhere else, which is what keeps Build idempotent: a
// second Build returns the cached text instead of registering the same values
// again under new names.
func (b *base) bind(bag *params.Bag) {
	b.bag = bag

	// Register through a scope so the clause keeps only its own parameters,
	// not everything else already in the shared bag.
	scope := bag.Scope()
	b.text, b.err = b.compile(scope)

	// A failed compile may have registered some values before bailing out.
	// They stay in the bag (names are never reused), but the error wins in Build.
	b.params = scope.Params()
}

// Build returns the rendered clause. A clause that was never attached renders
// against a private bag of its own.
func (b *base) Build() (QueryObject, error) {
	if b.bag == nil {
		b.bind(params.NewBag())
		b.private = true
	}
	if b.err != nil {
		return QueryObject{}, b.err
	}
	return QueryObject{Query: b.text, Params: maps.Clone(b.params)}, nil
}
