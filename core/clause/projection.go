package clause

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// As aliases an expression: As("count(n)", "total") renders count(n) AS total.
func As(expr, alias string) Expr {
	return Expr(expr + " AS " + alias)
}

// Props projects properties of a variable: Props("n", "name", "age") renders
// n.name, n.age.
func Props(variable string, props ...string) Expr {
	if len(props) == 0 {
		return Expr(variable)
	}
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = variable + "." + p
	}
	return Expr(strings.Join(parts, ", "))
}

// renderTerms flattens projection terms. Accepted shapes:
//
//	"n", Expr, Var                      n
//	[]string{"a", "b"}                  a, b
//	map[string]string{"n": "node"}      n AS node
//	map[string][]string{"n": {"a"}}     n.a
//	map[string]map[string]string        n.a AS alias
func renderTerms(terms []any) ([]string, error) {
	var out []string
	for _, term := range terms {
		switch t := term.(type) {
		case string:
			out = append(out, t)
		case Expr:
			out = append(out, string(t))
		case Var:
			out = append(out, string(t))
		case []string:
			out = append(out, t...)
		case map[string]string:
			for _, k := range sortedKeys(t) {
				out = append(out, k+" AS "+t[k])
			}
		case map[string][]string:
			for _, k := range sortedKeys(t) {
				out = append(out, string(Props(k, t[k]...)))
			}
		case map[string]map[string]string:
			for _, k := range sortedKeys(t) {
				for _, prop := range sortedKeys(t[k]) {
					out = append(out, k+"."+prop+" AS "+t[k][prop])
				}
			}
		default:
			return nil, fmt.Errorf("%w: unsupported term of type %T", ErrInvalidClause, term)
		}
	}
	out = nonEmpty(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one term is required", ErrInvalidClause)
	}
	return out, nil
}

// ProjectionOptions configures RETURN and WITH.
type ProjectionOptions struct {
	Distinct bool // Render RETURN DISTINCT / WITH DISTINCT.
}

// Projection renders RETURN or WITH over a list of terms.
type Projection struct {
	base
	keyword string
	terms   []any
	options ProjectionOptions
}

// NewReturn creates a RETURN clause.
func NewReturn(terms []any, options ProjectionOptions) *Projection {
	return newProjection("RETURN", terms, options)
}

// NewWith creates a WITH clause.
func NewWith(terms []any, options ProjectionOptions) *Projection {
	return newProjection("WITH", terms, options)
}

func newProjection(keyword string, terms []any, options ProjectionOptions) *Projection {
	p := &Projection{keyword: keyword, terms: terms, options: options}
	p.init(p.compile)
	return p
}

func (p *Projection) compile(*params.Scope) (string, error) {
	terms, err := renderTerms(p.terms)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.keyword, err)
	}
	keyword := p.keyword
	if p.options.Distinct {
		keyword += " DISTINCT"
	}
	return keyword + " " + strings.Join(terms, ", "), nil
}

// Unwind renders UNWIND $list AS name.
type Unwind struct {
	base
	list any
	name string
}

// NewUnwind creates an UNWIND clause. The list is bound as a parameter unless
// it is an Expr or Var.
func NewUnwind(list any, name string) *Unwind {
	u := &Unwind{list: list, name: name}
	u.init(u.compile)
	return u
}

func (u *Unwind) compile(s *params.Scope) (string, error) {
	if u.name == "" {
		return "", fmt.Errorf("%w: UNWIND requires a variable name", ErrInvalidClause)
	}
	return "UNWIND " + bindValue(s, "list", u.list) + " AS " + u.name, nil
}

// Paging renders SKIP or LIMIT.
type Paging struct {
	base
	keyword string
	amount  any
}

// NewSkip creates a SKIP clause. Integer amounts are bound as $skip; string
// and Expr amounts are inlined.
func NewSkip(amount any) *Paging {
	return newPaging("SKIP", amount)
}

// NewLimit creates a LIMIT clause. Integer amounts are bound as $limit;
// string and Expr amounts are inlined.
func NewLimit(amount any) *Paging {
	return newPaging("LIMIT", amount)
}

func newPaging(keyword string, amount any) *Paging {
	p := &Paging{keyword: keyword, amount: amount}
	p.init(p.compile)
	return p
}

func (p *Paging) compile(s *params.Scope) (string, error) {
	switch v := p.amount.(type) {
	case string:
		if v == "" {
			break
		}
		return p.keyword + " " + v, nil
	case Expr:
		return p.keyword + " " + string(v), nil
	default:
		rv := reflect.ValueOf(p.amount)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.Int() < 0 {
				return "", fmt.Errorf("%w: %s amount %d is negative", ErrInvalidClause, p.keyword, rv.Int())
			}
			return p.keyword + " " + s.Register(strings.ToLower(p.keyword), rv.Int()).String(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			// Cypher integers are signed 64-bit.
			if rv.Uint() > math.MaxInt64 {
				return "", fmt.Errorf("%w: %s amount %d overflows int64", ErrInvalidClause, p.keyword, rv.Uint())
			}
			return p.keyword + " " + s.Register(strings.ToLower(p.keyword), int64(rv.Uint())).String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s amount must be an integer or an expression, got %T", ErrInvalidClause, p.keyword, p.amount)
}

// OrderDirection is the sort direction of an ORDER BY term.
type OrderDirection string

const (
	Ascending  OrderDirection = ""
	Descending OrderDirection = "DESC"
)

// OrderConstraint is one ORDER BY term.
type OrderConstraint struct {
	Field     string
	Direction OrderDirection
}

// By sorts on field in the default (ascending) order.
func By(field string) OrderConstraint { return OrderConstraint{Field: field} }

// Asc sorts on field in ascending order.
func Asc(field string) OrderConstraint { return OrderConstraint{Field: field} }

// Desc sorts on field in descending order.
func Desc(field string) OrderConstraint {
	return OrderConstraint{Field: field, Direction: Descending}
}

// OrderBy renders ORDER BY.
type OrderBy struct {
	base
	constraints []OrderConstraint
}

// NewOrderBy creates an ORDER BY clause.
func NewOrderBy(constraints ...OrderConstraint) *OrderBy {
	o := &OrderBy{constraints: constraints}
	o.init(o.compile)
	return o
}

func (o *OrderBy) compile(*params.Scope) (string, error) {
	parts := make([]string, 0, len(o.constraints))
	for _, c := range o.constraints {
		if c.Field == "" {
			continue
		}
		switch strings.ToUpper(string(c.Direction)) {
		case "", "ASC":
			parts = append(parts, c.Field)
		case "DESC":
			parts = append(parts, c.Field+" DESC")
		default:
			return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidClause, c.Direction)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: ORDER BY requires at least one field", ErrInvalidClause)
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// Union renders UNION or UNION ALL between two statements.
type Union struct {
	base
	all bool
}

// NewUnion creates a UNION clause; all keeps duplicate rows.
func NewUnion(all bool) *Union {
	u := &Union{all: all}
	u.init(u.compile)
	return u
}

func (u *Union) compile(*params.Scope) (string, error) {
	if u.all {
		return "UNION ALL", nil
	}
	return "UNION", nil
}
