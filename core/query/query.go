package query

import (
	"context"
	"fmt"
	"iter"

	"github.com/asaidimu/go-cypher/core/clause"
	"github.com/asaidimu/go-cypher/core/params"
	"go.uber.org/zap"
)

// Query accumulates clauses into one statement. Every method that adds a
// clause returns the same *Query so calls can be chained:
//
//	q := query.New(conn).
//		MatchNode("n", clause.Labels("Person")).
//		Where(map[string]any{"n.age": clause.GreaterThan(18)}).
//		Return("n")
//
// Each fluent call normally appends exactly one clause. Construction errors do
// not interrupt the chain: a clause whose literals could not be bound (for
// example one already attached to another Query's bag) is dropped rather than
// appended, so Len does not grow for that call. The first such error is kept
// and returned by Build and by every terminal operation.
type Query struct {
	conn    Connection
	bag     *params.Bag
	clauses *clause.Collection
	logger  *zap.Logger
	err     error
}

// Option configures a Query.
type Option func(*Query)

// WithLogger sets the logger used for execution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// New creates an empty query. conn may be nil for queries that are only
// built, never run.
func New(conn Connection, opts ...Option) *Query {
	bag := params.NewBag()
	q := &Query{
		conn:    conn,
		bag:     bag,
		clauses: clause.NewCollection(bag),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Query) add(c clause.Clause) *Query {
	if err := q.clauses.Add(c); err != nil && q.err == nil {
		q.err = fmt.Errorf("add clause %d: %w", q.clauses.Len(), err)
	}
	return q
}

// AddClause appends a clause built outside the fluent API.
func (q *Query) AddClause(c clause.Clause) *Query {
	return q.add(c)
}

// Match adds MATCH over a single path made of the given patterns.
func (q *Query) Match(patterns ...clause.Pattern) *Query {
	return q.add(clause.NewMatch([]clause.Path{patterns}, clause.MatchOptions{}))
}

// MatchPaths adds MATCH over several comma separated paths.
func (q *Query) MatchPaths(paths ...clause.Path) *Query {
	return q.add(clause.NewMatch(paths, clause.MatchOptions{}))
}

// MatchNode adds MATCH over a single node bound to name.
func (q *Query) MatchNode(name string, opts ...clause.PatternOption) *Query {
	return q.Match(node(name, opts))
}

// OptionalMatch adds OPTIONAL MATCH over a single path.
func (q *Query) OptionalMatch(patterns ...clause.Pattern) *Query {
	return q.add(clause.NewMatch([]clause.Path{patterns}, clause.MatchOptions{Optional: true}))
}

// Create adds CREATE over a single path.
func (q *Query) Create(patterns ...clause.Pattern) *Query {
	return q.add(clause.NewCreate([]clause.Path{patterns}, clause.CreateOptions{}))
}

// CreatePaths adds CREATE over several comma separated paths.
func (q *Query) CreatePaths(paths ...clause.Path) *Query {
	return q.add(clause.NewCreate(paths, clause.CreateOptions{}))
}

// CreateNode adds CREATE for a single node bound to name.
func (q *Query) CreateNode(name string, opts ...clause.PatternOption) *Query {
	return q.Create(node(name, opts))
}

// CreateUnique adds CREATE UNIQUE over a single path.
func (q *Query) CreateUnique(patterns ...clause.Pattern) *Query {
	return q.add(clause.NewCreate([]clause.Path{patterns}, clause.CreateOptions{Unique: true}))
}

// Merge adds MERGE over a single path.
func (q *Query) Merge(patterns ...clause.Pattern) *Query {
	return q.add(clause.NewMerge(patterns))
}

// OnCreate returns the setters for an ON CREATE SET clause.
func (q *Query) OnCreate() *OnSet {
	return &OnSet{q: q, build: func(p clause.SetProperties, o clause.SetOptions) clause.Clause {
		return clause.NewOnCreate(p, o)
	}}
}

// OnMatch returns the setters for an ON MATCH SET clause.
func (q *Query) OnMatch() *OnSet {
	return &OnSet{q: q, build: func(p clause.SetProperties, o clause.SetOptions) clause.Clause {
		return clause.NewOnMatch(p, o)
	}}
}

// Set adds SET.
func (q *Query) Set(props clause.SetProperties, options clause.SetOptions) *Query {
	return q.add(clause.NewSet(props, options))
}

// SetLabels adds SET with labels only.
func (q *Query) SetLabels(labels map[string][]string) *Query {
	return q.Set(clause.SetProperties{Labels: labels}, clause.SetOptions{})
}

// SetValues adds SET with bound values only.
func (q *Query) SetValues(values map[string]any, override bool) *Query {
	return q.Set(clause.SetProperties{Values: values}, clause.SetOptions{Override: override})
}

// SetVariables adds SET with variable assignments only.
func (q *Query) SetVariables(variables map[string]any, override bool) *Query {
	return q.Set(clause.SetProperties{Variables: variables}, clause.SetOptions{Override: override})
}

// Remove adds REMOVE.
func (q *Query) Remove(props clause.RemoveProperties) *Query {
	return q.add(clause.NewRemove(props))
}

// RemoveLabels adds REMOVE with labels only.
func (q *Query) RemoveLabels(labels map[string][]string) *Query {
	return q.Remove(clause.RemoveProperties{Labels: labels})
}

// RemoveProperties adds REMOVE with properties only.
func (q *Query) RemoveProperties(properties map[string][]string) *Query {
	return q.Remove(clause.RemoveProperties{Properties: properties})
}

// Delete adds DELETE.
func (q *Query) Delete(variables ...string) *Query {
	return q.add(clause.NewDelete(variables, clause.DeleteOptions{}))
}

// DetachDelete adds DETACH DELETE.
func (q *Query) DetachDelete(variables ...string) *Query {
	return q.add(clause.NewDelete(variables, clause.DeleteOptions{Detach: true}))
}

// Where adds WHERE. See clause.Where for the accepted condition shapes.
func (q *Query) Where(conditions any) *Query {
	return q.add(clause.NewWhere(conditions))
}

// Skip adds SKIP.
func (q *Query) Skip(amount any) *Query {
	return q.add(clause.NewSkip(amount))
}

// Limit adds LIMIT.
func (q *Query) Limit(amount any) *Query {
	return q.add(clause.NewLimit(amount))
}

// OrderBy adds ORDER BY.
func (q *Query) OrderBy(constraints ...clause.OrderConstraint) *Query {
	return q.add(clause.NewOrderBy(constraints...))
}

// Unwind adds UNWIND list AS name.
func (q *Query) Unwind(list any, name string) *Query {
	return q.add(clause.NewUnwind(list, name))
}

// Return adds RETURN.
func (q *Query) Return(terms ...any) *Query {
	return q.add(clause.NewReturn(terms, clause.ProjectionOptions{}))
}

// ReturnDistinct adds RETURN DISTINCT.
func (q *Query) ReturnDistinct(terms ...any) *Query {
	return q.add(clause.NewReturn(terms, clause.ProjectionOptions{Distinct: true}))
}

// With adds WITH.
func (q *Query) With(terms ...any) *Query {
	return q.add(clause.NewWith(terms, clause.ProjectionOptions{}))
}

// Union adds UNION.
func (q *Query) Union() *Query {
	return q.add(clause.NewUnion(false))
}

// UnionAll adds UNION ALL.
func (q *Query) UnionAll() *Query {
	return q.add(clause.NewUnion(true))
}

// Raw adds caller supplied text. values maps the placeholder names used in
// text to their values.
func (q *Query) Raw(text string, values map[string]any) *Query {
	return q.add(clause.NewRaw(text, values))
}

// Clauses returns the clauses in statement order.
func (q *Query) Clauses() []clause.Clause {
	return q.clauses.Clauses()
}

// Len returns the number of clauses.
func (q *Query) Len() int {
	return q.clauses.Len()
}

// Params returns every parameter registered so far.
func (q *Query) Params() map[string]any {
	return q.bag.Params()
}

// BuildQueryObject renders the statement, terminated with ";", and its
// parameters.
func (q *Query) BuildQueryObject() (clause.QueryObject, error) {
	if q.err != nil {
		return clause.QueryObject{}, q.err
	}
	obj, err := q.clauses.Build()
	if err != nil {
		return clause.QueryObject{}, err
	}
	obj.Query += ";"
	return obj, nil
}

// Build renders the statement text, terminated with ";".
func (q *Query) Build() (string, error) {
	obj, err := q.BuildQueryObject()
	if err != nil {
		return "", err
	}
	return obj.Query, nil
}

// Interpolate renders the statement with every parameter inlined. Use it for
// logs and debugging only.
func (q *Query) Interpolate() (string, error) {
	obj, err := q.BuildQueryObject()
	if err != nil {
		return "", err
	}
	return obj.Interpolate(), nil
}

// String implements fmt.Stringer with the interpolated statement.
func (q *Query) String() string {
	text, err := q.Interpolate()
	if err != nil {
		return fmt.Sprintf("<invalid query: %v>", err)
	}
	return text
}

// Run executes the statement and returns every record. Errors from the
// connection are returned unchanged.
func (q *Query) Run(ctx context.Context) ([]Record, error) {
	if q.conn == nil {
		return nil, ErrNoConnection
	}
	obj, err := q.BuildQueryObject()
	if err != nil {
		return nil, err
	}

	q.logger.Debug("Running query", zap.String("cypher", obj.Query), zap.Any("params", obj.Params))
	records, err := q.conn.Run(ctx, obj)
	if err != nil {
		// The connection logs and wraps its own failures.
		return nil, err
	}
	q.logger.Debug("Query returned records", zap.Int("count", len(records)))
	return records, nil
}

// First executes the statement and returns its first record, or nil when the
// statement returned nothing.
func (q *Query) First(ctx context.Context) (Record, error) {
	records, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Stream executes the statement and yields records as the connection
// delivers them. Errors that happen before execution starts, including a
// missing connection, are returned immediately.
func (q *Query) Stream(ctx context.Context) (iter.Seq2[Record, error], error) {
	if q.conn == nil {
		return nil, ErrNoConnection
	}
	obj, err := q.BuildQueryObject()
	if err != nil {
		return nil, err
	}
	q.logger.Debug("Streaming query", zap.String("cypher", obj.Query), zap.Any("params", obj.Params))
	return q.conn.Stream(ctx, obj), nil
}

func node(name string, opts []clause.PatternOption) *clause.NodePattern {
	return clause.Node(append([]clause.PatternOption{clause.Name(name)}, opts...)...)
}

// OnSet adds ON CREATE SET or ON MATCH SET clauses to its query. Each method
// returns the query so the chain continues.
type OnSet struct {
	q     *Query
	build func(clause.SetProperties, clause.SetOptions) clause.Clause
}

// Set adds the clause with every kind of update.
func (o *OnSet) Set(props clause.SetProperties, options clause.SetOptions) *Query {
	return o.q.add(o.build(props, options))
}

// SetLabels adds the clause with labels only.
func (o *OnSet) SetLabels(labels map[string][]string) *Query {
	return o.Set(clause.SetProperties{Labels: labels}, clause.SetOptions{})
}

// SetValues adds the clause with bound values only.
func (o *OnSet) SetValues(values map[string]any, override bool) *Query {
	return o.Set(clause.SetProperties{Values: values}, clause.SetOptions{Override: override})
}

// SetVariables adds the clause with variable assignments only.
func (o *OnSet) SetVariables(variables map[string]any, override bool) *Query {
	return o.Set(clause.SetProperties{Variables: variables}, clause.SetOptions{Override: override})
}
