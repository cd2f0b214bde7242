package clause

import (
	"math"
	"testing"

	"github.com/asaidimu/go-cypher/core/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClauses_Build(t *testing.T) {
	tests := []struct {
		name     string
		clause   Clause
		expected string
		params   map[string]any
	}{
		{
			name:     "set labels",
			clause:   NewSet(SetProperties{Labels: map[string][]string{"n": {"Admin", "User"}}}, SetOptions{}),
			expected: "SET n:Admin:User",
			params:   map[string]any{},
		},
		{
			name:     "set property value",
			clause:   NewSet(SetProperties{Values: map[string]any{"n.name": "Alice"}}, SetOptions{}),
			expected: "SET n.name = $name",
			params:   map[string]any{"name": "Alice"},
		},
		{
			name:     "set merges map values",
			clause:   NewSet(SetProperties{Values: map[string]any{"n": map[string]any{"age": 30}}}, SetOptions{}),
			expected: "SET n += $n",
			params:   map[string]any{"n": map[string]any{"age": 30}},
		},
		{
			name:     "set overrides map values",
			clause:   NewSet(SetProperties{Values: map[string]any{"n": map[string]any{"age": 30}}}, SetOptions{Override: true}),
			expected: "SET n = $n",
			params:   map[string]any{"n": map[string]any{"age": 30}},
		},
		{
			name: "set variables",
			clause: NewSet(SetProperties{Variables: map[string]any{
				"a":      "b",
				"c.name": "d.name",
				"e":      map[string]string{"age": "f.age"},
			}}, SetOptions{}),
			expected: "SET a += b, c.name = d.name, e.age = f.age",
			params:   map[string]any{},
		},
		{
			name: "set mixed in fixed order",
			clause: NewSet(SetProperties{
				Variables: map[string]any{"n": "m"},
				Values:    map[string]any{"n.age": 3},
				Labels:    map[string][]string{"n": {"Person"}},
			}, SetOptions{Override: true}),
			expected: "SET n:Person, n.age = $age, n = m",
			params:   map[string]any{"age": 3},
		},
		{
			name:     "on create",
			clause:   NewOnCreate(SetProperties{Values: map[string]any{"n.created": Expr("timestamp()")}}, SetOptions{}),
			expected: "ON CREATE SET n.created = timestamp()",
			params:   map[string]any{},
		},
		{
			name:     "on match",
			clause:   NewOnMatch(SetProperties{Values: map[string]any{"n.seen": 2}}, SetOptions{}),
			expected: "ON MATCH SET n.seen = $seen",
			params:   map[string]any{"seen": 2},
		},
		{
			name:     "delete",
			clause:   NewDelete([]string{"a", "b"}, DeleteOptions{}),
			expected: "DELETE a, b",
			params:   map[string]any{},
		},
		{
			name:     "detach delete",
			clause:   NewDelete([]string{"a"}, DeleteOptions{Detach: true}),
			expected: "DETACH DELETE a",
			params:   map[string]any{},
		},
		{
			name: "remove",
			clause: NewRemove(RemoveProperties{
				Labels:     map[string][]string{"n": {"Admin"}},
				Properties: map[string][]string{"n": {"age", "email"}},
			}),
			expected: "REMOVE n:Admin, n.age, n.email",
			params:   map[string]any{},
		},
		{
			name: "return terms",
			clause: NewReturn([]any{
				"a",
				As("count(b)", "total"),
				map[string]string{"c": "node"},
				map[string][]string{"d": {"name", "age"}},
				map[string]map[string]string{"e": {"id": "eid"}},
			}, ProjectionOptions{}),
			expected: "RETURN a, count(b) AS total, c AS node, d.name, d.age, e.id AS eid",
			params:   map[string]any{},
		},
		{
			name:     "return distinct",
			clause:   NewReturn([]any{Props("n", "name")}, ProjectionOptions{Distinct: true}),
			expected: "RETURN DISTINCT n.name",
			params:   map[string]any{},
		},
		{
			name:     "with",
			clause:   NewWith([]any{[]string{"a", "b"}}, ProjectionOptions{}),
			expected: "WITH a, b",
			params:   map[string]any{},
		},
		{
			name:     "unwind",
			clause:   NewUnwind([]int{1, 2, 3}, "x"),
			expected: "UNWIND $list AS x",
			params:   map[string]any{"list": []int{1, 2, 3}},
		},
		{
			name:     "unwind expression",
			clause:   NewUnwind(Expr("range(1, 10)"), "i"),
			expected: "UNWIND range(1, 10) AS i",
			params:   map[string]any{},
		},
		{
			name:     "skip",
			clause:   NewSkip(10),
			expected: "SKIP $skip",
			params:   map[string]any{"skip": int64(10)},
		},
		{
			name:     "limit",
			clause:   NewLimit(uint8(5)),
			expected: "LIMIT $limit",
			params:   map[string]any{"limit": int64(5)},
		},
		{
			name:     "largest unsigned limit",
			clause:   NewLimit(uint64(math.MaxInt64)),
			expected: "LIMIT $limit",
			params:   map[string]any{"limit": int64(math.MaxInt64)},
		},
		{
			name:     "limit expression",
			clause:   NewLimit("toInteger($size)"),
			expected: "LIMIT toInteger($size)",
			params:   map[string]any{},
		},
		{
			name:     "order by",
			clause:   NewOrderBy(By("a"), Desc("b"), Asc("c")),
			expected: "ORDER BY a, b DESC, c",
			params:   map[string]any{},
		},
		{
			name:     "union",
			clause:   NewUnion(false),
			expected: "UNION",
			params:   map[string]any{},
		},
		{
			name:     "union all",
			clause:   NewUnion(true),
			expected: "UNION ALL",
			params:   map[string]any{},
		},
		{
			name:     "raw",
			clause:   NewRaw("MATCH (n) WHERE n.age > $age", map[string]any{"age": 30}),
			expected: "MATCH (n) WHERE n.age > $age",
			params:   map[string]any{"age": 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := tt.clause.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj.Query)
			assert.Equal(t, tt.params, obj.Params)
		})
	}
}

func TestClauses_Invalid(t *testing.T) {
	tests := map[string]Clause{
		"empty set":           NewSet(SetProperties{}, SetOptions{}),
		"set variable of int": NewSet(SetProperties{Variables: map[string]any{"n": 3}}, SetOptions{}),
		"empty delete":        NewDelete([]string{""}, DeleteOptions{}),
		"empty remove":        NewRemove(RemoveProperties{}),
		"empty return":        NewReturn(nil, ProjectionOptions{}),
		"unsupported term":    NewWith([]any{42}, ProjectionOptions{}),
		"unnamed unwind":      NewUnwind([]int{1}, ""),
		"negative limit":      NewLimit(-1),
		"fractional skip":     NewSkip(1.5),
		"overflowing limit":   NewLimit(uint64(math.MaxUint64)),
		"empty order by":      NewOrderBy(),
		"unknown direction":   NewOrderBy(OrderConstraint{Field: "a", Direction: "SIDEWAYS"}),
		"empty raw":           NewRaw("  ", nil),
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.Build()
			assert.ErrorIs(t, err, ErrInvalidClause)
		})
	}
}

func TestRaw_RenamesCollidingParameters(t *testing.T) {
	c := NewCollection(nil)
	require.NoError(t, c.Add(NewRaw("MATCH (n) WHERE n.age > $age", map[string]any{"age": 30})))
	require.NoError(t, c.Add(NewRaw("AND n.age < $age AND n.ages = $ages", map[string]any{"age": 60})))

	obj, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) WHERE n.age > $age\nAND n.age < $age_2 AND n.ages = $ages", obj.Query)
	assert.Equal(t, map[string]any{"age": 30, "age_2": 60}, obj.Params)
}

func TestRaw_SinglePassRewrite(t *testing.T) {
	bag := params.NewBag()
	bag.RegisterAs("a", 0)

	r := NewRaw("RETURN $a, $a_2", map[string]any{"a": 1, "a_2": 2})
	require.NoError(t, r.UseParameterBag(bag))

	obj, err := r.Build()
	require.NoError(t, err)
	assert.Equal(t, "RETURN $a_2, $a_2_2", obj.Query)
	assert.Equal(t, map[string]any{"a_2": 1, "a_2_2": 2}, obj.Params)
}
