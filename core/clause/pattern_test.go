package clause

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelation_Render(t *testing.T) {
	tests := []struct {
		name     string
		relation *RelationPattern
		expected string
	}{
		{"incoming", Relation(In), "<-[]-"},
		{"outgoing", Relation(Out), "-[]->"},
		{"either", Relation(Either), "-[]-"},
		{"single label", Relation(In, Labels("FriendsWith")), "<-[:FriendsWith]-"},
		{"name and label", Relation(In, Name("link"), Labels("Link")), "<-[link:Link]-"},
		{"many labels", Relation(In, Labels("FriendsWith", "WorksWith")), "<-[:FriendsWith:WorksWith]-"},
		{"any length", Relation(Out, AnyLength()), "-[*]->"},
		{"exact length", Relation(Out, Exactly(3)), "-[*3]->"},
		{"minimum length", Relation(Out, AtLeast(2)), "-[*2..]->"},
		{"bounded length", Relation(Out, Between(2, 7)), "-[*2..7]->"},
		{"name with length", Relation(Out, Name("r"), AnyLength()), "-[r*]->"},
		{"empty parts degrade", Relation(Out, Name(""), Labels(""), Conditions(map[string]any{})), "-[]->"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := tt.relation.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj.Query)
			assert.Empty(t, obj.Params)
		})
	}
}

func TestRelation_Conditions(t *testing.T) {
	rel := Relation(Out, Conditions(map[string]any{"recent": true, "years": 7}))

	obj, err := rel.Build()
	require.NoError(t, err)

	m := regexp.MustCompile(`^-\[\{ recent: \$(\w+), years: \$(\w+) \}\]->$`).FindStringSubmatch(obj.Query)
	require.NotNil(t, m, "unexpected text %q", obj.Query)
	assert.NotEqual(t, m[1], m[2])
	assert.Len(t, obj.Params, 2)
	assert.Equal(t, true, obj.Params[m[1]])
	assert.Equal(t, 7, obj.Params[m[2]])
}

func TestRelation_AllFeatures(t *testing.T) {
	rel := Relation(Either,
		Name("f"),
		Labels("FriendsWith", "WorksWith"),
		Conditions(map[string]any{"recent": true, "years": 7}),
		Between(2, 3),
	)

	obj, err := rel.Build()
	require.NoError(t, err)
	assert.Equal(t, "-[f:FriendsWith:WorksWith*2..3 { recent: $recent, years: $years }]-", obj.Query)
	assert.Equal(t, map[string]any{"recent": true, "years": 7}, obj.Params)
}

func TestRelation_LengthSuffix(t *testing.T) {
	tests := []struct {
		name     string
		opts     []PatternOption
		expected string
	}{
		{"no bound", []PatternOption{Labels("R")}, "-[:R]->"},
		{"any length", []PatternOption{Labels("R"), AnyLength()}, "-[:R*]->"},
		{"exact", []PatternOption{Labels("R"), Exactly(4)}, "-[:R*4]->"},
		{"minimum", []PatternOption{Labels("R"), AtLeast(1)}, "-[:R*1..]->"},
		{"range", []PatternOption{Labels("R"), Between(1, 5)}, "-[:R*1..5]->"},
		{"unlabelled range", []PatternOption{Between(2, 3)}, "-[*2..3]->"},
		{"unlabelled, unbounded", nil, "-[]->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := Relation(Out, tt.opts...).Build()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj.Query)
		})
	}
}

func TestRelation_InvalidOptions(t *testing.T) {
	tests := map[string]*RelationPattern{
		"unknown direction": Relation(Direction("up")),
		"negative exact":    Relation(Out, Exactly(-1)),
		"negative minimum":  Relation(Out, AtLeast(-2)),
		"inverted bounds":   Relation(Out, Between(3, 2)),
	}
	for name, rel := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := rel.Build()
			assert.ErrorIs(t, err, ErrInvalidPattern)
		})
	}
}

func TestNode_Render(t *testing.T) {
	tests := []struct {
		name     string
		node     *NodePattern
		expected string
		params   map[string]any
	}{
		{"anonymous", Node(), "()", map[string]any{}},
		{"named", Node(Name("n")), "(n)", map[string]any{}},
		{"label only", Node(Labels("Person")), "(:Person)", map[string]any{}},
		{"name and labels", Node(Name("n"), Labels("Person", "Admin")), "(n:Person:Admin)", map[string]any{}},
		{
			"conditions",
			Node(Name("n"), Conditions(map[string]any{"name": "Alice", "age": 30})),
			"(n { age: $age, name: $name })",
			map[string]any{"age": 30, "name": "Alice"},
		},
		{
			"expression condition",
			Node(Name("n"), Conditions(map[string]any{"name": Expr("m.name")})),
			"(n { name: m.name })",
			map[string]any{},
		},
		{
			"struct conditions",
			Node(Name("n"), Labels("Person"), ConditionsOf(struct {
				Name string `json:"name"`
			}{Name: "Alice"})),
			"(n:Person { name: $name })",
			map[string]any{"name": "Alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := tt.node.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj.Query)
			assert.Equal(t, tt.params, obj.Params)
		})
	}
}

func TestNode_RejectsLength(t *testing.T) {
	_, err := Node(Name("n"), AnyLength()).Build()
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Node(ConditionsOf(42)).Build()
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestPatternClauses(t *testing.T) {
	person := func(name string) *NodePattern { return Node(Name(name), Labels("Person")) }

	t.Run("match path", func(t *testing.T) {
		m := NewMatch([]Path{{person("a"), Relation(Out, Labels("KNOWS")), person("b")}}, MatchOptions{})
		obj, err := m.Build()
		require.NoError(t, err)
		assert.Equal(t, "MATCH (a:Person)-[:KNOWS]->(b:Person)", obj.Query)
	})

	t.Run("optional match over many paths", func(t *testing.T) {
		m := NewMatch([]Path{{person("a")}, {person("b")}}, MatchOptions{Optional: true})
		obj, err := m.Build()
		require.NoError(t, err)
		assert.Equal(t, "OPTIONAL MATCH (a:Person), (b:Person)", obj.Query)
	})

	t.Run("create unique", func(t *testing.T) {
		c := NewCreate([]Path{{Node(Name("a")), Relation(Out, Labels("OWNS")), Node(Name("b"))}}, CreateOptions{Unique: true})
		obj, err := c.Build()
		require.NoError(t, err)
		assert.Equal(t, "CREATE UNIQUE (a)-[:OWNS]->(b)", obj.Query)
	})

	t.Run("merge shares one namespace", func(t *testing.T) {
		m := NewMerge(Path{
			Node(Name("a"), Conditions(map[string]any{"years": 1})),
			Relation(Out, Labels("R"), Conditions(map[string]any{"years": 2})),
			Node(Name("b"), Conditions(map[string]any{"years": 3})),
		})
		obj, err := m.Build()
		require.NoError(t, err)
		assert.Equal(t, "MERGE (a { years: $years })-[:R { years: $years_2 }]->(b { years: $years_3 })", obj.Query)
		assert.Equal(t, map[string]any{"years": 1, "years_2": 2, "years_3": 3}, obj.Params)
	})

	t.Run("empty paths are rejected", func(t *testing.T) {
		_, err := NewMatch(nil, MatchOptions{}).Build()
		assert.ErrorIs(t, err, ErrInvalidPattern)

		_, err = NewCreate([]Path{{}}, CreateOptions{}).Build()
		assert.ErrorIs(t, err, ErrInvalidPattern)

		_, err = NewMerge(Path{nil}).Build()
		assert.ErrorIs(t, err, ErrInvalidPattern)
	})

	t.Run("pattern errors propagate", func(t *testing.T) {
		_, err := NewMatch([]Path{{Node(), Relation(Out, Between(5, 1)), Node()}}, MatchOptions{}).Build()
		assert.ErrorIs(t, err, ErrInvalidPattern)
	})
}
